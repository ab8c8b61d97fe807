// Package vnet provisions disposable forked chains for dry-run execution.
// Chains are created through the Tenderly virtual testnet API; funding uses
// the fork's admin-RPC cheat methods. Provisioned ids are recorded on disk so
// stale chains can be torn down at the next startup.
package vnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/types"
)

const apiBaseURL = "https://api.tenderly.co/api/v1"

// Credentials authenticate against the provisioning API.
type Credentials struct {
	AccessKey string
	Account   string
	Project   string
}

// VirtualChain is one provisioned ephemeral chain.
type VirtualChain struct {
	ID               string `json:"id"`
	ChainID          uint64 `json:"chainId"`
	RPCURL           string `json:"rpcUrl"`
	BlockExplorerURL string `json:"blockExplorerUrl"`
}

// Provisioner creates and destroys ephemeral chains.
type Provisioner struct {
	creds      Credentials
	httpClient *http.Client
	registry   *Registry
	log        logger.Logger
}

func NewProvisioner(creds Credentials, registry *Registry, log logger.Logger) *Provisioner {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Provisioner{
		creds:      creds,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		registry:   registry,
		log:        log,
	}
}

type createVNetRequest struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	ForkConfig  struct {
		NetworkID   uint64 `json:"network_id"`
		BlockNumber string `json:"block_number"`
	} `json:"fork_config"`
	VirtualNetworkConfig struct {
		ChainConfig struct {
			ChainID uint64 `json:"chain_id"`
		} `json:"chain_config"`
	} `json:"virtual_network_config"`
	SyncStateConfig struct {
		Enabled bool `json:"enabled"`
	} `json:"sync_state_config"`
}

type createVNetResponse struct {
	ID   string `json:"id"`
	RPCs []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"rpcs"`
	VirtualNetworkConfig struct {
		ChainConfig struct {
			ChainID uint64 `json:"chain_id"`
		} `json:"chain_config"`
	} `json:"virtual_network_config"`
}

// CreateVirtualChain forks the given chain at the latest block. The new
// chain's id is appended to the on-disk registry before returning.
func (p *Provisioner) CreateVirtualChain(ctx context.Context, chainID uint64) (*VirtualChain, error) {
	if p.creds.AccessKey == "" || p.creds.Account == "" {
		return nil, types.NewError(types.ErrConfig, "missing provisioning credentials")
	}

	var req createVNetRequest
	now := time.Now().UnixMilli()
	req.Slug = fmt.Sprintf("crosspay-staging-%d-%d", chainID, now)
	req.DisplayName = fmt.Sprintf("crosspay staging - chain %d - %d", chainID, now)
	req.ForkConfig.NetworkID = chainID
	req.ForkConfig.BlockNumber = "latest"
	req.VirtualNetworkConfig.ChainConfig.ChainID = chainID
	req.SyncStateConfig.Enabled = false

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode vnet request: %w", err)
	}

	url := fmt.Sprintf("%s/account/%s/project/%s/vnets", apiBaseURL, p.creds.Account, p.creds.Project)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Access-Key", p.creds.AccessKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create virtual chain: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create virtual chain: status %d: %s", resp.StatusCode, raw)
	}

	var created createVNetResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("parse vnet response: %w", err)
	}

	vc := &VirtualChain{
		ID:      created.ID,
		ChainID: created.VirtualNetworkConfig.ChainConfig.ChainID,
	}
	for _, r := range created.RPCs {
		switch r.Name {
		case "Admin RPC":
			vc.RPCURL = r.URL
		case "Public RPC":
			vc.BlockExplorerURL = r.URL
		}
	}
	if vc.RPCURL == "" {
		return nil, fmt.Errorf("vnet %s has no admin rpc", vc.ID)
	}

	if p.registry != nil {
		if err := p.registry.Append(vc.ID); err != nil {
			p.log.Warn("failed to record virtual chain id", map[string]any{"id": vc.ID, "error": err.Error()})
		}
	}

	p.log.Info("created virtual chain", map[string]any{"id": vc.ID, "chainId": vc.ChainID})
	return vc, nil
}

// DeleteVirtualChain destroys a provisioned chain.
func (p *Provisioner) DeleteVirtualChain(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/account/%s/project/%s/vnets/%s", apiBaseURL, p.creds.Account, p.creds.Project, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Access-Key", p.creds.AccessKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete virtual chain %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("delete virtual chain %s: status %d", id, resp.StatusCode)
	}
	p.log.Info("deleted virtual chain", map[string]any{"id": id})
	return nil
}

// TeardownStale deletes every chain recorded in the registry and clears it.
// Individual delete failures are logged and skipped so one stuck chain does
// not block startup.
func (p *Provisioner) TeardownStale(ctx context.Context) error {
	if p.registry == nil {
		return nil
	}
	ids, err := p.registry.Load()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := p.DeleteVirtualChain(ctx, id); err != nil {
			p.log.Warn("stale chain teardown failed", map[string]any{"id": id, "error": err.Error()})
		}
	}
	return p.registry.Clear()
}

// SetBalance funds an account with native currency on the fork.
func (p *Provisioner) SetBalance(ctx context.Context, vc *VirtualChain, addr common.Address, amount *big.Int) error {
	return p.adminCall(ctx, vc, "tenderly_setBalance", []common.Address{addr}, (*hexutil.Big)(amount))
}

// SetErc20Balance overrides an account's token balance on the fork.
func (p *Provisioner) SetErc20Balance(ctx context.Context, vc *VirtualChain, token, addr common.Address, amount *big.Int) error {
	return p.adminCall(ctx, vc, "tenderly_setErc20Balance", token, addr, (*hexutil.Big)(amount))
}

func (p *Provisioner) adminCall(ctx context.Context, vc *VirtualChain, method string, args ...interface{}) error {
	client, err := rpc.DialContext(ctx, vc.RPCURL)
	if err != nil {
		return fmt.Errorf("dial admin rpc: %w", err)
	}
	defer client.Close()

	var result interface{}
	if err := client.CallContext(ctx, &result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
