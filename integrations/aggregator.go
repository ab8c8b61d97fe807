package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vitwit/crosspay/message"
)

// SwapRequest asks the aggregator for a route selling Amount of SellToken
// into BuyToken, delivered to Recipient.
type SwapRequest struct {
	ChainID   uint64
	SellToken common.Address
	BuyToken  common.Address
	Amount    *big.Int
	Recipient common.Address
}

// SwapQuote is an executable aggregator route for one exact sell amount.
type SwapQuote struct {
	Target    common.Address
	CallData  []byte
	Value     *big.Int
	BuyAmount *big.Int
}

// Aggregator quotes swap routes over a JSON HTTP API. Quotes are priced for
// one exact amount and must be re-fetched whenever the amount changes.
type Aggregator struct {
	baseURL    string
	spender    common.Address
	httpClient *http.Client
}

func NewAggregator(baseURL string, spender common.Address) *Aggregator {
	return &Aggregator{
		baseURL:    baseURL,
		spender:    spender,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Spender is the address that must be approved before executing a quote.
func (a *Aggregator) Spender() common.Address { return a.spender }

type aggregatorResponse struct {
	To        string `json:"to"`
	Data      string `json:"data"`
	Value     string `json:"value"`
	BuyAmount string `json:"buyAmount"`
}

// Quote fetches a route for req. When the aggregator has no route for the
// requested amount the error wraps message.ErrNoRoute, which marks the whole
// cross-chain message non-executable.
func (a *Aggregator) Quote(ctx context.Context, req SwapRequest) (*SwapQuote, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("swap amount %s: %w", req.Amount, message.ErrNoRoute)
	}

	params := url.Values{}
	params.Set("chainId", fmt.Sprintf("%d", req.ChainID))
	params.Set("sellToken", req.SellToken.Hex())
	params.Set("buyToken", req.BuyToken.Hex())
	params.Set("sellAmount", req.Amount.String())
	params.Set("recipient", req.Recipient.Hex())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch swap quote: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("aggregator has no route for %s: %w", req.Amount, message.ErrNoRoute)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap quote: status %d: %s", resp.StatusCode, raw)
	}

	var decoded aggregatorResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse swap quote: %w", err)
	}
	if decoded.To == "" || decoded.Data == "" {
		return nil, fmt.Errorf("aggregator returned an empty route: %w", message.ErrNoRoute)
	}

	callData, err := hexutil.Decode(decoded.Data)
	if err != nil {
		return nil, fmt.Errorf("decode route call data: %w", err)
	}

	quote := &SwapQuote{
		Target:   common.HexToAddress(decoded.To),
		CallData: callData,
		Value:    new(big.Int),
	}
	if decoded.Value != "" {
		v, ok := new(big.Int).SetString(decoded.Value, 10)
		if !ok {
			return nil, fmt.Errorf("bad route value %q", decoded.Value)
		}
		quote.Value = v
	}
	if decoded.BuyAmount != "" {
		b, ok := new(big.Int).SetString(decoded.BuyAmount, 10)
		if !ok {
			return nil, fmt.Errorf("bad buy amount %q", decoded.BuyAmount)
		}
		quote.BuyAmount = b
	}
	return quote, nil
}
