// Package tracker keeps the in-memory registry of payment lifecycle state.
// A tracker instance is explicitly constructed and injected; there is no
// ambient global.
package tracker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/types"
)

// PaymentRecord is one tracked payment. Status moves from Pending to exactly
// one terminal state per execution attempt; TxHash or Error is set at that
// transition and the record is immutable afterwards.
type PaymentRecord struct {
	ID        string
	Config    types.PaymentConfig
	Status    types.PaymentStatus
	Timestamp time.Time
	TxHash    string
	Error     string
}

// Tracker is safe for concurrent use. Each payment id is only ever driven by
// the single orchestration task that owns it; the maps and the id sequence
// are the shared structures the mutex protects.
type Tracker struct {
	mu       sync.RWMutex
	payments map[string]*PaymentRecord
	byAddr   map[common.Address][]string
	seq      atomic.Uint64
}

func New() *Tracker {
	return &Tracker{
		payments: make(map[string]*PaymentRecord),
		byAddr:   make(map[common.Address][]string),
	}
}

// CreatePayment inserts a Pending record under a fresh unique id and indexes
// it by sender and, where present, each recipient. Ids never collide even for
// creations within the same millisecond.
func (t *Tracker) CreatePayment(cfg types.PaymentConfig) string {
	id := fmt.Sprintf("PMT-%d-%04d", time.Now().UnixMilli(), t.seq.Add(1))

	record := &PaymentRecord{
		ID:        id,
		Config:    cfg,
		Status:    types.StatusPending,
		Timestamp: time.Now(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.payments[id] = record
	t.index(cfg.Sender, id)
	if cfg.Recipient != (common.Address{}) {
		t.index(cfg.Recipient, id)
	}
	for _, r := range cfg.Recipients {
		t.index(r.Address, id)
	}
	return id
}

func (t *Tracker) index(addr common.Address, id string) {
	t.byAddr[addr] = append(t.byAddr[addr], id)
}

// UpdateStatus applies the one allowed terminal transition. Unknown ids and
// transitions out of a terminal state are rejected.
func (t *Tracker) UpdateStatus(id string, status types.PaymentStatus, txHash, errText string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.payments[id]
	if !ok {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("payment not found: %s", id))
	}
	if record.Status.IsTerminal() {
		return types.NewError(types.ErrExecution,
			fmt.Sprintf("payment %s already %s", id, record.Status))
	}

	record.Status = status
	if txHash != "" {
		record.TxHash = txHash
	}
	if errText != "" {
		record.Error = errText
	}
	return nil
}

// Status returns the current lifecycle state for id.
func (t *Tracker) Status(id string) (types.PaymentStatus, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.payments[id]
	if !ok {
		return "", types.NewError(types.ErrNotFound, fmt.Sprintf("payment not found: %s", id))
	}
	return record.Status, nil
}

// Payment returns a copy of the record for id.
func (t *Tracker) Payment(id string) (*PaymentRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.payments[id]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, fmt.Sprintf("payment not found: %s", id))
	}
	copied := *record
	return &copied, nil
}

// History returns copies of every record the address participates in, in
// creation order.
func (t *Tracker) History(addr common.Address) []*PaymentRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := t.byAddr[addr]
	records := make([]*PaymentRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := t.payments[id]; ok {
			copied := *record
			records = append(records, &copied)
		}
	}
	return records
}

// Len reports the number of tracked payments.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.payments)
}
