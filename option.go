package crosspay

import (
	"crypto/ecdsa"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/message"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/tracker"
)

// Option configures a Hub during construction.
type Option func(*Hub)

// WithLogger sets the structured logger.
func WithLogger(log logger.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(h *Hub) {
		if rec != nil {
			h.metrics = rec
		}
	}
}

// WithTimeout bounds each payment execution end to end.
func WithTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithFees enables protocol fee splitting for one-time payments: bps basis
// points of every settled amount go to recipient.
func WithFees(bps int64, recipient common.Address) Option {
	return func(h *Hub) {
		h.builder.Fees = &message.FeeConfig{Bps: bps, Recipient: recipient}
	}
}

// WithTracker replaces the default in-memory tracker, letting several hubs
// share one payment history.
func WithTracker(t *tracker.Tracker) Option {
	return func(h *Hub) {
		if t != nil {
			h.tracker = t
		}
	}
}

// WithHubContract overrides the destination payment hub address.
func WithHubContract(addr common.Address) Option {
	return func(h *Hub) {
		h.builder.Hub = addr
	}
}

// WithPrivateKey sets the key used to sign deposit transactions.
func WithPrivateKey(key *ecdsa.PrivateKey) Option {
	return func(h *Hub) {
		h.key = key
	}
}
