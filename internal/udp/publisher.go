package udp

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ubxgnss/internal/gnss"
)

type sender interface {
	Send(payload []byte) error
}

// Publisher sends the latest receiver snapshot as one JSON datagram per
// interval. Nothing is sent until the receiver has published a state.
type Publisher struct {
	out      sender
	snapshot func() gnss.Snapshot
	interval time.Duration
	log      *zap.Logger
	noisy    rate.Sometimes
}

func NewPublisher(out sender, snapshot func() gnss.Snapshot, interval time.Duration, log *zap.Logger) *Publisher {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		out:      out,
		snapshot: snapshot,
		interval: interval,
		log:      log,
		noisy:    rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishOnce()
		}
	}
}

func (p *Publisher) publishOnce() bool {
	snap := p.snapshot()
	if snap.LastUpdate == "" {
		return false
	}
	b, err := json.Marshal(snap)
	if err != nil {
		p.log.Error("encode snapshot", zap.Error(err))
		return false
	}
	if err := p.out.Send(b); err != nil {
		p.noisy.Do(func() { p.log.Warn("udp send failed", zap.Error(err)) })
		return false
	}
	return true
}
