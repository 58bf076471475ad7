package gnss

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ubxgnss/internal/ubx"
)

// ServiceConfig controls the owner loop.
//
// All fields are optional.
type ServiceConfig struct {
	// Configure applies the Variant configuration after boot.
	Configure bool
	// UpdateTimeout bounds each drain. Defaults to 100ms.
	UpdateTimeout time.Duration
	// Idle is the pause after a drain that read nothing. Defaults to 50ms.
	Idle time.Duration
	// AntennaEvery polls MON-HW at this interval. Zero disables polling.
	AntennaEvery time.Duration
}

type Snapshot struct {
	Enabled bool   `json:"enabled"`
	Ready   bool   `json:"ready"`
	Variant string `json:"variant"`
	Boot    string `json:"boot"`

	State    State       `json:"state"`
	Firmware ubx.Version `json:"firmware"`

	Messages   uint64 `json:"messages"`
	LastUpdate string `json:"last_update_utc,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// Service owns a Device in one goroutine and publishes Snapshots. The Device
// must not be used directly while the Service runs.
type Service struct {
	dev *Device
	cfg ServiceConfig
	log *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last     atomic.Value // Snapshot
	messages atomic.Uint64

	mu sync.Mutex
}

func NewService(dev *Device, cfg ServiceConfig, log *zap.Logger) *Service {
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = 100 * time.Millisecond
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 50 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{dev: dev, cfg: cfg, log: log}
	s.last.Store(Snapshot{Enabled: dev != nil, Variant: s.variantName(), Boot: Idle.String(), State: newState()})
	return s
}

func (s *Service) variantName() string {
	if s.dev == nil {
		return ""
	}
	return s.dev.Variant().Name()
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gnss service is nil")
	}
	if s.dev == nil {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(childCtx)
	}()
	return nil
}

func (s *Service) run(ctx context.Context) {
	backoff := 250 * time.Millisecond
	maxBackoff := 10 * time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.dev.Begin(s.cfg.Configure)
		if err == nil {
			break
		}
		s.setError(fmt.Sprintf("receiver bring-up failed: %v", err))
		if !wait(ctx, backoff) {
			return
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
	s.log.Info("gnss ready", zap.String("variant", s.variantName()))
	s.publish()

	var lastAntenna time.Time
	for {
		if ctx.Err() != nil {
			return
		}
		n := s.dev.Update(s.cfg.UpdateTimeout)
		s.messages.Add(uint64(n))

		if s.cfg.AntennaEvery > 0 && time.Since(lastAntenna) >= s.cfg.AntennaEvery {
			s.dev.AntennaPowerStatus()
			lastAntenna = time.Now()
		}
		if n > 0 {
			s.publish()
			continue
		}
		if !wait(ctx, s.cfg.Idle) {
			return
		}
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Service) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.Snapshot()
	cur.Ready = s.dev.BootState() == Ready
	cur.Boot = s.dev.BootState().String()
	cur.State = s.dev.State()
	cur.Firmware = s.dev.Firmware()
	cur.Messages = s.messages.Load()
	cur.LastUpdate = time.Now().UTC().Format(time.RFC3339Nano)
	s.last.Store(cur)
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.Snapshot()
	cur.LastError = msg
	s.last.Store(cur)
	s.log.Warn("gnss", zap.String("error", msg))
}
