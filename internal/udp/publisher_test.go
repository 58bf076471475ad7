package udp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubxgnss/internal/gnss"
)

type fakeSender struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (s *fakeSender) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, append([]byte(nil), p...))
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestPublisher_SkipsUntilFirstUpdate(t *testing.T) {
	out := &fakeSender{}
	p := NewPublisher(out, func() gnss.Snapshot { return gnss.Snapshot{Enabled: true} }, 0, nil)
	assert.False(t, p.publishOnce())
	assert.Zero(t, out.count())
}

func TestPublisher_SendsSnapshotJSON(t *testing.T) {
	out := &fakeSender{}
	snap := gnss.Snapshot{Enabled: true, Ready: true, Variant: "gen9", Boot: "ready", Messages: 42, LastUpdate: "2024-03-14T12:30:05Z"}
	snap.State.FixQuality.Satellites = 11
	p := NewPublisher(out, func() gnss.Snapshot { return snap }, time.Second, nil)

	require.True(t, p.publishOnce())
	require.Equal(t, 1, out.count())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.sent[0], &got))
	assert.Equal(t, "gen9", got["variant"])
	assert.Equal(t, 42.0, got["messages"])
}

func TestPublisher_SendErrorIsNotFatal(t *testing.T) {
	out := &fakeSender{err: errors.New("network unreachable")}
	p := NewPublisher(out, func() gnss.Snapshot { return gnss.Snapshot{LastUpdate: "x"} }, time.Second, nil)
	assert.False(t, p.publishOnce())
	assert.False(t, p.publishOnce())
}

func TestPublisher_RunStopsOnCancel(t *testing.T) {
	out := &fakeSender{}
	p := NewPublisher(out, func() gnss.Snapshot { return gnss.Snapshot{LastUpdate: "x"} }, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return out.count() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
