package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procodebh/crm-console/util/metrics"
	"github.com/procodebh/crm-console/web/websocket"
)

type stubPinger struct{ err error }

func (s *stubPinger) Ping(context.Context) error { return s.err }

func TestCheckBackendJobTracksHealth(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()
	client := websocket.NewClient("c", "sid")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	pinger := &stubPinger{err: errors.New("connection refused")}
	j := NewCheckBackendJob(pinger, hub, time.Second)
	assert.True(t, j.Up())

	j.Run()
	assert.False(t, j.Up())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.BackendUp))
	select {
	case <-client.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a backend status message")
	}

	// No change, no message.
	j.Run()
	select {
	case <-client.Send:
		t.Fatal("unexpected message without a change")
	case <-time.After(50 * time.Millisecond):
	}

	pinger.err = nil
	j.Run()
	assert.True(t, j.Up())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BackendUp))
}

func TestCheckBackendJobWithoutHub(t *testing.T) {
	j := NewCheckBackendJob(&stubPinger{}, nil, 0)
	j.Run()
	assert.True(t, j.Up())
}
