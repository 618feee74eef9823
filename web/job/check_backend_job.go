// Package job provides the console's scheduled background jobs.
package job

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/metrics"
	"github.com/procodebh/crm-console/web/websocket"
)

// Pinger probes the backend API.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckBackendJob probes the backend API and tells open tabs when its
// reachability changes.
type CheckBackendJob struct {
	backend Pinger
	hub     *websocket.Hub
	timeout time.Duration

	up      atomic.Bool
	checked atomic.Bool
}

// NewCheckBackendJob creates the job. hub may be nil.
func NewCheckBackendJob(backend Pinger, hub *websocket.Hub, timeout time.Duration) *CheckBackendJob {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	j := &CheckBackendJob{backend: backend, hub: hub, timeout: timeout}
	j.up.Store(true)
	return j
}

// Up reports the result of the last probe. Before the first probe the
// backend is assumed up.
func (j *CheckBackendJob) Up() bool {
	return j.up.Load()
}

// Run probes the backend once.
func (j *CheckBackendJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.backend.Ping(ctx)
	up := err == nil
	if up {
		metrics.BackendUp.Set(1)
	} else {
		metrics.BackendUp.Set(0)
	}

	first := !j.checked.Swap(true)
	prev := j.up.Swap(up)
	if !first && prev == up {
		return
	}
	if up {
		logger.Info("backend API is reachable")
	} else {
		logger.Warning("backend API is unreachable:", err)
	}
	j.hub.Broadcast(websocket.MessageTypeBackend, websocket.BackendPayload{Up: up})
}
