package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/msp-agents/msp/internal/errors"
	"github.com/msp-agents/msp/internal/logging"
)

// ClarificationRequest is the body a worker POSTs when it needs an
// answer before it can finish its subtask.
type ClarificationRequest struct {
	NeedClarification bool   `json:"need_clarification"`
	Question          string `json:"question"`
}

// Listener is the control-plane HTTP endpoint workers send
// clarification requests to. It binds the first free port in a
// configured range and queues requests in arrival order.
type Listener struct {
	portStart int
	portEnd   int
	logger    *logging.Logger

	mu      sync.Mutex
	queue   []ClarificationRequest
	ln      net.Listener
	server  *http.Server
	started bool
}

// NewListener creates a Listener that will probe ports
// [portStart, portEnd] on loopback.
func NewListener(portStart, portEnd int, logger *logging.Logger) *Listener {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Listener{portStart: portStart, portEnd: portEnd, logger: logger}
}

// Start binds a port and begins serving. Ports are probed in ascending
// order so the chosen port is predictable; when every port in the range
// is taken Start fails with ErrPortExhaustion.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return errors.Wrap(errors.ErrInvalidInput, "listener already started")
	}

	var ln net.Listener
	var lastErr error
	for port := l.portStart; port <= l.portEnd; port++ {
		var err error
		ln, err = net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			break
		}
		lastErr = err
		ln = nil
	}
	if ln == nil {
		return errors.Wrapf(errors.ErrPortExhaustion,
			"no free port in %d-%d (last error: %v)", l.portStart, l.portEnd, lastErr)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handleClarification)

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	l.ln = ln
	l.server = server
	l.started = true

	// The goroutine must not re-read l.server: Stop nils the field
	// concurrently, and Serve on a nil server panics.
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.logger.Error("clarification listener stopped", "error", err)
		}
	}()

	l.logger.Info("clarification listener started", "endpoint", l.endpointLocked())
	return nil
}

// Stop shuts the server down, waiting for in-flight requests.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	server := l.server
	l.server = nil
	l.ln = nil
	l.started = false
	l.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Endpoint returns the URL workers should POST to, or "" before Start.
func (l *Listener) Endpoint() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.endpointLocked()
}

func (l *Listener) endpointLocked() string {
	if l.ln == nil {
		return ""
	}
	return fmt.Sprintf("http://%s", l.ln.Addr().String())
}

// Port returns the bound port, or 0 before Start.
func (l *Listener) Port() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return 0
	}
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Drain removes and returns all queued requests in arrival order.
func (l *Listener) Drain() []ClarificationRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	queued := l.queue
	l.queue = nil
	return queued
}

// Pending returns the number of queued requests without removing them.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Listener) handleClarification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClarificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.logger.Warn("malformed clarification request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, req)
	l.mu.Unlock()

	l.logger.Info("clarification request queued", "question", req.Question)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}
