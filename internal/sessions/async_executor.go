package sessions

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoadingState represents the state of an async operation
type LoadingState int

const (
	StateIdle LoadingState = iota
	StateLoadingProjects
	StateLoadingSessions
	StateLoadingMessages
	StateCancelling
	StateError
)

func (s LoadingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingProjects:
		return "loading projects"
	case StateLoadingSessions:
		return "loading sessions"
	case StateLoadingMessages:
		return "loading messages"
	case StateCancelling:
		return "cancelling"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Query is a unit of work run by the executor
type Query func(ctx context.Context) (any, error)

// Request is a submitted query
type Request struct {
	ID      string
	Type    LoadingState
	Run     Query
	Context context.Context
}

// Result is the outcome of a request that was not cancelled
type Result struct {
	RequestID string
	Type      LoadingState
	Data      any
	Err       error
}

// AsyncExecutor runs queries on a fixed set of workers and reports their
// results on a single channel
type AsyncExecutor struct {
	requests chan Request
	results  chan Result
	done     chan struct{}
	workers  int
	logger   *logrus.Logger

	mu       sync.Mutex
	contexts map[string]context.CancelFunc

	// sendMu guards closed and the requests channel against send-after-close
	sendMu    sync.RWMutex
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewAsyncExecutor creates a new async executor
func NewAsyncExecutor(workers int, logger *logrus.Logger) *AsyncExecutor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AsyncExecutor{
		requests: make(chan Request, 10),
		results:  make(chan Result, 10),
		done:     make(chan struct{}),
		workers:  workers,
		logger:   logger,
		contexts: make(map[string]context.CancelFunc),
	}
}

// Start begins processing requests
func (e *AsyncExecutor) Start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.processRequests()
		}()
	}
}

// Results delivers the results of completed requests. It is closed by Close.
func (e *AsyncExecutor) Results() <-chan Result {
	return e.results
}

// Close cancels in-flight requests, stops the workers and closes Results
func (e *AsyncExecutor) Close() {
	e.closeOnce.Do(func() {
		close(e.done)

		e.sendMu.Lock()
		e.closed = true
		close(e.requests)
		e.sendMu.Unlock()

		e.CancelAll()
		e.wg.Wait()
		close(e.results)
	})
}

func (e *AsyncExecutor) processRequests() {
	for req := range e.requests {
		e.handleRequest(req)
	}
}

func (e *AsyncExecutor) handleRequest(req Request) {
	select {
	case <-e.done:
		return
	default:
	}

	ctx, cancel := context.WithCancel(req.Context)
	e.mu.Lock()
	e.contexts[req.ID] = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.contexts, req.ID)
		e.mu.Unlock()
		cancel()
	}()

	data, err := req.Run(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		// Don't send results for cancelled requests
		e.logger.WithField("request", req.ID).Debug("request cancelled")
		return
	}

	select {
	case e.results <- Result{RequestID: req.ID, Type: req.Type, Data: data, Err: err}:
	case <-e.done:
	}
}

// Submit queues a query and returns its request ID, or "" when the executor is
// closed or ctx ends first
func (e *AsyncExecutor) Submit(ctx context.Context, queryType LoadingState, run Query) string {
	e.sendMu.RLock()
	defer e.sendMu.RUnlock()
	if e.closed {
		return ""
	}

	req := Request{
		ID:      uuid.New().String(),
		Type:    queryType,
		Run:     run,
		Context: ctx,
	}

	select {
	case e.requests <- req:
		return req.ID
	case <-ctx.Done():
		return ""
	case <-e.done:
		return ""
	}
}

// Cancel cancels a specific request
func (e *AsyncExecutor) Cancel(requestID string) {
	e.mu.Lock()
	cancel, ok := e.contexts[requestID]
	e.mu.Unlock()

	if ok {
		cancel()
	}
}

// CancelAll cancels all active requests
func (e *AsyncExecutor) CancelAll() {
	e.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(e.contexts))
	for _, cancel := range e.contexts {
		cancels = append(cancels, cancel)
	}
	e.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
