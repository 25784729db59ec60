package ws

import (
	"context"
	"sync"

	"github.com/kbukum/wskit/httpclient"
	"github.com/kbukum/wskit/logger"
	"github.com/kbukum/wskit/provider"
)

// Executor runs request snapshots asynchronously. *httpclient.Engine
// implements it.
type Executor interface {
	ExecuteRequest(ctx context.Context, req *httpclient.Request, h httpclient.CompletionHandler) error
}

var _ Executor = (*httpclient.Engine)(nil)

var (
	clientMu sync.Mutex
	client   Executor
)

// Client returns the process-wide engine, creating one with default
// configuration on first use.
func Client() Executor {
	clientMu.Lock()
	defer clientMu.Unlock()
	if client == nil {
		client = newDefaultClient()
	}
	return client
}

// SetClient installs e as the process-wide engine and returns the previous
// one, which may be nil. The caller owns closing the previous engine.
func SetClient(e Executor) Executor {
	clientMu.Lock()
	defer clientMu.Unlock()
	prev := client
	client = e
	return prev
}

// CloseClient removes the process-wide engine and closes it if it can be
// closed. The next Client call creates a fresh one.
func CloseClient(ctx context.Context) error {
	prev := SetClient(nil)
	if prev == nil {
		return nil
	}
	return provider.CloseIfCloseable(ctx, prev)
}

func newDefaultClient() Executor {
	e, err := httpclient.NewEngine(httpclient.Config{})
	if err != nil {
		logger.Get("ws").Error("failed to create default engine", logger.ErrorFields("new_engine", err))
		return failedExecutor{err: err}
	}
	return e
}

// failedExecutor rejects every submission with the engine creation error.
type failedExecutor struct {
	err error
}

func (f failedExecutor) ExecuteRequest(context.Context, *httpclient.Request, httpclient.CompletionHandler) error {
	return f.err
}
