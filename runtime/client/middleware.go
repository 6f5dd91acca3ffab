package client

import (
	"context"
	"time"
)

// QueryEvent describes one statement execution passing through the
// middleware chain.
type QueryEvent struct {
	Statement string
	SQL       string
	Duration  time.Duration
	Error     error
	Start     time.Time
	End       time.Time
}

// Middleware intercepts statement executions. It must call next exactly
// once and should return its error.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// executeWithMiddleware runs exec through the configured middleware chain.
func (db *DB) executeWithMiddleware(ctx context.Context, st *Statement, exec func() error) error {
	if len(db.middlewares) == 0 {
		return exec()
	}

	event := &QueryEvent{
		Statement: st.Name,
		SQL:       st.SQL,
		Start:     time.Now(),
	}

	index := 0
	var next func() error
	next = func() error {
		if index >= len(db.middlewares) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := db.middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// TimingMiddleware reports how long each statement took.
func TimingMiddleware(onTiming func(statement string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Statement, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports every failed statement.
func ErrorMiddleware(onError func(statement string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Statement, err)
		}
		return err
	}
}
