package worker

import (
	"context"

	"loglens/internal/config"
)

// Pool bounds how many log files are read and parsed concurrently
type Pool interface {
	Acquire(ctx context.Context) error
	Release()
}

// pool implements the Pool interface
type pool struct {
	sem chan struct{}
}

// NewPool creates a worker pool sized from the configuration
func NewPool(cfg *config.Config) Pool {
	return NewPoolWithSize(cfg.Concurrency.Workers)
}

// NewPoolWithSize creates a worker pool with an explicit slot count
func NewPoolWithSize(size int) Pool {
	return &pool{
		sem: make(chan struct{}, size),
	}
}

// Acquire takes a slot, blocking until one frees or the context ends
func (p *pool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot to the pool
func (p *pool) Release() {
	<-p.sem
}
