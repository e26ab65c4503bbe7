// Package fibertest provides test utilities for fiberz-based code: a
// ready-to-run test Runtime and a configurable mock fiber operation.
package fibertest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/fiberz"
)

// NewRuntime builds and starts a fiberz.Runtime backed by a FakeClock,
// registering a cleanup hook that stops it when the test ends.
func NewRuntime(t *testing.T, cfg fiberz.Config) (*fiberz.Runtime, *clockz.FakeClock) {
	t.Helper()
	clk := clockz.NewFakeClock()
	cfg.Clock = clk
	rt := fiberz.New(cfg)
	rt.Start(context.Background())
	t.Cleanup(rt.Stop)
	return rt, clk
}

// MockOp is a configurable operation of the shape combinators and
// resilience helpers (Retry, CircuitBreaker, Race, ...) expect:
// func(context.Context) (T, error). It tracks every call and can be
// configured to fail, delay, or return a fixed value.
type MockOp[T any] struct {
	mu         sync.RWMutex
	returnVal  T
	returnErr  error
	delay      time.Duration
	callCount  atomic.Int64
	failsUntil int64
}

// NewMockOp returns a MockOp that succeeds immediately with the zero
// value of T until configured otherwise.
func NewMockOp[T any]() *MockOp[T] {
	return &MockOp[T]{}
}

// WithReturn configures the value and error every call returns.
func (m *MockOp[T]) WithReturn(val T, err error) *MockOp[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnVal, m.returnErr = val, err
	return m
}

// WithDelay makes every call sleep d (via fiberz.SleepFor, so it must be
// invoked from inside a fiber) before returning.
func (m *MockOp[T]) WithDelay(d time.Duration) *MockOp[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// FailFirst configures the first n calls to return err, then succeed with
// whatever WithReturn set (or the zero value).
func (m *MockOp[T]) FailFirst(n int64, err error) *MockOp[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failsUntil = n
	m.returnErr = err
	return m
}

// Calls returns how many times Op has been invoked so far.
func (m *MockOp[T]) Calls() int64 { return m.callCount.Load() }

// Op is the func(context.Context) (T, error) value to pass to
// combinators/resilience helpers.
func (m *MockOp[T]) Op(ctx context.Context) (T, error) {
	n := m.callCount.Add(1)

	m.mu.RLock()
	delay := m.delay
	val := m.returnVal
	err := m.returnErr
	failsUntil := m.failsUntil
	m.mu.RUnlock()

	if delay > 0 {
		fiberz.SleepFor(ctx, delay)
	}
	if n <= failsUntil {
		return val, err
	}
	if failsUntil > 0 {
		// Past the configured failure window: succeed with no error even
		// if WithReturn also set one, matching FailFirst's "then succeed"
		// contract.
		return val, nil
	}
	return val, err
}
