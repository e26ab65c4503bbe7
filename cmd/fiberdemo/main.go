// Command fiberdemo exercises a fiberz.Runtime end to end: plain fibers,
// a shared Mutex, a periodic timer, a bounded WorkerPool and a Retry
// against a flaky dependency.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zoobzio/fiberz"
)

func main() {
	groups := flag.Int("groups", 2, "number of scheduling groups")
	workers := flag.Int("workers", 4, "workers per group")
	flag.Parse()

	rt := fiberz.New(fiberz.Config{
		Groups:          *groups,
		WorkersPerGroup: *workers,
	})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	runGreeting(rt, ctx)
	runCounter(rt, ctx)
	runTimer(rt, ctx)
	runWorkerPool(rt, ctx)
	runRetry(rt, ctx)
}

func runGreeting(rt *fiberz.Runtime, ctx context.Context) {
	done := make(chan struct{})
	rt.Spawn(ctx, nil, "greeter", func(fctx context.Context) {
		fmt.Printf("fiber %d says hello from group %d\n", fiberz.Current(fctx).ID(), fiberz.GroupIndex(fctx))
		close(done)
	})
	<-done
}

func runCounter(rt *fiberz.Runtime, ctx context.Context) {
	var mu fiberz.Mutex
	counter := 0
	const fibers = 50

	latch := fiberz.NewLatch(fibers)
	for i := 0; i < fibers; i++ {
		rt.Spawn(ctx, nil, "incrementer", func(fctx context.Context) {
			mu.Lock(fctx)
			counter++
			mu.Unlock()
			latch.CountDown()
		})
	}

	done := make(chan struct{})
	rt.Spawn(ctx, nil, "joiner", func(fctx context.Context) {
		latch.Wait(fctx)
		close(done)
	})
	<-done
	fmt.Printf("counter after %d fibers: %d\n", fibers, counter)
}

func runTimer(rt *fiberz.Runtime, ctx context.Context) {
	g := rt.Group(0)
	var ticks atomic.Int32
	done := make(chan struct{})
	timer := g.Every(20*time.Millisecond, func(fctx context.Context) {
		n := ticks.Add(1)
		fmt.Printf("tick %d\n", n)
		if n >= 3 {
			close(done)
		}
	})
	<-done
	timer.Cancel()
}

func runWorkerPool(rt *fiberz.Runtime, ctx context.Context) {
	pool := fiberz.NewWorkerPool(rt, nil, 3)
	var processed atomic.Int32

	done := make(chan struct{})
	rt.Spawn(ctx, nil, "dispatcher", func(fctx context.Context) {
		for i := 0; i < 12; i++ {
			pool.Submit(fctx, "batch-item", func(ictx context.Context) {
				fiberz.SleepFor(ictx, time.Millisecond)
				processed.Add(1)
			})
		}
		pool.Wait(fctx)
		close(done)
	})
	<-done
	fmt.Printf("worker pool processed %d items\n", processed.Load())
}

func runRetry(rt *fiberz.Runtime, ctx context.Context) {
	var calls atomic.Int32
	flaky := func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("connection reset")
		}
		return nil
	}

	done := make(chan error)
	rt.Spawn(ctx, nil, "retrier", func(fctx context.Context) {
		done <- fiberz.Retry(fctx, fiberz.RetryOptions{
			MaxAttempts: 5,
			BaseDelay:   5 * time.Millisecond,
			MaxDelay:    50 * time.Millisecond,
		}, flaky)
	})

	if err := <-done; err != nil {
		fmt.Printf("retry gave up: %v\n", err)
		return
	}
	fmt.Printf("retry succeeded after %d calls\n", calls.Load())
}
