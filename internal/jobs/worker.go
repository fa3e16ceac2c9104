// Package jobs runs periodic background maintenance for the server.
package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor is one unit of periodic work. ProcessJobs is invoked once per
// tick and must honor ctx cancellation; returning an error does not stop the
// loop.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed interval until the context is
// cancelled or Stop is called.
type Worker struct {
	processor JobProcessor
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
}

// NewWorker creates a Worker ticking every interval
func NewWorker(processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		processor: processor,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the polling loop. It blocks; run it in a goroutine. A tick that
// errors is logged and the next tick proceeds normally.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.done)

	log.Printf("worker: started (interval %v)", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("worker: context cancelled")
			return
		case <-w.stop:
			log.Println("worker: stop requested")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("worker: tick failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight tick to finish
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}
