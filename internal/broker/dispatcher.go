package broker

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrDispatchQueueFull = errors.New("dispatch queue full")

// Dispatcher is a bounded handoff between the decision stage and the broker.
// Enqueue never blocks the caller; a single worker drains the queue so a slow
// or failing broker cannot stall the pipeline, and every outcome is logged
// instead of discarded.
type Dispatcher struct {
	adapter Adapter
	queue   chan OrderRequest
	wg      sync.WaitGroup

	mu        sync.Mutex
	dispatched int64
	failed     int64
}

func NewDispatcher(adapter Adapter, size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{adapter: adapter, queue: make(chan OrderRequest, size)}
}

func (d *Dispatcher) Enqueue(req OrderRequest) error {
	select {
	case d.queue <- req:
		return nil
	default:
		return ErrDispatchQueueFull
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-d.queue:
				if !ok {
					return
				}
				resp, err := d.adapter.PlaceOrder(ctx, req)
				d.mu.Lock()
				if err != nil || !resp.Success {
					d.failed++
				} else {
					d.dispatched++
				}
				d.mu.Unlock()
				if err != nil {
					log.Printf("[Dispatcher] order dispatch failed for %s: %v", req.Symbol, err)
					continue
				}
				if !resp.Success {
					log.Printf("[Dispatcher] broker rejected order for %s: %s", req.Symbol, resp.Message)
					continue
				}
				log.Printf("[Dispatcher] order dispatched for %s: %d units", req.Symbol, req.Quantity)
			}
		}
	}()
}

func (d *Dispatcher) Stats() (dispatched, failed int64, queued int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatched, d.failed, len(d.queue)
}

func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}
