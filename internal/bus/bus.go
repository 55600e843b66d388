package bus

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrUnknownTopic = errors.New("unknown topic")
	ErrQueueFull    = errors.New("partition queue full")
	ErrClosed       = errors.New("bus closed")
)

type Topic string

const (
	TopicMarketHealth Topic = "market.analysis.health"
	TopicTradeLogs    Topic = "trade.execution.logs"
	TopicAuditTraces  Topic = "system.audit.traces"
)

// TopicSpec is the static channel table: name plus a short schema note.
// Topics are fixed at build time; there is no runtime topic registration.
type TopicSpec struct {
	Name   Topic
	Schema string
}

var Topics = map[Topic]TopicSpec{
	TopicMarketHealth: {Name: TopicMarketHealth, Schema: "market health payload {timestamp, asset_id, volatility_score, trend, anomaly_detected, recommended_strategy, confidence}"},
	TopicTradeLogs:    {Name: TopicTradeLogs, Schema: "trade decision payload {assetId, action, amountAllocated, executionPrice, strategyUsed, cvarExposure} or denial text"},
	TopicAuditTraces:  {Name: TopicAuditTraces, Schema: "free-form trace forwarded for oversight evaluation"},
}

type Event struct {
	ID        string    `json:"id"`
	Topic     Topic     `json:"topic"`
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// subscription fans events out to one consumer group. Each partition has its
// own buffered channel drained by a single goroutine, so order holds within a
// partition but not across partitions.
type subscription struct {
	group      string
	partitions []chan Event
}

type Bus struct {
	mu         sync.RWMutex
	subs       map[Topic][]*subscription
	partitions int
	buffer     int
	closed     bool
	wg         sync.WaitGroup
	entropy    *ulid.MonotonicEntropy
	entropyMu  sync.Mutex
}

func New(partitions, buffer int) *Bus {
	if partitions <= 0 {
		partitions = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{
		subs:       make(map[Topic][]*subscription),
		partitions: partitions,
		buffer:     buffer,
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (b *Bus) newEventID() string {
	b.entropyMu.Lock()
	defer b.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

func (b *Bus) partition(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % b.partitions
}

// Publish delivers the payload to every subscriber of the topic. Delivery is
// non-blocking: a full partition queue fails the publish instead of stalling
// the publishing stage.
func (b *Bus) Publish(topic Topic, key string, payload []byte) (Event, error) {
	if _, ok := Topics[topic]; !ok {
		return Event{}, ErrUnknownTopic
	}
	evt := Event{
		ID:        b.newEventID(),
		Topic:     topic,
		Key:       key,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return Event{}, ErrClosed
	}
	p := b.partition(key)
	for _, sub := range b.subs[topic] {
		select {
		case sub.partitions[p] <- evt:
		default:
			return evt, ErrQueueFull
		}
	}
	return evt, nil
}

// Subscribe attaches a consumer group to a topic. The handler runs on one
// goroutine per partition until ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic Topic, group string, handler func(Event)) error {
	if _, ok := Topics[topic]; !ok {
		return ErrUnknownTopic
	}
	sub := &subscription{group: group, partitions: make([]chan Event, b.partitions)}
	for i := range sub.partitions {
		sub.partitions[i] = make(chan Event, b.buffer)
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	for i := range sub.partitions {
		ch := sub.partitions[i]
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case evt, ok := <-ch:
					if !ok {
						return
					}
					handler(evt)
				}
			}
		}()
	}
	return nil
}

// Depth reports the number of undelivered events buffered for a topic across
// all subscribers and partitions.
func (b *Bus) Depth(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, sub := range b.subs[topic] {
		for _, ch := range sub.partitions {
			total += len(ch)
		}
	}
	return total
}

func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			for _, ch := range sub.partitions {
				close(ch)
			}
		}
	}
	b.mu.Unlock()
	b.wg.Wait()
}
