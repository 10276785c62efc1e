package mapping

import (
	"context"
	"sync"
)

// Source is the external positioning service. Each subscription delivers
// samples until cancelled; transport errors are reported on a separate
// channel and are never fatal to the consumer.
type Source interface {
	Subscribe() (Subscription, error)
}

// Subscription is one open stream of location samples. Cancel is
// synchronous: once it returns, no further samples are delivered and both
// channels are closed.
type Subscription interface {
	Samples() <-chan GeoPoint
	Errors() <-chan error
	Cancel()
}

// DeviceStatus is the best-effort device metadata captured once at
// session start.
type DeviceStatus struct {
	AccuracyMeters float64
	BatteryPercent int
}

// DeviceInfoSource is an optional capability; implementations that cannot
// answer should return an error and callers fall back to defaults.
type DeviceInfoSource interface {
	DeviceStatus(ctx context.Context) (DeviceStatus, error)
}

const pushBuffer = 64

// PushSource is a Source fed by explicit Push calls. It backs the HTTP
// sample-ingest endpoint and the tests. Pushes never block: a subscriber
// that falls behind its buffer drops samples.
type PushSource struct {
	mu   sync.Mutex
	subs map[int]*pushSubscription
	next int
}

// NewPushSource creates a push-driven location source with no
// subscribers.
func NewPushSource() *PushSource {
	return &PushSource{subs: make(map[int]*pushSubscription)}
}

type pushSubscription struct {
	src     *PushSource
	id      int
	samples chan GeoPoint
	errs    chan error
	closed  bool
}

func (s *pushSubscription) Samples() <-chan GeoPoint { return s.samples }
func (s *pushSubscription) Errors() <-chan error     { return s.errs }

func (s *pushSubscription) Cancel() {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.src.subs, s.id)
	close(s.samples)
	close(s.errs)
}

// Subscribe opens a new stream; every subsequent Push is delivered to it.
func (p *PushSource) Subscribe() (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := &pushSubscription{
		src:     p,
		id:      p.next,
		samples: make(chan GeoPoint, pushBuffer),
		errs:    make(chan error, 1),
	}
	p.subs[p.next] = sub
	p.next++
	return sub, nil
}

// Push delivers a sample to every open subscription.
func (p *PushSource) Push(sample GeoPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		select {
		case sub.samples <- sample:
		default:
		}
	}
}

// PushError delivers a transport-level error to every open subscription.
func (p *PushSource) PushError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		select {
		case sub.errs <- err:
		default:
		}
	}
}
