package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/logger"
	"go.uber.org/multierr"
)

// DefaultQueueSize bounds the events waiting for the publish worker.
const DefaultQueueSize = 256

// queueDriver labels events dropped because the queue was full or closed.
const queueDriver = "queue"

// Notifier is the fire-and-forget surface used by the inventory services.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// FailureCounter records failed deliveries per driver.
type FailureCounter interface {
	IncNotifyFailure(driver string)
}

type queuedEvent struct {
	ctx context.Context
	evt Event
}

// Dispatcher hands events to a single background worker that publishes them
// with a deadline. Notify never waits on a broker; failures and drops are
// logged and counted instead of returned.
type Dispatcher struct {
	pub     Publisher
	topic   string
	timeout time.Duration
	logg    *logger.Logger
	metrics FailureCounter

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
	once   sync.Once
}

func NewDispatcher(pub Publisher, topic string, timeout time.Duration, logg *logger.Logger, metrics FailureCounter) *Dispatcher {
	return newDispatcher(pub, topic, timeout, logg, metrics, DefaultQueueSize)
}

func newDispatcher(pub Publisher, topic string, timeout time.Duration, logg *logger.Logger, metrics FailureCounter, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		pub:     pub,
		topic:   topic,
		timeout: timeout,
		logg:    logg,
		metrics: metrics,
		queue:   make(chan queuedEvent, queueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues evt. The request context only contributes log fields; a
// cancelled request still emits its event. A full queue drops the event.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	if d == nil || d.pub == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.report(ctx, evt, queueDriver, errors.New("dispatcher closed"))
		return
	}

	select {
	case d.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), evt: evt}:
	default:
		d.report(ctx, evt, queueDriver, errors.New("notification queue full"))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for item := range d.queue {
		d.publish(item.ctx, item.evt)
	}
}

func (d *Dispatcher) publish(ctx context.Context, evt Event) {
	pubCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.pub.Publish(pubCtx, evt)
	for _, e := range multierr.Errors(err) {
		driver := d.pub.Name()
		var pe *PublishError
		if errors.As(e, &pe) {
			driver = pe.Driver
		}
		d.report(ctx, evt, driver, e)
	}
}

func (d *Dispatcher) report(ctx context.Context, evt Event, driver string, err error) {
	if d.metrics != nil {
		d.metrics.IncNotifyFailure(driver)
	}
	if d.logg != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"driver":       driver,
			"topic":        d.topic,
			"action":       evt.Action,
			"product_name": evt.Data.ProductName,
			"error":        err.Error(),
		})
		d.logg.Warn(logCtx, "inventory.event.publish_failed")
	}
}

// Close stops accepting events, publishes what is already queued and then
// releases the underlying publisher.
func (d *Dispatcher) Close() error {
	if d == nil || d.pub == nil {
		return nil
	}
	var err error
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		<-d.done
		err = d.pub.Close()
	})
	return err
}
