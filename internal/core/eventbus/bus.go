package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus delivers typed events to subscribers from a single consumer
// goroutine. Publishing never blocks: when the buffer is full the event
// is dropped and the drop hooks fire.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// DefaultBufferSize is a reasonable buffer for interactive workloads.
const DefaultBufferSize = 64

// New creates an event bus with the given buffer size.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start consumes and dispatches events until the context is cancelled.
// Subscriber panics are recovered and reported through the panic hooks.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

// send enqueues an event and fires hooks. Used by the typed Publish
// methods.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.runOnPublish(event, payload)
	default:
		bus.runOnDrop(event, payload)
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

// PublishAlarmStopped publishes an alarm.stopped event.
func (bus *EventBus) PublishAlarmStopped(p AlarmStoppedPayload) {
	bus.send(EventAlarmStopped, p)
}

// SubscribeAlarmStopped registers a subscriber for alarm.stopped events.
func (bus *EventBus) SubscribeAlarmStopped(fn func(AlarmStoppedPayload)) {
	bus.subscribe(EventAlarmStopped, func(p any) { fn(p.(AlarmStoppedPayload)) })
}

// PublishNotificationDelivered publishes a notification.delivered event.
func (bus *EventBus) PublishNotificationDelivered(p NotificationDeliveredPayload) {
	bus.send(EventNotificationDelivered, p)
}

// SubscribeNotificationDelivered registers a subscriber for
// notification.delivered events.
func (bus *EventBus) SubscribeNotificationDelivered(fn func(NotificationDeliveredPayload)) {
	bus.subscribe(EventNotificationDelivered, func(p any) { fn(p.(NotificationDeliveredPayload)) })
}

// PublishNotificationScheduled publishes a notification.scheduled event.
func (bus *EventBus) PublishNotificationScheduled(p NotificationScheduledPayload) {
	bus.send(EventNotificationScheduled, p)
}

// SubscribeNotificationScheduled registers a subscriber for
// notification.scheduled events.
func (bus *EventBus) SubscribeNotificationScheduled(fn func(NotificationScheduledPayload)) {
	bus.subscribe(EventNotificationScheduled, func(p any) { fn(p.(NotificationScheduledPayload)) })
}

// PublishNotificationSuppressed publishes a notification.suppressed event.
func (bus *EventBus) PublishNotificationSuppressed(p NotificationSuppressedPayload) {
	bus.send(EventNotificationSuppressed, p)
}

// SubscribeNotificationSuppressed registers a subscriber for
// notification.suppressed events.
func (bus *EventBus) SubscribeNotificationSuppressed(fn func(NotificationSuppressedPayload)) {
	bus.subscribe(EventNotificationSuppressed, func(p any) { fn(p.(NotificationSuppressedPayload)) })
}

// PublishSweepCompleted publishes a sweep.completed event.
func (bus *EventBus) PublishSweepCompleted(p SweepCompletedPayload) {
	bus.send(EventSweepCompleted, p)
}

// SubscribeSweepCompleted registers a subscriber for sweep.completed events.
func (bus *EventBus) SubscribeSweepCompleted(fn func(SweepCompletedPayload)) {
	bus.subscribe(EventSweepCompleted, func(p any) { fn(p.(SweepCompletedPayload)) })
}
