// Package events carries host lifecycle events between the embedding
// application and document sessions over a process-wide topic bus.
//
// Subscriptions are explicit handles: a subscriber keeps the handle it got
// from [Bus.Subscribe] and releases it with [Subscription.Close] on teardown,
// so no listener can outlive its owner.
package events

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gofrs/uuid"

	"github.com/collabhost/docsession.go/pkg/logger"
)

// Inbound topic suffixes recognized by a session, prefixed with the app name
// as "<app>_<suffix>". TopicAppClosed is the one outbound topic and carries
// no payload.
const (
	TopicShowApp       = "showApp"
	TopicHideApp       = "hideApp"
	TopicReloadContent = "reloadContent"
	TopicAppClosed     = "appClosed"
)

// Topic builds the full topic name for an app-scoped event.
func Topic(appName, suffix string) string {
	return fmt.Sprintf("%s_%s", appName, suffix)
}

// Event is one message published on the bus. Data is the raw JSON payload;
// it may be nil for signal-only topics.
type Event struct {
	Topic string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Bus is an in-process publish/subscribe channel shared by the host and its
// embedded apps. The zero value is not usable; construct with NewBus.
type Bus struct {
	subsLock sync.RWMutex
	subs     map[string]map[string]*Subscription

	logger logger.Logger
}

func NewBus(log logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]map[string]*Subscription),
		logger: log,
	}
}

// Subscribe registers a new listener for topic. The returned handle must be
// closed by the subscriber when it no longer wants delivery.
func (b *Bus) Subscribe(topic string) *Subscription {
	id := uuid.Must(uuid.NewV4()).String()

	sub := &Subscription{
		id:    id,
		topic: topic,
		ch:    make(chan Event, subscriptionBuffer),
		bus:   b,
	}

	b.subsLock.Lock()
	defer b.subsLock.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]*Subscription)
	}
	b.subs[topic][id] = sub

	return sub
}

// Publish fans data out to every live subscriber of topic. Delivery is
// non-blocking: a subscriber whose buffer is full misses the event, which is
// logged rather than allowed to stall the publisher.
func (b *Bus) Publish(topic string, data []byte) {
	ev := Event{Topic: topic, Data: data}

	b.subsLock.RLock()
	defer b.subsLock.RUnlock()

	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- ev:
		default:
			if b.logger != nil {
				b.logger.Warn("dropping event for slow subscriber", "topic", topic, "subscription", sub.id)
			}
		}
	}
}

func (b *Bus) remove(topic, id string) {
	b.subsLock.Lock()
	defer b.subsLock.Unlock()

	if subs, ok := b.subs[topic]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.subs, topic)
		}
	}
}

const subscriptionBuffer = 16

// Subscription is one listener's handle on a topic.
type Subscription struct {
	id    string
	topic string
	ch    chan Event
	bus   *Bus
	once  sync.Once
}

// C returns the channel events are delivered on. It is closed when the
// subscription is.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Topic returns the topic this subscription listens on.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close deregisters the subscription. It is idempotent and safe to call
// concurrently with Publish; no event is delivered after Close returns.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s.topic, s.id)
		close(s.ch)
	})
}
