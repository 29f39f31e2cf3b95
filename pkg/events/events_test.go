package events_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabhost/docsession.go/pkg/events"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := events.NewBus(nil)

	first := bus.Subscribe("html-documents_showApp")
	defer first.Close()
	second := bus.Subscribe("html-documents_showApp")
	defer second.Close()
	other := bus.Subscribe("html-documents_hideApp")
	defer other.Close()

	bus.Publish("html-documents_showApp", []byte(`{"x":1}`))

	for _, sub := range []interface{ C() <-chan events.Event }{first, second} {
		select {
		case ev := <-sub.C():
			assert.Equal(t, "html-documents_showApp", ev.Topic)
			assert.JSONEq(t, `{"x":1}`, string(ev.Data))
		case <-time.After(time.Second):
			t.Fatal("expected delivery")
		}
	}

	select {
	case <-other.C():
		t.Fatal("unrelated topic must not be delivered")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestClosedSubscriptionReceivesNothing(t *testing.T) {
	bus := events.NewBus(nil)

	sub := bus.Subscribe("appClosed")
	sub.Close()
	sub.Close() // idempotent

	bus.Publish("appClosed", nil)

	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := events.NewBus(nil)

	sub := bus.Subscribe("noisy")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// nobody drains sub: overflow must be dropped, not block
		for i := 0; i < 100; i++ {
			bus.Publish("noisy", nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestFeedRepublishesHostFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frames := []string{
		`{"type":"html-documents_reloadContent","data":{"label":"pushed"}}`,
		`{"type":"html-documents_hideApp"}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, frame := range frames {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		}
		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	bus := events.NewBus(nil)
	reload := bus.Subscribe("html-documents_reloadContent")
	defer reload.Close()
	hide := bus.Subscribe("html-documents_hideApp")
	defer hide.Close()

	wsURL := fmt.Sprintf("ws%s", strings.TrimPrefix(server.URL, "http"))
	feed, err := events.NewFeed(wsURL, bus, nil)
	require.NoError(t, err)
	defer feed.Close()

	select {
	case ev := <-reload.C():
		assert.JSONEq(t, `{"label":"pushed"}`, string(ev.Data))
	case <-time.After(time.Second):
		t.Fatal("expected reload frame on the bus")
	}

	select {
	case ev := <-hide.C():
		assert.Equal(t, "html-documents_hideApp", ev.Topic)
		assert.Empty(t, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("expected hide frame on the bus")
	}
}
