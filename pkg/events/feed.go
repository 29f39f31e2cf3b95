package events

import (
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/collabhost/docsession.go/pkg/logger"
)

// Feed bridges a host-side live event stream onto a local Bus. The host
// pushes frames shaped like {"type": "...", "data": {...}} over a websocket;
// each frame is republished on the bus under its type as topic, so sessions
// consume remote and local events the same way.
type Feed struct {
	conn   *websocket.Conn
	bus    *Bus
	logger logger.Logger

	exit chan int
}

// NewFeed dials the host event endpoint and starts forwarding frames onto
// bus until the connection drops or Close is called.
func NewFeed(url string, bus *Bus, log logger.Logger) (*Feed, error) {
	dialer := websocket.DefaultDialer
	dialer.EnableCompression = true

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	feed := &Feed{
		conn:   conn,
		bus:    bus,
		logger: log,
		exit:   make(chan int, 1),
	}

	go feed.receive()

	return feed, nil
}

// Close stops the forwarding loop and closes the underlying connection.
func (f *Feed) Close() error {
	select {
	case f.exit <- 0:
	default:
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = f.conn.WriteMessage(websocket.CloseMessage, msg)
	return f.conn.Close()
}

// RECEIVER LOOP
func (f *Feed) receive() {
	for {
		select {
		case <-f.exit:
			return
		default:
			var ev Event
			_, data, err := f.conn.ReadMessage()
			if err != nil {
				select {
				case <-f.exit:
				default:
					if f.logger != nil {
						f.logger.Warn("event feed closed", "error", err)
					}
				}
				return
			}

			if err := json.Unmarshal(data, &ev); err != nil {
				if f.logger != nil {
					f.logger.Warn("discarding malformed event frame", "error", err)
				}
				continue
			}

			f.bus.Publish(ev.Topic, ev.Data)
		}
	}
}
