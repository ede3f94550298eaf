package webevents

import (
	"encoding/json"
	"net/http"

	gosse "github.com/alexandrevicenzi/go-sse"
)

const (
	EventViewRendered string = "viewRendered"
	EventWarning      string = "warning"
)

// WebEvents pushes navigation events to the browsers of GUI sessions. Every
// session listens on its own channel.
type WebEvents interface {
	Server() *gosse.Server
	Shutdown()
	Publish(channel, event string, data any) error

	ViewRendered(sessionID, viewID string)
	Warning(sessionID, message string)
}

type webEvents struct {
	s *gosse.Server
}

// New creates the event server. channelOf maps an incoming subscription to the
// session it belongs to.
func New(channelOf func(r *http.Request) string) WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{
			ChannelNameFunc: channelOf,
		}),
	}
}

func (we *webEvents) Server() *gosse.Server {
	return we.s
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

func (we *webEvents) Publish(channel, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if channel == "" || !we.s.HasChannel(channel) {
		return nil
	}

	message := gosse.NewMessage("", string(b), event)
	we.s.SendMessage(channel, message)

	return nil
}

func (we *webEvents) ViewRendered(sessionID, viewID string) {
	we.Publish(sessionID, EventViewRendered, struct {
		ViewID string `json:"viewID"`
	}{viewID})
}

func (we *webEvents) Warning(sessionID, message string) {
	we.Publish(sessionID, EventWarning, struct {
		Message string `json:"message"`
	}{message})
}
