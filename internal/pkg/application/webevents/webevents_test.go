package webevents

import (
	"net/http"
	"testing"

	"github.com/matryer/is"
)

func TestPublishToUnknownSessionIsIgnored(t *testing.T) {
	is := is.New(t)

	we := New(func(r *http.Request) string { return r.URL.Query().Get("session") })
	defer we.Shutdown()

	is.NoErr(we.Publish("nosuchsession", EventWarning, map[string]string{"message": "hello"}))
	is.NoErr(we.Publish("", EventViewRendered, nil))

	we.Warning("nosuchsession", "alarm does not exist")
	is.True(!we.Server().HasChannel("nosuchsession"))
}

func TestPublishFailsOnUnmarshallableData(t *testing.T) {
	is := is.New(t)

	we := New(func(r *http.Request) string { return "" })
	defer we.Shutdown()

	err := we.Publish("session", EventWarning, make(chan int))
	is.True(err != nil)
}
