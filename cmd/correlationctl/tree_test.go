package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/pkg/client"
	"github.com/diwise/alarm-correlation/pkg/types"
)

func TestTreePrintsForest(t *testing.T) {
	is := is.New(t)
	out := &bytes.Buffer{}

	err := runTree(context.Background(), newFakeSource(), correlation.DefaultConfig(), "A", out)
	is.NoErr(err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(3, len(lines))
	is.True(strings.HasPrefix(lines[0], "*link down [ROOT]"))
	is.True(strings.HasPrefix(lines[1], "   port flapping [SYMPTOM]"))
	is.True(strings.HasPrefix(lines[2], "     packet loss"))
}

func TestTreeShowsRootCause(t *testing.T) {
	is := is.New(t)
	out := &bytes.Buffer{}

	err := runTree(context.Background(), newFakeSource(), correlation.DefaultConfig(), "B", out)
	is.NoErr(err)
	is.True(strings.HasPrefix(out.String(), "Root cause: link down (A)"))
}

func TestTreeStripsControlCharacters(t *testing.T) {
	is := is.New(t)
	out := &bytes.Buffer{}

	src := newFakeSource()
	src.alarms = append(src.alarms, types.Alarm{ID: "D", Name: "evil\x1b[2Jname", ParentID: types.StringRef("C")})

	err := runTree(context.Background(), src, correlation.DefaultConfig(), "A", out)
	is.NoErr(err)
	is.True(!strings.Contains(out.String(), "\x1b"))
	is.True(strings.Contains(out.String(), "evil[2Jname"))
}

func TestTreeOfUnknownAlarm(t *testing.T) {
	is := is.New(t)

	err := runTree(context.Background(), newFakeSource(), correlation.DefaultConfig(), "nosuchalarm", &bytes.Buffer{})
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "does not exist"))
}

func TestTreeFailsWhenSeedQueryFails(t *testing.T) {
	is := is.New(t)

	src := newFakeSource()
	src.failParentQueries = true

	err := runTree(context.Background(), src, correlation.DefaultConfig(), "A", &bytes.Buffer{})
	is.True(errors.Is(err, correlation.ErrSeedQueryFailed))
}

func TestUncorrelatedAlarm(t *testing.T) {
	is := is.New(t)
	out := &bytes.Buffer{}

	err := runTree(context.Background(), newFakeSource(), correlation.DefaultConfig(), "lonely", out)
	is.NoErr(err)
	is.True(strings.Contains(out.String(), "No correlation data"))
}

func TestGetCommand(t *testing.T) {
	is := is.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/alarms/A" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"A","name":"link down","severity":5,"state":1,"isRoot":true}`))
	}))
	defer s.Close()

	out := &bytes.Buffer{}
	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"get", "A", "--url", s.URL, "-o", "table"})

	is.NoErr(cmd.ExecuteContext(context.Background()))
	is.True(strings.Contains(out.String(), "Critical"))

	cmd = rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"get", "B", "--url", s.URL})
	is.True(cmd.ExecuteContext(context.Background()) != nil)
}

type fakeSource struct {
	alarms            []types.Alarm
	failParentQueries bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		alarms: []types.Alarm{
			{ID: "A", Name: "link down", IsRoot: true, Severity: types.SeverityCritical},
			{ID: "B", Name: "port flapping", ParentID: types.StringRef("A")},
			{ID: "C", Name: "packet loss", ParentID: types.StringRef("B")},
			{ID: "lonely", Name: "uncorrelated"},
		},
	}
}

func (f *fakeSource) GetAlarm(ctx context.Context, alarmID string) (types.Alarm, error) {
	for _, a := range f.alarms {
		if a.ID == alarmID {
			return a, nil
		}
	}
	return types.Alarm{}, client.ErrNotFound
}

func (f *fakeSource) FindByID(ctx context.Context, alarmID string) ([]types.Alarm, error) {
	a, err := f.GetAlarm(ctx, alarmID)
	if err != nil {
		return []types.Alarm{}, nil
	}
	return []types.Alarm{a}, nil
}

func (f *fakeSource) FindByParentID(ctx context.Context, parentID string) ([]types.Alarm, error) {
	if f.failParentQueries {
		return nil, client.ErrUnavailable
	}

	result := []types.Alarm{}
	for _, a := range f.alarms {
		if a.ParentIs(parentID) {
			result = append(result, a)
		}
	}
	return result, nil
}
