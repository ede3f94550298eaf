package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/matryer/is"

	"github.com/diwise/alarm-correlation/internal/pkg/application/alarms"
	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/alarm-correlation/internal/pkg/presentation/api/auth"
	"github.com/diwise/alarm-correlation/pkg/types"
)

func TestHealth(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/health", "", nil)
	is.Equal(http.StatusNoContent, resp.StatusCode)
}

func TestThatRequestWithoutTokenIsUnauthorized(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/alarms/A", "", nil)
	is.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestThatGetUnknownAlarmReturns404(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/alarms/nosuchalarm", testToken, nil)
	is.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestThatGetKnownAlarmReturns200(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/alarms/B", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)

	a := types.Alarm{}
	is.NoErr(json.Unmarshal([]byte(body), &a))
	is.True(a.ParentIs("A"))
}

func TestThatAlarmsOfOtherTenantsAreHidden(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/alarms/secret", testToken, nil)
	is.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestQueryByParentID(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/alarms?parentID=A", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)

	result := []types.Alarm{}
	is.NoErr(json.Unmarshal([]byte(body), &result))
	is.Equal(1, len(result))
	is.Equal("B", result[0].ID)
}

func TestThatQueryWithBothFiltersIsRejected(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/alarms?parentID=A&id=B", testToken, nil)
	is.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestListAlarmsIsPaged(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/alarms?limit=2", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)

	response := struct {
		Meta  meta          `json:"meta"`
		Data  []types.Alarm `json:"data"`
		Links links         `json:"links"`
	}{}
	is.NoErr(json.Unmarshal([]byte(body), &response))

	is.Equal(uint64(4), response.Meta.TotalRecords)
	is.Equal(2, len(response.Data))
	is.True(response.Links.Next != nil)
	is.True(response.Links.Prev == nil)
}

func TestCorrelation(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/alarms/A/correlation", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)

	c := types.Correlation{}
	is.NoErr(json.Unmarshal([]byte(body), &c))

	is.Equal("A", c.FocusID)
	is.Equal(1, len(c.Roots))
	is.Equal(types.RoleRoot, c.Roots[0].Role)
	is.True(c.Roots[0].IsFocused)
	is.Equal("B", c.Roots[0].Children[0].Alarm.ID)
	is.Equal(types.RoleSymptom, c.Roots[0].Children[0].Role)
	is.Equal("C", c.Roots[0].Children[0].Children[0].Alarm.ID)
}

func TestCorrelationWithDepth(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/alarms/A/correlation?depth=1", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)

	c := types.Correlation{}
	is.NoErr(json.Unmarshal([]byte(body), &c))
	is.Equal(0, len(c.Roots[0].Children[0].Children))

	resp, _ = testRequest(is, server, http.MethodGet, "/api/v0/alarms/A/correlation?depth=zero", testToken, nil)
	is.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestThatDepthAndPageSizeAreCapped(t *testing.T) {
	is := is.New(t)

	d, err := depth(httptest.NewRequest(http.MethodGet, "/?depth=1000000", nil), 10)
	is.NoErr(err)
	is.Equal(maxDepth, d)

	d, err = depth(httptest.NewRequest(http.MethodGet, "/", nil), 10)
	is.NoErr(err)
	is.Equal(10, d)

	_, limit, err := paging(httptest.NewRequest(http.MethodGet, "/?limit=1000000", nil))
	is.NoErr(err)
	is.Equal(maxPageSize, limit)

	_, _, err = paging(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil))
	is.True(err != nil)
}

func TestCorrelationOfUncorrelatedAlarmIsEmpty(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/alarms/lonely/correlation", testToken, nil)
	is.Equal(http.StatusNoContent, resp.StatusCode)
}

func TestThatFailedSeedQueryIsBadGateway(t *testing.T) {
	is := is.New(t)
	w := httptest.NewRecorder()

	target := &responseTarget{w: w, r: httptest.NewRequest(http.MethodGet, "/", nil)}
	is.True(target.Attached())

	target.RenderError(fmt.Errorf("%w A: %w", correlation.ErrSeedQueryFailed, errors.New("connection refused")))
	is.Equal(http.StatusBadGateway, w.Code)
}

func TestCreateAlarmFromJSON(t *testing.T) {
	is, server, pub := testSetup(t)

	body := `{"id":"D","name":"disk full","severity":4,"state":1,"parentID":"C","tenant":"default"}`
	resp, _ := testRequest(is, server, http.MethodPost, "/api/v0/alarms", testToken, strings.NewReader(body))
	is.Equal(http.StatusCreated, resp.StatusCode)
	is.Equal(1, len(pub.PublishOnTopicCalls()))

	resp, _ = testRequest(is, server, http.MethodGet, "/api/v0/alarms/D", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)
}

func TestCreateAlarmFromCloudEvent(t *testing.T) {
	is, server, _ := testSetup(t)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v0/alarms", strings.NewReader(`{"id":"E","name":"fan failure","isRoot":true,"tenant":"default"}`))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ce-Specversion", "1.0")
	req.Header.Set("Ce-Id", "c6a9f2a8-7b6d-4c66-a2b5-8e6b1d2d4f11")
	req.Header.Set("Ce-Source", "alarm-manager")
	req.Header.Set("Ce-Type", "alarms.alarmRaised")

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	resp.Body.Close()
	is.Equal(http.StatusCreated, resp.StatusCode)

	resp, _ = testRequest(is, server, http.MethodGet, "/api/v0/alarms/E", testToken, nil)
	is.Equal(http.StatusOK, resp.StatusCode)
}

func TestCreateAlarmForOtherTenantIsForbidden(t *testing.T) {
	is, server, _ := testSetup(t)

	body := `{"id":"F","isRoot":true,"tenant":"secret"}`
	resp, _ := testRequest(is, server, http.MethodPost, "/api/v0/alarms", testToken, strings.NewReader(body))
	is.Equal(http.StatusForbidden, resp.StatusCode)
}

func TestClearAlarm(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodPatch, "/api/v0/alarms/B", testToken, nil)
	is.Equal(http.StatusNoContent, resp.StatusCode)

	_, body := testRequest(is, server, http.MethodGet, "/api/v0/alarms/B", testToken, nil)
	a := types.Alarm{}
	is.NoErr(json.Unmarshal([]byte(body), &a))
	is.Equal(types.StateCleared, a.State)
}

func testRequest(is *is.I, ts *httptest.Server, method, path, token string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp, string(respBody)
}

func testSetup(t *testing.T) (*is.I, *httptest.Server, *alarms.PublisherMock) {
	is := is.New(t)
	ctx := context.Background()

	repo, err := database.NewAlarmRepository(database.NewSQLiteConnector(ctx))
	is.NoErr(err)

	pub := &alarms.PublisherMock{
		PublishOnTopicFunc: func(ctx context.Context, message messaging.TopicMessage) error {
			return nil
		},
	}

	svc := alarms.New(repo, pub)

	for _, a := range []types.Alarm{
		{ID: "A", Name: "link down", IsRoot: true, Tenant: "default"},
		{ID: "B", Name: "port flapping", ParentID: types.StringRef("A"), Tenant: "default"},
		{ID: "C", Name: "packet loss", ParentID: types.StringRef("B"), Tenant: "default"},
		{ID: "lonely", Name: "uncorrelated", Tenant: "default"},
		{ID: "secret", Name: "hidden", IsRoot: true, Tenant: "secret"},
	} {
		is.NoErr(svc.Sync(ctx, a))
	}

	authenticator, err := auth.NewAuthenticator(ctx, strings.NewReader(testPolicy))
	is.NoErr(err)

	router, err := RegisterHandlers(ctx, chi.NewRouter(), authenticator, svc, correlation.Configuration{})
	is.NoErr(err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return is, server, pub
}

const testToken string = "alarms-test-token"

const testPolicy string = `package example.authz

default allow := false

allow := response {
	input.token == "alarms-test-token"
	response := {
		"access": {
			"default": ["alarms.read", "alarms.write"]
		}
	}
}
`
