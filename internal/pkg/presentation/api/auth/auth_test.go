package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestThatMissingTokenIsUnauthorized(t *testing.T) {
	is, handler, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	is.Equal(http.StatusUnauthorized, w.Code)
}

func TestThatInvalidTokenIsUnauthorized(t *testing.T) {
	is, handler, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Add("Authorization", "Bearer notavalidtoken")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	is.Equal(http.StatusUnauthorized, w.Code)
}

func TestThatValidTokenGrantsAccessToTenants(t *testing.T) {
	is, handler, tenants := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Add("Authorization", "Bearer "+TestToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	is.Equal(http.StatusOK, w.Code)

	is.Equal([]string{"default", "other"}, *tenants)
}

func TestAllowedTenants(t *testing.T) {
	is := is.New(t)

	ctx := WithAccess(context.Background(), Access{
		"default": {ReadAlarms: {}, WriteAlarms: {}},
		"other":   {ReadAlarms: {}},
	})

	is.Equal([]string{"default"}, AllowedTenants(ctx, ReadAlarms, WriteAlarms))
	is.Equal([]string{"default", "other"}, AllowedTenants(ctx, ReadAlarms))
	is.Equal(0, len(AllowedTenants(context.Background(), ReadAlarms)))
	is.True(AllowedTenants(context.Background(), ReadAlarms) != nil)
}

func TestThatMissingScopeIsUnauthorized(t *testing.T) {
	is := is.New(t)

	a, err := NewAuthenticator(context.Background(), strings.NewReader(testPolicy))
	is.NoErr(err)

	handler := a.RequireAccess(WriteAlarms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Add("Authorization", "Bearer reader-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	is.Equal(http.StatusUnauthorized, w.Code)
}

func TestParseAccess(t *testing.T) {
	is := is.New(t)

	_, err := parseAccess(false)
	is.True(errors.Is(err, ErrAccessDenied))

	_, err = parseAccess("yes")
	is.True(errors.Is(err, ErrPolicyFailure))

	_, err = parseAccess(map[string]any{"access": map[string]any{"default": "alarms.read"}})
	is.True(errors.Is(err, ErrPolicyFailure))

	access, err := parseAccess(map[string]any{"access": map[string]any{"default": []any{"alarms.read"}}})
	is.NoErr(err)
	is.Equal([]string{"default"}, access.Tenants(ReadAlarms))
	is.Equal(0, len(access.Tenants(WriteAlarms)))
}

const TestToken string = "alarms-test-token"

const testPolicy string = `package example.authz

default allow = false

allow = response {
	input.token == "alarms-test-token"
	response := {
		"access": {
			"default": ["alarms.read", "alarms.write"],
			"other": ["alarms.read"]
		}
	}
}

allow = response {
	input.token == "reader-token"
	response := {
		"access": {
			"default": ["alarms.read"]
		}
	}
}
`

func testSetup(t *testing.T) (*is.I, http.Handler, *[]string) {
	is := is.New(t)

	a, err := NewAuthenticator(context.Background(), strings.NewReader(testPolicy))
	is.NoErr(err)

	tenants := &[]string{}

	handler := a.RequireAccess(ReadAlarms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*tenants = AllowedTenants(r.Context(), ReadAlarms)
		w.WriteHeader(http.StatusOK)
	}))

	return is, handler, tenants
}
