package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"go.opentelemetry.io/otel"

	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var (
	ErrMissingToken  = errors.New("authorization header missing")
	ErrAccessDenied  = errors.New("access denied")
	ErrPolicyFailure = errors.New("unexpected response from authz policy")
)

var tracer = otel.Tracer("alarm-correlation/authz")

type Scope string

const (
	ReadAlarms  Scope = "alarms.read"
	WriteAlarms Scope = "alarms.write"
)

// Access maps each tenant a caller may see to the scopes granted there.
type Access map[string]map[Scope]struct{}

// Tenants returns, sorted, the tenants in which every one of scopes is granted.
func (a Access) Tenants(scopes ...Scope) []string {
	tenants := []string{}

	for tenant, granted := range a {
		allowed := true
		for _, s := range scopes {
			if _, ok := granted[s]; !ok {
				allowed = false
				break
			}
		}
		if allowed {
			tenants = append(tenants, tenant)
		}
	}

	sort.Strings(tenants)
	return tenants
}

type accessContextKey struct{ name string }

var accessCtxKey = &accessContextKey{"access"}

func WithAccess(ctx context.Context, access Access) context.Context {
	return context.WithValue(ctx, accessCtxKey, access)
}

// AllowedTenants returns the tenants in which the caller holds all of scopes.
// A request that never passed the authorizer is allowed no tenants at all.
func AllowedTenants(ctx context.Context, scopes ...Scope) []string {
	access, ok := ctx.Value(accessCtxKey).(Access)
	if !ok {
		return []string{}
	}
	return access.Tenants(scopes...)
}

// Authorizer guards handlers with the alarm scopes of an OPA policy. The policy
// is given the bearer token and the requested scopes as input.token and
// input.scopes, and answers data.example.authz.allow with either false or
// {"access": {"<tenant>": ["<scope>", ...]}}.
type Authorizer interface {
	RequireAccess(scopes ...Scope) func(http.Handler) http.Handler
}

type policyAuthorizer struct {
	query rego.PreparedEvalQuery
}

func NewAuthenticator(ctx context.Context, policies io.Reader) (Authorizer, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %w", err)
	}

	query, err := rego.New(
		rego.Query("x = data.example.authz.allow"),
		rego.Module("example.rego", string(module)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare authz policies: %w", err)
	}

	return &policyAuthorizer{query: query}, nil
}

func (a *policyAuthorizer) RequireAccess(scopes ...Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error

			ctx, span := tracer.Start(r.Context(), "check-auth")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

			log := logging.GetLoggerFromContext(ctx)

			var access Access
			access, err = a.authorize(ctx, r, scopes)

			switch {
			case errors.Is(err, ErrMissingToken), errors.Is(err, ErrAccessDenied):
				log.Info().Err(err).Msg("request not authorized")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			case err != nil:
				log.Error().Err(err).Msg("authorization failed")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccess(r.Context(), access)))
		})
	}
}

func (a *policyAuthorizer) authorize(ctx context.Context, r *http.Request, scopes []Scope) (Access, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil, ErrMissingToken
	}

	requested := make([]string, 0, len(scopes))
	for _, s := range scopes {
		requested = append(requested, string(s))
	}

	results, err := a.query.Eval(ctx, rego.EvalInput(map[string]any{
		"token":  token,
		"scopes": requested,
	}))
	if err != nil {
		return nil, fmt.Errorf("opa eval failed: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no result", ErrPolicyFailure)
	}

	access, err := parseAccess(results[0].Bindings["x"])
	if err != nil {
		return nil, err
	}

	if len(access.Tenants(scopes...)) == 0 {
		return nil, ErrAccessDenied
	}

	return access, nil
}

func parseAccess(binding any) (Access, error) {
	if allowed, ok := binding.(bool); ok {
		if !allowed {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("%w: allow without access", ErrPolicyFailure)
	}

	result, ok := binding.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: result is %T", ErrPolicyFailure, binding)
	}

	tenants, ok := result["access"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: access is missing", ErrPolicyFailure)
	}

	access := Access{}

	for tenant, granted := range tenants {
		scopes, ok := granted.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: scopes of tenant %s", ErrPolicyFailure, tenant)
		}

		access[tenant] = map[Scope]struct{}{}
		for _, s := range scopes {
			if scope, ok := s.(string); ok {
				access[tenant][Scope(scope)] = struct{}{}
			}
		}
	}

	return access, nil
}
