package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sys/unix"

	"github.com/diwise/alarm-correlation/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var (
	ErrNotFound    = errors.New("alarm not found")
	ErrUnavailable = errors.New("alarm correlation service unavailable")
	ErrUnexpected  = errors.New("unexpected response from alarm correlation service")
)

var tracer = otel.Tracer("alarm-correlation-client")

type Client struct {
	url        string
	httpClient *http.Client
}

type Option func(ctx context.Context, c *Client) error

// WithToken authenticates every request with a fixed bearer token.
func WithToken(token string) Option {
	return func(ctx context.Context, c *Client) error {
		c.httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   c.httpClient.Transport,
			},
		}
		return nil
	}
}

// WithClientCredentials fetches and refreshes tokens from an OAuth2 token endpoint.
func WithClientCredentials(tokenURL, clientID, clientSecret string) Option {
	return func(ctx context.Context, c *Client) error {
		oauthConfig := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}

		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

		if _, err := oauthConfig.Token(ctx); err != nil {
			return fmt.Errorf("failed to get client credentials from %s: %w", tokenURL, err)
		}

		c.httpClient = oauthConfig.Client(ctx)
		return nil
	}
}

func New(ctx context.Context, serviceURL string, opts ...Option) (*Client, error) {
	c := &Client{
		url: strings.TrimSuffix(serviceURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		if err := opt(ctx, c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Client) GetAlarm(ctx context.Context, alarmID string) (alarm types.Alarm, err error) {
	ctx, span := tracer.Start(ctx, "get-alarm")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, status, err := c.get(ctx, "/api/v0/alarms/"+url.PathEscape(alarmID))
	if err != nil {
		return types.Alarm{}, err
	}

	if status == http.StatusNotFound {
		return types.Alarm{}, ErrNotFound
	}
	if status != http.StatusOK {
		return types.Alarm{}, unexpected(status)
	}

	err = json.Unmarshal(b, &alarm)
	if err != nil {
		return types.Alarm{}, fmt.Errorf("failed to unmarshal alarm: %w", err)
	}

	return alarm, nil
}

// FindByID returns the alarm with alarmID as a list of zero or one alarms.
func (c *Client) FindByID(ctx context.Context, alarmID string) ([]types.Alarm, error) {
	return c.find(ctx, "id", alarmID)
}

// FindByParentID returns the alarms that name parentID as their root cause.
func (c *Client) FindByParentID(ctx context.Context, parentID string) ([]types.Alarm, error) {
	return c.find(ctx, "parentID", parentID)
}

func (c *Client) find(ctx context.Context, field, value string) (result []types.Alarm, err error) {
	ctx, span := tracer.Start(ctx, "find-alarms")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	q := url.Values{}
	q.Set(field, value)

	b, status, err := c.get(ctx, "/api/v0/alarms?"+q.Encode())
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return []types.Alarm{}, nil
	}
	if status != http.StatusOK {
		return nil, unexpected(status)
	}

	result = []types.Alarm{}
	err = json.Unmarshal(b, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal alarms: %w", err)
	}

	return result, nil
}

// GetCorrelation asks the service to correlate alarmID. A nil result without an
// error means there is no correlation data for the alarm.
func (c *Client) GetCorrelation(ctx context.Context, alarmID string, depth int) (result *types.Correlation, err error) {
	ctx, span := tracer.Start(ctx, "get-correlation")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	path := "/api/v0/alarms/" + url.PathEscape(alarmID) + "/correlation"
	if depth > 0 {
		path += "?depth=" + strconv.Itoa(depth)
	}

	b, status, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, unexpected(status)
	}

	result = &types.Correlation{}
	err = json.Unmarshal(b, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal correlation: %w", err)
	}

	return result, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, unix.ECONNREFUSED) {
			return nil, 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, resp.StatusCode, fmt.Errorf("%w (%d)", ErrUnavailable, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return b, resp.StatusCode, nil
}

func unexpected(status int) error {
	return fmt.Errorf("%w: %d %s", ErrUnexpected, status, http.StatusText(status))
}
