package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/pkg/types"
)

var ErrViewNotFound = errors.New("view not found")

// maxViews bounds the navigation stack of a session, the oldest view is dismissed first.
const maxViews int = 16

const (
	DefaultMaxSessions int           = 1000
	DefaultIdleTimeout time.Duration = 30 * time.Minute
)

//go:generate moq -rm -out notifier_mock.go . Notifier
type Notifier interface {
	ViewRendered(sessionID, viewID string)
	Warning(sessionID, message string)
}

// Session is one user's stack of correlation views. The most recently opened
// view is on top.
type Session struct {
	ID string

	tenants  []string
	lastSeen time.Time

	mu     sync.Mutex
	panels []*Panel

	ctrl     *correlation.Controller
	source   correlation.QuerySource
	notifier Notifier
}

func newSession(tenants []string, source correlation.QuerySource, cfg correlation.Config, formatter correlation.Formatter, notifier Notifier) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		tenants:  tenants,
		source:   source,
		notifier: notifier,
	}
	s.ctrl = correlation.NewController(correlation.NewFetcher(source, cfg), s, formatter)
	return s
}

// OpenDetail resolves alarmID and opens a correlation view for it on top of the stack.
// An alarm that no longer exists raises a warning instead.
func (s *Session) OpenDetail(ctx context.Context, alarmID string) {
	log := logging.GetLoggerFromContext(ctx).With().Str("session", s.ID).Str("alarmID", alarmID).Logger()

	alarms, err := s.source.Query(ctx, correlation.ByID(alarmID))
	if err != nil {
		log.Error().Err(err).Msg("failed to look up alarm")
		s.notifier.Warning(s.ID, fmt.Sprintf("could not look up alarm %s", alarmID))
		return
	}

	if len(alarms) == 0 {
		log.Info().Msg("alarm not found, no view opened")
		s.notifier.Warning(s.ID, fmt.Sprintf("alarm %s does not exist", alarmID))
		return
	}

	s.Open(ctx, alarms[0])
}

// Open pushes a new view for seed and runs the correlation for it.
func (s *Session) Open(ctx context.Context, seed types.Alarm) *Panel {
	p := newPanel(uuid.NewString(), seed)

	s.mu.Lock()
	s.panels = append(s.panels, p)
	var evicted []*Panel
	if len(s.panels) > maxViews {
		evicted = s.panels[:len(s.panels)-maxViews]
		s.panels = append([]*Panel{}, s.panels[len(s.panels)-maxViews:]...)
	}
	s.mu.Unlock()

	for _, e := range evicted {
		e.detach()
	}

	view := s.ctrl.Open(ctx, seed, p)
	p.setView(view)

	if view.Outcome() != correlation.OutcomeDiscarded {
		s.notifier.ViewRendered(s.ID, p.ID)
	}

	return p
}

// Click forwards a click on a tree node of view viewID.
func (s *Session) Click(ctx context.Context, viewID, alarmID string) error {
	v, err := s.view(viewID)
	if err != nil {
		return err
	}
	v.Click(ctx, alarmID)
	return nil
}

func (s *Session) ClickParent(ctx context.Context, viewID string) error {
	v, err := s.view(viewID)
	if err != nil {
		return err
	}
	v.ClickParent(ctx)
	return nil
}

// Dismiss removes a view from the stack. A fetch still running for it will
// complete without touching the panel.
func (s *Session) Dismiss(viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.panels {
		if p.ID == viewID {
			p.detach()
			s.panels = append(s.panels[:i:i], s.panels[i+1:]...)
			return nil
		}
	}

	return ErrViewNotFound
}

// Panels returns the stack, top first.
func (s *Session) Panels() []*Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Panel, 0, len(s.panels))
	for i := len(s.panels) - 1; i >= 0; i-- {
		result = append(result, s.panels[i])
	}
	return result
}

func (s *Session) Panel(viewID string) (*Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.panels {
		if p.ID == viewID {
			return p, nil
		}
	}
	return nil, ErrViewNotFound
}

func (s *Session) view(viewID string) (*correlation.View, error) {
	p, err := s.Panel(viewID)
	if err != nil {
		return nil, err
	}

	v := p.getView()
	if v == nil {
		return nil, fmt.Errorf("view %s is still loading", viewID)
	}
	return v, nil
}

// SourceFunc returns a query source that only sees the alarms of tenants.
type SourceFunc func(tenants []string) correlation.QuerySource

type Option func(*Navigator)

// WithMaxSessions caps the number of live sessions. The least recently used
// session is closed when the cap is exceeded.
func WithMaxSessions(max int) Option {
	return func(n *Navigator) {
		if max > 0 {
			n.maxSessions = max
		}
	}
}

// WithIdleTimeout closes sessions that have not been used for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(n *Navigator) {
		if d > 0 {
			n.idleTimeout = d
		}
	}
}

// Navigator keeps track of the sessions of all GUI users.
type Navigator struct {
	mu       sync.Mutex
	sessions map[string]*Session

	sources   SourceFunc
	cfg       correlation.Config
	formatter correlation.Formatter
	notifier  Notifier

	maxSessions int
	idleTimeout time.Duration
	now         func() time.Time
}

func New(sources SourceFunc, cfg correlation.Config, formatter correlation.Formatter, notifier Notifier, opts ...Option) *Navigator {
	n := &Navigator{
		sessions:    map[string]*Session{},
		sources:     sources,
		cfg:         cfg,
		formatter:   formatter,
		notifier:    notifier,
		maxSessions: DefaultMaxSessions,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Session returns the session with id when it exists and belongs to the same
// tenants. Any other id gets a new session with a generated id, so callers must
// hand the returned ID back to the client.
func (n *Navigator) Session(id string, tenants []string) *Session {
	n.mu.Lock()

	now := n.now()
	closed := n.expire(now)

	s, ok := n.sessions[id]
	if !ok || !sameTenants(s.tenants, tenants) {
		s = newSession(tenants, n.sources(tenants), n.cfg, n.formatter, n.notifier)
		n.sessions[s.ID] = s
		closed = append(closed, n.evict(s)...)
	}
	s.lastSeen = now

	n.mu.Unlock()

	for _, c := range closed {
		c.dismissAll()
	}

	return s
}

// Close forgets a session and detaches all of its views.
func (n *Navigator) Close(id string) {
	n.mu.Lock()
	s, ok := n.sessions[id]
	delete(n.sessions, id)
	n.mu.Unlock()

	if ok {
		s.dismissAll()
	}
}

func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sessions)
}

// expire removes idle sessions. Must be called with n.mu held.
func (n *Navigator) expire(now time.Time) []*Session {
	expired := []*Session{}

	for id, s := range n.sessions {
		if now.Sub(s.lastSeen) > n.idleTimeout {
			delete(n.sessions, id)
			expired = append(expired, s)
		}
	}

	return expired
}

// evict removes the least recently used sessions, other than keep, until the
// cap is met. Must be called with n.mu held.
func (n *Navigator) evict(keep *Session) []*Session {
	evicted := []*Session{}

	for len(n.sessions) > n.maxSessions {
		var oldest *Session
		for _, s := range n.sessions {
			if s == keep {
				continue
			}
			if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
				oldest = s
			}
		}
		if oldest == nil {
			break
		}
		delete(n.sessions, oldest.ID)
		evicted = append(evicted, oldest)
	}

	return evicted
}

func (s *Session) dismissAll() {
	for _, p := range s.Panels() {
		s.Dismiss(p.ID)
	}
}

// nil tenants means unrestricted and only matches nil.
func sameTenants(a, b []string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return lo.Every(a, b) && lo.Every(b, a)
}
