package correlation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

type ClickFunc func(ctx context.Context, alarmID string)

// RenderTarget displays the outcome of one correlation view. Attached reports
// whether the target is still on screen; a detached target is never rendered to.
//
//go:generate moq -rm -out controller_mock.go . RenderTarget DetailOpener
type RenderTarget interface {
	Attached() bool
	RenderTree(c types.Correlation, f Formatter, onClick ClickFunc)
	RenderEmpty()
	RenderError(err error)
}

// DetailOpener opens a new, stacked, detail surface for an alarm. Not found is
// handled by the opener itself.
type DetailOpener interface {
	OpenDetail(ctx context.Context, alarmID string)
}

type Outcome int

const (
	OutcomeRendered Outcome = iota
	OutcomeEmpty
	OutcomeFailed
	OutcomeDiscarded
)

type Controller struct {
	fetcher   *Fetcher
	opener    DetailOpener
	formatter Formatter
}

func NewController(fetcher *Fetcher, opener DetailOpener, formatter Formatter) *Controller {
	if formatter.Severity == nil || formatter.State == nil {
		formatter = DefaultFormatter()
	}

	return &Controller{
		fetcher:   fetcher,
		opener:    opener,
		formatter: formatter,
	}
}

// View is the result of one Open call. It is immutable once returned.
type View struct {
	focusID     string
	correlation *types.Correlation
	outcome     Outcome
	opener      DetailOpener
}

func (v *View) FocusID() string {
	return v.focusID
}

func (v *View) Outcome() Outcome {
	return v.outcome
}

// Correlation is nil unless the view rendered a tree.
func (v *View) Correlation() *types.Correlation {
	return v.correlation
}

func (v *View) Parent() *types.Alarm {
	if v.correlation == nil {
		return nil
	}
	return v.correlation.Parent
}

// Click opens the detail of alarmID on top of this view. Clicking the focused
// alarm does nothing.
func (v *View) Click(ctx context.Context, alarmID string) {
	if alarmID == "" || alarmID == v.focusID {
		return
	}
	v.opener.OpenDetail(ctx, alarmID)
}

func (v *View) ClickParent(ctx context.Context) {
	if p := v.Parent(); p != nil {
		v.Click(ctx, p.ID)
	}
}

// Open runs fetch, build and render for seed against target. Each call owns all
// of its traversal state.
func (c *Controller) Open(ctx context.Context, seed types.Alarm, target RenderTarget) *View {
	var err error

	ctx, span := tracer.Start(ctx, "open-correlation-view")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetLoggerFromContext(ctx).With().Str("alarmID", seed.ID).Logger()
	ctx = logging.NewContextWithLogger(ctx, log)

	view := &View{focusID: seed.ID, opener: c.opener}

	group, err := c.fetcher.FetchGroup(ctx, seed)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch correlation group")
		view.outcome = OutcomeFailed
		render(log, target, view, func() { target.RenderError(err) })
		return view
	}

	roots, buildErr := BuildTree(group, seed.ID)
	if buildErr != nil {
		if !errors.Is(buildErr, ErrNoCorrelationData) {
			err = buildErr
		}
		view.outcome = OutcomeEmpty
		render(log, target, view, target.RenderEmpty)
		return view
	}

	parent, parentErr := c.fetcher.FetchParent(ctx, seed)
	if parentErr != nil {
		log.Warn().Err(parentErr).Msg("root cause lookup failed, omitting parent link")
	}

	view.correlation = &types.Correlation{
		FocusID: seed.ID,
		Parent:  parent,
		Roots:   roots,
	}
	view.outcome = OutcomeRendered

	render(log, target, view, func() { target.RenderTree(*view.correlation, c.formatter, view.Click) })

	return view
}

func render(log zerolog.Logger, target RenderTarget, view *View, fn func()) {
	if !target.Attached() {
		log.Debug().Msg("render target detached while fetching, discarding result")
		view.outcome = OutcomeDiscarded
		return
	}
	fn()
}
