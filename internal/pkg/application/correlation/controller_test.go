package correlation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/diwise/alarm-correlation/pkg/types"
)

func TestOpenRendersCorrelationTree(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, _, _ := newTestController(endToEndDataset()...)
	target := newTarget(true)

	view := ctrl.Open(ctx, alarm("A", "", true), target)

	is.Equal(OutcomeRendered, view.Outcome())
	is.Equal(1, len(target.RenderTreeCalls()))

	c := target.RenderTreeCalls()[0].C
	is.Equal("A", c.FocusID)
	is.True(c.Parent == nil)
	is.Equal(1, len(c.Roots))
	is.Equal("A", c.Roots[0].Alarm.ID)
	is.True(c.Roots[0].IsFocused)
	is.Equal("B", c.Roots[0].Children[0].Alarm.ID)
	is.Equal("C", c.Roots[0].Children[0].Children[0].Alarm.ID)
}

func TestClickOnNodeOpensDetailWithoutTouchingTheView(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, opener, _ := newTestController(endToEndDataset()...)
	target := newTarget(true)

	view := ctrl.Open(ctx, alarm("A", "", true), target)
	before := view.Correlation()

	onClick := target.RenderTreeCalls()[0].OnClick
	onClick(ctx, "C")

	is.Equal(1, len(opener.OpenDetailCalls()))
	is.Equal("C", opener.OpenDetailCalls()[0].AlarmID)
	is.Equal(1, len(target.RenderTreeCalls())) // no re-render of the current view
	is.Equal(before, view.Correlation())
	is.Equal("A", view.FocusID())
}

func TestClickOnFocusedNodeIsNoop(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, opener, _ := newTestController(endToEndDataset()...)

	view := ctrl.Open(ctx, alarm("A", "", true), newTarget(true))
	view.Click(ctx, "A")

	is.Equal(0, len(opener.OpenDetailCalls()))
}

func TestClickParentNavigatesToRootCause(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, opener, _ := newTestController(endToEndDataset()...)
	target := newTarget(true)

	view := ctrl.Open(ctx, alarm("B", "A", false), target)

	is.Equal("A", target.RenderTreeCalls()[0].C.Parent.ID)

	view.ClickParent(ctx)

	is.Equal(1, len(opener.OpenDetailCalls()))
	is.Equal("A", opener.OpenDetailCalls()[0].AlarmID)
}

func TestThatMissingParentOmitsTheLink(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, opener, _ := newTestController(alarm("B", "gone", false))
	target := newTarget(true)

	view := ctrl.Open(ctx, alarm("B", "gone", false), target)
	view.ClickParent(ctx)

	is.Equal(OutcomeRendered, view.Outcome())
	is.True(view.Parent() == nil)
	is.Equal(0, len(opener.OpenDetailCalls()))
}

func TestOpenRendersEmptyStateForDegenerateSeed(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, _, src := newTestController(endToEndDataset()...)
	target := newTarget(true)

	view := ctrl.Open(ctx, alarm("lonely", "", false), target)

	is.Equal(OutcomeEmpty, view.Outcome())
	is.Equal(1, len(target.RenderEmptyCalls()))
	is.Equal(0, len(target.RenderTreeCalls()))
	is.Equal(0, len(src.QueryCalls()))
}

func TestOpenRendersErrorWhenSeedFetchFails(t *testing.T) {
	is, ctx := setupTest(t)
	src := &QuerySourceMock{
		QueryFunc: func(ctx context.Context, p Predicate) ([]types.Alarm, error) {
			return nil, errors.New("service unavailable")
		},
	}
	ctrl := NewController(NewFetcher(src, DefaultConfig()), &DetailOpenerMock{}, DefaultFormatter())
	target := newTarget(true)

	view := ctrl.Open(ctx, alarm("A", "", true), target)

	is.Equal(OutcomeFailed, view.Outcome())
	is.Equal(1, len(target.RenderErrorCalls()))
	is.True(errors.Is(target.RenderErrorCalls()[0].Err, ErrSeedQueryFailed))
}

func TestThatDetachedTargetIsNotRendered(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, _, _ := newTestController(endToEndDataset()...)
	target := newTarget(false)

	view := ctrl.Open(ctx, alarm("A", "", true), target)

	is.Equal(OutcomeDiscarded, view.Outcome())
	is.Equal(0, len(target.RenderTreeCalls()))
	is.Equal(0, len(target.RenderEmptyCalls()))
	is.Equal(0, len(target.RenderErrorCalls()))
}

func TestThatConcurrentOpensDoNotShareState(t *testing.T) {
	is, ctx := setupTest(t)
	ctrl, _, _ := newTestController(append(endToEndDataset(), sampleForest()...)...)

	seeds := []types.Alarm{alarm("A", "", true), alarm("R", "", true), alarm("B", "A", false), alarm("X", "R", false)}
	views := make([]*View, len(seeds))

	var wg sync.WaitGroup
	for i := range seeds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			views[i] = ctrl.Open(ctx, seeds[i], newTarget(true))
		}(i)
	}
	wg.Wait()

	is.Equal(3, countNodes(views[0].Correlation().Roots))
	is.Equal(6, countNodes(views[1].Correlation().Roots))
	is.Equal(2, countNodes(views[2].Correlation().Roots))
	is.Equal(3, countNodes(views[3].Correlation().Roots))
}

func endToEndDataset() []types.Alarm {
	return []types.Alarm{
		alarm("A", "", true),
		alarm("B", "A", false),
		alarm("C", "B", false),
	}
}

func newTestController(alarms ...types.Alarm) (*Controller, *DetailOpenerMock, *QuerySourceMock) {
	src := newMemorySource(alarms...)
	opener := &DetailOpenerMock{
		OpenDetailFunc: func(ctx context.Context, alarmID string) {},
	}
	return NewController(NewFetcher(src, DefaultConfig()), opener, DefaultFormatter()), opener, src
}

func newTarget(attached bool) *RenderTargetMock {
	return &RenderTargetMock{
		AttachedFunc:    func() bool { return attached },
		RenderTreeFunc:  func(types.Correlation, Formatter, ClickFunc) {},
		RenderEmptyFunc: func() {},
		RenderErrorFunc: func(error) {},
	}
}
