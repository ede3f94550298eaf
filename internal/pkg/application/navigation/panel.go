package navigation

import (
	"sync"
	"sync/atomic"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/pkg/types"
)

type PanelState int

const (
	PanelLoading PanelState = iota
	PanelTree
	PanelEmpty
	PanelError
)

// Panel is a retained render target. It keeps whatever was last rendered to it
// until it is dismissed, after which it ignores further renders.
type Panel struct {
	ID   string
	Seed types.Alarm

	attached atomic.Bool

	mu          sync.RWMutex
	state       PanelState
	correlation types.Correlation
	formatter   correlation.Formatter
	err         error
	view        *correlation.View
}

func newPanel(id string, seed types.Alarm) *Panel {
	p := &Panel{ID: id, Seed: seed, formatter: correlation.DefaultFormatter()}
	p.attached.Store(true)
	return p
}

func (p *Panel) Attached() bool {
	return p.attached.Load()
}

func (p *Panel) RenderTree(c types.Correlation, f correlation.Formatter, _ correlation.ClickFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = PanelTree
	p.correlation = c
	p.formatter = f
	p.err = nil
}

func (p *Panel) RenderEmpty() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = PanelEmpty
	p.err = nil
}

func (p *Panel) RenderError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = PanelError
	p.err = err
}

func (p *Panel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Panel) Correlation() types.Correlation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.correlation
}

func (p *Panel) Formatter() correlation.Formatter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.formatter
}

func (p *Panel) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *Panel) detach() {
	p.attached.Store(false)
}

func (p *Panel) setView(v *correlation.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = v
}

func (p *Panel) getView() *correlation.View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}
