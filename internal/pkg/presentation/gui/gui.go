package gui

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/internal/pkg/application/navigation"
	"github.com/diwise/alarm-correlation/internal/pkg/application/webevents"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/internal/pkg/presentation/api/auth"
	"github.com/diwise/alarm-correlation/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var tracer = otel.Tracer("alarm-correlation/gui")

//go:embed templates/*.html
var templates embed.FS

const SessionCookie string = "alarm-correlation-session"

func RegisterHandlers(log zerolog.Logger, router *chi.Mux, authenticator auth.Authorizer, nav *navigation.Navigator, events webevents.WebEvents) (*chi.Mux, error) {
	t, err := template.New("index.html").Funcs(template.FuncMap{"node": newNodeArgs, "pathEscape": url.PathEscape}).ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}

	router.Route("/gui", func(r chi.Router) {
		r.Use(authenticator.RequireAccess(auth.ReadAlarms))

		r.Get("/", NewGuiHandler(log, nav, t))
		r.Get("/alarms/{alarmID}", NewOpenDetailHandler(log, nav))
		r.Post("/views/{viewID}/nodes/{alarmID}", NewClickHandler(log, nav))
		r.Post("/views/{viewID}/parent", NewClickParentHandler(log, nav))
		r.Post("/views/{viewID}/close", NewCloseHandler(log, nav))
		r.Get("/events", events.Server().ServeHTTP)
	})

	return router, nil
}

// SessionOf returns the GUI session a request belongs to, if any.
func SessionOf(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func session(w http.ResponseWriter, r *http.Request, nav *navigation.Navigator) *navigation.Session {
	s := nav.Session(SessionOf(r), auth.AllowedTenants(r.Context(), auth.ReadAlarms))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.ID,
		Path:     "/gui",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(12 * time.Hour),
	})

	return s
}

func NewGuiHandler(log zerolog.Logger, nav *navigation.Navigator, t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, nav)

		data := struct {
			Title string
			Views []panelModel
		}{
			Title: "Alarm correlation",
		}

		for _, p := range s.Panels() {
			data.Views = append(data.Views, newPanelModel(p))
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if err := t.Execute(w, data); err != nil {
			log.Error().Err(err).Msg("failed to render gui")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
}

func NewOpenDetailHandler(log zerolog.Logger, nav *navigation.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "open-detail")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, _ = logging.AddTraceIDToLogger(ctx, span, log)

		session(w, r, nav).OpenDetail(ctx, param(r, "alarmID"))

		http.Redirect(w, r, "/gui", http.StatusSeeOther)
	}
}

func NewClickHandler(log zerolog.Logger, nav *navigation.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "click-node")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		err = session(w, r, nav).Click(ctx, param(r, "viewID"), param(r, "alarmID"))
		respond(w, r, requestLogger, err)
	}
}

func NewClickParentHandler(log zerolog.Logger, nav *navigation.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "click-parent")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		err = session(w, r, nav).ClickParent(ctx, param(r, "viewID"))
		respond(w, r, requestLogger, err)
	}
}

func NewCloseHandler(log zerolog.Logger, nav *navigation.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := session(w, r, nav).Dismiss(param(r, "viewID"))
		respond(w, r, log, err)
	}
}

func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func respond(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	if errors.Is(err, navigation.ErrViewNotFound) {
		log.Debug().Err(err).Msg("stale view")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		log.Info().Err(err).Msg("view is not ready")
		w.WriteHeader(http.StatusConflict)
		return
	}

	http.Redirect(w, r, "/gui", http.StatusSeeOther)
}

type nodeModel struct {
	ID       string
	Name     string
	Severity string
	State    string
	NodeName string
	Role     types.Role
	Focused  bool
	Children []nodeModel
}

type nodeArgs struct {
	ViewID string
	Node   nodeModel
}

func newNodeArgs(viewID string, n nodeModel) nodeArgs {
	return nodeArgs{ViewID: viewID, Node: n}
}

type parentModel struct {
	ID   string
	Name string
}

type panelModel struct {
	ID      string
	Title   string
	Loading bool
	Empty   bool
	Error   string
	Parent  *parentModel
	Roots   []nodeModel
}

func newPanelModel(p *navigation.Panel) panelModel {
	m := panelModel{
		ID:    p.ID,
		Title: p.Seed.DisplayName(),
	}

	switch p.State() {
	case navigation.PanelLoading:
		m.Loading = true
	case navigation.PanelEmpty:
		m.Empty = true
	case navigation.PanelError:
		m.Error = "Failed to load the correlated alarms, please try again later."
	case navigation.PanelTree:
		c := p.Correlation()
		f := p.Formatter()

		if c.Parent != nil {
			m.Parent = &parentModel{ID: c.Parent.ID, Name: c.Parent.DisplayName()}
		}

		for _, root := range c.Roots {
			m.Roots = append(m.Roots, newNodeModel(root, f))
		}
	}

	return m
}

func newNodeModel(n *types.TreeNode, f correlation.Formatter) nodeModel {
	m := nodeModel{
		ID:       n.Alarm.ID,
		Name:     n.Alarm.DisplayName(),
		Severity: f.Severity(n.Alarm.Severity),
		State:    f.State(n.Alarm.State),
		NodeName: n.Alarm.NodeName,
		Role:     n.Role,
		Focused:  n.IsFocused,
	}

	for _, c := range n.Children {
		m.Children = append(m.Children, newNodeModel(c, f))
	}

	return m
}
