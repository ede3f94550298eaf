package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"

	"github.com/diwise/alarm-correlation/internal/pkg/application/alarms"
	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/internal/pkg/presentation/api/auth"
	"github.com/diwise/alarm-correlation/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var tracer = otel.Tracer("alarm-correlation/api")

const (
	defaultPageSize int = 100
	maxPageSize     int = 1000
	maxDepth        int = 50
)

func RegisterHandlers(ctx context.Context, router *chi.Mux, authenticator auth.Authorizer, svc alarms.AlarmService, cfg correlation.Configuration) (*chi.Mux, error) {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log := logging.GetLoggerFromContext(ctx)

	formatter := correlation.NewFormatter(cfg.Labels)

	router.Route("/api/v0", func(r chi.Router) {
		r.Route("/alarms", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authenticator.RequireAccess(auth.ReadAlarms))

				r.Get("/", queryAlarmsHandler(log, svc))
				r.Get("/{alarmID}", getAlarmHandler(log, svc))
				r.Get("/{alarmID}/correlation", getCorrelationHandler(log, svc, cfg.Correlation, formatter))
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticator.RequireAccess(auth.WriteAlarms))

				r.Post("/", createAlarmHandler(log, svc))
				r.Patch("/{alarmID}", clearAlarmHandler(log, svc))
			})
		})
	})

	return router, nil
}

func queryAlarmsHandler(log zerolog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		allowedTenants := auth.AllowedTenants(r.Context(), auth.ReadAlarms)

		ctx, span := tracer.Start(r.Context(), "query-alarms")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		q := r.URL.Query()
		id, parentID := q.Get("id"), q.Get("parentID")

		if id != "" && parentID != "" {
			err = errors.New("id and parentID are mutually exclusive")
			requestLogger.Info().Err(err).Msg("bad request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if id != "" || parentID != "" {
			p := correlation.ByID(id)
			if parentID != "" {
				p = correlation.ByParentID(parentID)
			}

			var result []types.Alarm
			result, err = svc.Query(ctx, p, allowedTenants)
			if err != nil {
				requestLogger.Error().Err(err).Msgf("unable to query alarms where %s", p)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, result)
			return
		}

		offset, limit, err := paging(r)
		if err != nil {
			requestLogger.Info().Err(err).Msg("bad paging parameters")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		collection, err := svc.List(ctx, offset, limit, allowedTenants)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to fetch alarms")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(newCollectionResponse(r.URL, collection).Byte())
	}
}

func getAlarmHandler(log zerolog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		allowedTenants := auth.AllowedTenants(r.Context(), auth.ReadAlarms)

		ctx, span := tracer.Start(r.Context(), "get-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		alarmID := chi.URLParam(r, "alarmID")
		requestLogger = requestLogger.With().Str("alarmID", alarmID).Logger()

		alarm, err := svc.GetByID(ctx, alarmID, allowedTenants)
		if errors.Is(err, alarms.ErrAlarmNotFound) {
			requestLogger.Debug().Msg("alarm not found")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("could not fetch alarm")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, alarm)
	}
}

func getCorrelationHandler(log zerolog.Logger, svc alarms.AlarmService, cfg correlation.Config, formatter correlation.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		allowedTenants := auth.AllowedTenants(r.Context(), auth.ReadAlarms)

		ctx, span := tracer.Start(r.Context(), "get-correlation")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		alarmID := chi.URLParam(r, "alarmID")
		requestLogger = requestLogger.With().Str("alarmID", alarmID).Logger()
		ctx = logging.NewContextWithLogger(ctx, requestLogger)

		cfg.MaxDepth, err = depth(r, cfg.MaxDepth)
		if err != nil {
			requestLogger.Info().Err(err).Msg("bad request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		seed, err := svc.GetByID(ctx, alarmID, allowedTenants)
		if errors.Is(err, alarms.ErrAlarmNotFound) {
			requestLogger.Debug().Msg("alarm not found")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("could not fetch alarm")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		fetcher := correlation.NewFetcher(svc.QuerySource(allowedTenants), cfg)
		ctrl := correlation.NewController(fetcher, noNavigation{}, formatter)

		view := ctrl.Open(ctx, seed, &responseTarget{w: w, r: r})
		if view.Outcome() == correlation.OutcomeDiscarded {
			requestLogger.Info().Msg("client went away before the correlation was ready")
		}
	}
}

func createAlarmHandler(log zerolog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		allowedTenants := auth.AllowedTenants(r.Context(), auth.WriteAlarms)

		ctx, span := tracer.Start(r.Context(), "create-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		var alarm types.Alarm

		if isCloudEvent(r) {
			evt, ceErr := cehttp.NewEventFromHTTPRequest(r)
			if ceErr != nil {
				err = ceErr
				requestLogger.Error().Err(err).Msg("unable to parse cloud event")
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			err = evt.DataAs(&alarm)
		} else {
			var body []byte
			body, err = io.ReadAll(r.Body)
			if err != nil {
				requestLogger.Error().Err(err).Msg("unable to read body")
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			err = json.Unmarshal(body, &alarm)
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal alarm")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if alarm.Tenant == "" && len(allowedTenants) == 1 {
			alarm.Tenant = allowedTenants[0]
		}

		if !lo.Contains(allowedTenants, alarm.Tenant) {
			err = fmt.Errorf("not allowed to create alarms for tenant %q", alarm.Tenant)
			requestLogger.Warn().Err(err).Msg("forbidden")
			w.WriteHeader(http.StatusForbidden)
			return
		}

		err = svc.Add(ctx, alarm)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to create alarm")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func clearAlarmHandler(log zerolog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		allowedTenants := auth.AllowedTenants(r.Context(), auth.WriteAlarms)

		ctx, span := tracer.Start(r.Context(), "clear-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := logging.AddTraceIDToLogger(ctx, span, log)

		alarmID := chi.URLParam(r, "alarmID")
		requestLogger = requestLogger.With().Str("alarmID", alarmID).Logger()

		err = svc.Clear(ctx, alarmID, allowedTenants)
		if errors.Is(err, alarms.ErrAlarmNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to clear alarm")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// responseTarget renders a correlation view as the response to a request. The
// target stays attached for as long as the client waits for it.
type responseTarget struct {
	w http.ResponseWriter
	r *http.Request
}

func (t *responseTarget) Attached() bool {
	return t.r.Context().Err() == nil
}

func (t *responseTarget) RenderTree(c types.Correlation, _ correlation.Formatter, _ correlation.ClickFunc) {
	writeJSON(t.w, http.StatusOK, c)
}

func (t *responseTarget) RenderEmpty() {
	t.w.WriteHeader(http.StatusNoContent)
}

func (t *responseTarget) RenderError(err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, correlation.ErrSeedQueryFailed) {
		status = http.StatusBadGateway
	}
	http.Error(t.w, http.StatusText(status), status)
}

type noNavigation struct{}

func (noNavigation) OpenDetail(context.Context, string) {}

func isCloudEvent(r *http.Request) bool {
	return r.Header.Get("Ce-Specversion") != "" ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/cloudevents")
}

func paging(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	limit = defaultPageSize

	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", s)
		}
	}
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("invalid limit %q", s)
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}

	return offset, limit, nil
}

// depth reads the optional depth parameter, capped at maxDepth.
func depth(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("depth")
	if s == "" {
		return def, nil
	}

	d, err := strconv.Atoi(s)
	if err != nil || d < 1 {
		return 0, fmt.Errorf("invalid depth %q", s)
	}
	if d > maxDepth {
		d = maxDepth
	}

	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
