package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/diwise/alarm-correlation/internal/pkg/application/alarms"
	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/internal/pkg/application/navigation"
	"github.com/diwise/alarm-correlation/internal/pkg/application/webevents"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/router"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/tracing"
	"github.com/diwise/alarm-correlation/internal/pkg/presentation/api"
	"github.com/diwise/alarm-correlation/internal/pkg/presentation/api/auth"
	"github.com/diwise/alarm-correlation/internal/pkg/presentation/gui"
)

const serviceName string = "alarm-correlation"

type flagType int
type flagMap map[flagType]string

const (
	listenAddress flagType = iota
	servicePort
	controlPort

	policiesFile
	configurationFile
	alarmsFile

	otelEndpoint

	devmode
)

func defaultFlags() flagMap {
	return flagMap{
		listenAddress: "0.0.0.0",
		servicePort:   "8080",
		controlPort:   "8000",

		policiesFile:      "/opt/diwise/config/authz.rego",
		configurationFile: "/opt/diwise/config/correlation.yaml",
		alarmsFile:        "",

		otelEndpoint: "",

		devmode: "false",
	}
}

func main() {
	serviceVersion := version()

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	flags := parseExternalConfig(defaultFlags())

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion, flags[otelEndpoint])
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer cleanup()

	cfg, err := loadCorrelationConfig(logger, flags[configurationFile])
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load correlation configuration")
	}

	policies, err := os.Open(flags[policiesFile])
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to open opa policy file")
	}
	defer policies.Close()

	connect := database.NewPostgreSQLConnector(ctx, database.LoadConfigFromEnv(ctx))
	if flags[devmode] == "true" {
		connect = database.NewSQLiteConnector(ctx)
	}

	repo, err := database.NewAlarmRepository(connect)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create or connect to database")
	}

	if flags[alarmsFile] != "" {
		seedAlarms(ctx, logger, repo, flags[alarmsFile])
	}

	var publisher alarms.Publisher = &logPublisher{logger: logger}
	var messenger messaging.MsgContext

	if flags[devmode] != "true" {
		messenger, err = messaging.Initialize(messaging.LoadConfiguration(serviceName, logger))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init messenger")
		}
		defer messenger.Close()
		publisher = messenger
	}

	svc := alarms.New(repo, publisher)
	if messenger != nil {
		alarms.RegisterTopicMessageHandlers(messenger, svc)
	}

	events := webevents.New(gui.SessionOf)
	defer events.Shutdown()

	r, err := setupRouter(ctx, logger, svc, *cfg, policies, events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to setup router")
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", flags[listenAddress], flags[controlPort])
		logger.Info().Str("addr", addr).Msg("starting control server")
		if err := http.ListenAndServe(addr, controlRouter()); err != nil {
			logger.Error().Err(err).Msg("control server failed")
		}
	}()

	addr := fmt.Sprintf("%s:%s", flags[listenAddress], flags[servicePort])
	logger.Info().Str("addr", addr).Msg("starting to listen for connections")

	err = http.ListenAndServe(addr, r)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start router")
	}
}

func setupRouter(ctx context.Context, logger zerolog.Logger, svc alarms.AlarmService, cfg correlation.Configuration, policies io.Reader, events webevents.WebEvents) (*chi.Mux, error) {
	r := router.New(serviceName, logger)

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	_, err = api.RegisterHandlers(ctx, r, authenticator, svc, cfg)
	if err != nil {
		return nil, err
	}

	nav := navigation.New(svc.QuerySource, cfg.Correlation, correlation.NewFormatter(cfg.Labels), events)

	_, err = gui.RegisterHandlers(logger, r, authenticator, nav, events)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func controlRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func loadCorrelationConfig(logger zerolog.Logger, path string) (*correlation.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info().Msgf("no correlation configuration found at %s, using defaults", path)
			return &correlation.Configuration{Correlation: correlation.DefaultConfig()}, nil
		}
		return nil, err
	}
	defer f.Close()

	return correlation.LoadConfiguration(f)
}

func seedAlarms(ctx context.Context, logger zerolog.Logger, repo database.AlarmRepository, path string) {
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open alarms file")
	}
	defer f.Close()

	count, err := database.SeedAlarms(ctx, repo, f)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed alarms")
	}

	logger.Info().Msgf("seeded %d alarms from %s", count, path)
}

// logPublisher stands in for the message broker in dev mode.
type logPublisher struct {
	logger zerolog.Logger
}

func (p *logPublisher) PublishOnTopic(ctx context.Context, message messaging.TopicMessage) error {
	p.logger.Debug().Msgf("not publishing %s on topic %s in dev mode", message.ContentType(), message.TopicName())
	return nil
}

func parseExternalConfig(flags flagMap) flagMap {
	// Allow environment variables to override certain defaults
	envOrDef := func(name, def string) string {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		return def
	}

	flags[listenAddress] = envOrDef("LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef("SERVICE_PORT", flags[servicePort])
	flags[controlPort] = envOrDef("CONTROL_PORT", flags[controlPort])
	flags[policiesFile] = envOrDef("POLICIES_FILE", flags[policiesFile])
	flags[configurationFile] = envOrDef("CORRELATION_CONFIG", flags[configurationFile])
	flags[alarmsFile] = envOrDef("ALARMS_FILE", flags[alarmsFile])
	flags[otelEndpoint] = envOrDef("OTEL_EXPORTER_OTLP_ENDPOINT", flags[otelEndpoint])
	flags[devmode] = strings.ToLower(envOrDef("DEV_MODE", flags[devmode]))

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("policies", "an authorization policy file", apply(policiesFile))
	flag.Func("config", "correlation configuration file", apply(configurationFile))
	flag.Func("alarms", "alarms to seed the database with", apply(alarmsFile))
	flag.Func("devmode", "enable dev mode", apply(devmode))
	flag.Parse()

	return flags
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}
