package alarms

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/diwise/messaging-golang/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var tracer = otel.Tracer("alarm-correlation/alarms")

const (
	AlarmRaisedTopic  string = "alarms.alarmRaised"
	AlarmChangedTopic string = "alarms.alarmChanged"
)

type alarmMessage struct {
	Alarm  *types.Alarm `json:"alarm"`
	Tenant string       `json:"tenant,omitempty"`
}

// RegisterTopicMessageHandlers subscribes svc to alarm changes reported by the alarm manager.
func RegisterTopicMessageHandlers(messenger messaging.MsgContext, svc AlarmService) {
	messenger.RegisterTopicMessageHandler(AlarmRaisedTopic, NewAlarmSyncHandler(svc))
	messenger.RegisterTopicMessageHandler(AlarmChangedTopic, NewAlarmSyncHandler(svc))
}

func NewAlarmSyncHandler(svc AlarmService) messaging.TopicMessageHandler {
	return func(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
		var err error

		ctx, span := tracer.Start(ctx, "sync-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, logger = logging.AddTraceIDToLogger(ctx, span, logger)

		m := alarmMessage{}

		err = json.Unmarshal(msg.Body, &m)
		if err != nil {
			logger.Error().Err(err).Msgf("failed to unmarshal message from %s", msg.RoutingKey)
			return
		}

		if m.Alarm == nil || m.Alarm.ID == "" {
			err = errors.New("message contains no alarm")
			logger.Error().Err(err).Msgf("ignoring message from %s", msg.RoutingKey)
			return
		}

		alarm := *m.Alarm
		if alarm.Tenant == "" {
			alarm.Tenant = m.Tenant
		}

		logger = logger.With().Str("alarmID", alarm.ID).Logger()

		err = svc.Sync(ctx, alarm)
		if err != nil {
			logger.Error().Err(err).Msg("could not store alarm")
			return
		}

		logger.Debug().Msgf("%s handled", msg.RoutingKey)
	}
}
