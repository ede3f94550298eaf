package alarms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/google/uuid"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/alarm-correlation/pkg/types"
)

var ErrAlarmNotFound = database.ErrAlarmNotFound

// querySizeLimit caps the number of symptoms returned for a single parent.
const querySizeLimit int = 1000

type AlarmService interface {
	GetByID(ctx context.Context, alarmID string, tenants []string) (types.Alarm, error)
	Query(ctx context.Context, p correlation.Predicate, tenants []string) ([]types.Alarm, error)
	List(ctx context.Context, offset, limit int, tenants []string) (types.Collection[types.Alarm], error)
	Add(ctx context.Context, alarm types.Alarm) error
	Sync(ctx context.Context, alarm types.Alarm) error
	Clear(ctx context.Context, alarmID string, tenants []string) error

	QuerySource(tenants []string) correlation.QuerySource
}

//go:generate moq -rm -out publisher_mock.go . Publisher
type Publisher interface {
	PublishOnTopic(ctx context.Context, message messaging.TopicMessage) error
}

type alarmSvc struct {
	storage   database.AlarmRepository
	publisher Publisher
}

func New(storage database.AlarmRepository, publisher Publisher) AlarmService {
	return &alarmSvc{
		storage:   storage,
		publisher: publisher,
	}
}

func (svc *alarmSvc) GetByID(ctx context.Context, alarmID string, tenants []string) (types.Alarm, error) {
	return svc.storage.GetAlarm(ctx, database.WithAlarmID(alarmID), database.WithTenants(tenants))
}

// Query answers a single predicate lookup. No match is an empty result.
func (svc *alarmSvc) Query(ctx context.Context, p correlation.Predicate, tenants []string) ([]types.Alarm, error) {
	if p.Value == "" {
		return []types.Alarm{}, nil
	}

	switch p.Field {
	case correlation.FieldID:
		a, err := svc.GetByID(ctx, p.Value, tenants)
		if err != nil {
			if errors.Is(err, ErrAlarmNotFound) {
				return []types.Alarm{}, nil
			}
			return nil, err
		}
		return []types.Alarm{a}, nil
	case correlation.FieldParentID:
		result, err := svc.storage.QueryAlarms(ctx, database.WithParentID(p.Value), database.WithTenants(tenants), database.WithLimit(querySizeLimit))
		if err != nil {
			return nil, err
		}
		if result.TotalCount > result.Count {
			log := logging.GetLoggerFromContext(ctx)
			log.Warn().Msgf("query %s matched %d alarms, only %d returned", p, result.TotalCount, result.Count)
		}
		return result.Data, nil
	}

	return nil, fmt.Errorf("unsupported query field %q", p.Field)
}

func (svc *alarmSvc) List(ctx context.Context, offset, limit int, tenants []string) (types.Collection[types.Alarm], error) {
	return svc.storage.QueryAlarms(ctx, database.WithOffset(offset), database.WithLimit(limit), database.WithTenants(tenants))
}

// Add stores the alarm and lets the rest of the platform know about it.
func (svc *alarmSvc) Add(ctx context.Context, alarm types.Alarm) error {
	alarm = prepare(alarm)

	created, err := svc.storage.SaveAlarm(ctx, alarm)
	if err != nil {
		return err
	}

	if created {
		return svc.publisher.PublishOnTopic(ctx, &types.AlarmCreated{
			Alarm:     alarm,
			Tenant:    alarm.Tenant,
			Timestamp: alarm.ObservedAt,
		})
	}

	return svc.publisher.PublishOnTopic(ctx, &types.AlarmUpdated{
		Alarm:     alarm,
		Tenant:    alarm.Tenant,
		Timestamp: alarm.ObservedAt,
	})
}

// Sync stores an alarm received from the alarm manager without publishing it again.
func (svc *alarmSvc) Sync(ctx context.Context, alarm types.Alarm) error {
	if alarm.ID == "" {
		return fmt.Errorf("no id is set on alarm")
	}

	_, err := svc.storage.SaveAlarm(ctx, prepare(alarm))
	return err
}

func (svc *alarmSvc) Clear(ctx context.Context, alarmID string, tenants []string) error {
	alarm, err := svc.GetByID(ctx, alarmID, tenants)
	if err != nil {
		return err
	}

	if alarm.State == types.StateCleared {
		return nil
	}

	alarm.State = types.StateCleared
	alarm.ObservedAt = time.Now().UTC()

	_, err = svc.storage.SaveAlarm(ctx, alarm)
	if err != nil {
		return err
	}

	return svc.publisher.PublishOnTopic(ctx, &types.AlarmCleared{
		ID:        alarm.ID,
		Tenant:    alarm.Tenant,
		Timestamp: alarm.ObservedAt,
	})
}

// QuerySource exposes the alarms visible to tenants to the correlation views.
// A nil tenant list means no tenant restriction.
func (svc *alarmSvc) QuerySource(tenants []string) correlation.QuerySource {
	return correlation.QuerySourceFunc(func(ctx context.Context, p correlation.Predicate) ([]types.Alarm, error) {
		return svc.Query(ctx, p, tenants)
	})
}

func prepare(alarm types.Alarm) types.Alarm {
	if alarm.ID == "" {
		alarm.ID = uuid.NewString()
	}
	if alarm.ObservedAt.IsZero() {
		alarm.ObservedAt = time.Now().UTC()
	}
	return alarm.Normalize()
}
