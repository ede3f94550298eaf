package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diwise/alarm-correlation/pkg/types"
)

//go:generate moq -rm -out alarmrepository_mock.go . AlarmRepository

var ErrAlarmNotFound = fmt.Errorf("alarm not found")

type AlarmRepository interface {
	QueryAlarms(ctx context.Context, conditions ...ConditionFunc) (types.Collection[types.Alarm], error)
	GetAlarm(ctx context.Context, conditions ...ConditionFunc) (types.Alarm, error)
	SaveAlarm(ctx context.Context, alarm types.Alarm) (bool, error)
}

type Alarm struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name       string
	Severity   int
	State      int
	NodeName   string
	ParentID   *string `gorm:"index"`
	IsRoot     bool
	Tenant     string `gorm:"index"`
	ObservedAt time.Time
}

func (Alarm) TableName() string {
	return "alarms"
}

func fromModel(a types.Alarm) Alarm {
	return Alarm{
		ID:         a.ID,
		Name:       a.Name,
		Severity:   int(a.Severity),
		State:      int(a.State),
		NodeName:   a.NodeName,
		ParentID:   a.ParentID,
		IsRoot:     a.IsRoot,
		Tenant:     a.Tenant,
		ObservedAt: a.ObservedAt.UTC(),
	}
}

func (a Alarm) toModel() types.Alarm {
	return types.Alarm{
		ID:         a.ID,
		Name:       a.Name,
		Severity:   types.Severity(a.Severity),
		State:      types.State(a.State),
		NodeName:   a.NodeName,
		ParentID:   a.ParentID,
		IsRoot:     a.IsRoot,
		Tenant:     a.Tenant,
		ObservedAt: a.ObservedAt,
	}.Normalize()
}

type alarmRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewAlarmRepository(connect ConnectorFunc) (AlarmRepository, error) {
	impl, log, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Alarm{})
	if err != nil {
		return nil, err
	}

	return &alarmRepository{
		db:  impl,
		log: log,
	}, nil
}

// QueryAlarms returns an empty collection, not an error, when nothing matches.
func (r *alarmRepository) QueryAlarms(ctx context.Context, conditions ...ConditionFunc) (types.Collection[types.Alarm], error) {
	c := newCondition(conditions...)

	var total int64
	err := c.where(r.db.WithContext(ctx).Model(&Alarm{})).Count(&total).Error
	if err != nil {
		return types.Collection[types.Alarm]{}, err
	}

	query, offset, limit := c.page(c.where(r.db.WithContext(ctx)).Order("created_at").Order("id"))

	rows := []Alarm{}
	err = query.Find(&rows).Error
	if err != nil {
		return types.Collection[types.Alarm]{}, err
	}

	return types.Collection[types.Alarm]{
		Data:       lo.Map(rows, func(a Alarm, _ int) types.Alarm { return a.toModel() }),
		Count:      uint64(len(rows)),
		Offset:     uint64(offset),
		Limit:      uint64(limit),
		TotalCount: uint64(total),
	}, nil
}

func (r *alarmRepository) GetAlarm(ctx context.Context, conditions ...ConditionFunc) (types.Alarm, error) {
	c := newCondition(conditions...)

	a := Alarm{}
	err := c.where(r.db.WithContext(ctx)).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Alarm{}, ErrAlarmNotFound
		}
		return types.Alarm{}, err
	}

	return a.toModel(), nil
}

// SaveAlarm inserts or replaces an alarm and reports whether it was created.
func (r *alarmRepository) SaveAlarm(ctx context.Context, alarm types.Alarm) (bool, error) {
	if alarm.ID == "" {
		return false, fmt.Errorf("alarm contains no id")
	}

	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Alarm{}).Where("id = ?", alarm.ID).Count(&count).Error; err != nil {
			return err
		}

		created = count == 0
		a := fromModel(alarm.Normalize())

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at", "name", "severity", "state", "node_name", "parent_id", "is_root", "tenant", "observed_at"}),
		}).Create(&a).Error
	})
	if err != nil {
		return false, err
	}

	if created {
		r.log.Debug().Msgf("added alarm %s, tenant: %s", alarm.ID, alarm.Tenant)
	}

	return created, nil
}
