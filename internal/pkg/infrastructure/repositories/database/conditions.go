package database

import (
	"gorm.io/gorm"
)

type ConditionFunc func(*Condition) *Condition

// Condition is an equality filter over the alarm table. A non nil Tenants
// restricts the result to alarms owned by one of the listed tenants, an empty
// list matches nothing.
type Condition struct {
	AlarmID  string
	ParentID string
	Tenants  []string

	offset *int
	limit  *int
}

func WithAlarmID(alarmID string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.AlarmID = alarmID
		return c
	}
}

func WithParentID(parentID string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.ParentID = parentID
		return c
	}
}

func WithTenants(tenants []string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Tenants = tenants
		return c
	}
}

func WithOffset(offset int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.offset = &offset
		return c
	}
}

func WithLimit(limit int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.limit = &limit
		return c
	}
}

func newCondition(conditions ...ConditionFunc) *Condition {
	c := &Condition{}
	for _, f := range conditions {
		f(c)
	}
	return c
}

func (c *Condition) where(db *gorm.DB) *gorm.DB {
	if c.AlarmID != "" {
		db = db.Where("id = ?", c.AlarmID)
	}
	if c.ParentID != "" {
		db = db.Where("parent_id = ?", c.ParentID)
	}
	if c.Tenants != nil {
		db = db.Where("tenant IN ?", c.Tenants)
	}
	return db
}

func (c *Condition) page(db *gorm.DB) (*gorm.DB, int, int) {
	offset, limit := 0, 0
	if c.offset != nil && *c.offset > 0 {
		offset = *c.offset
		db = db.Offset(offset)
	}
	if c.limit != nil && *c.limit > 0 {
		limit = *c.limit
		db = db.Limit(limit)
	}
	return db, offset, limit
}
