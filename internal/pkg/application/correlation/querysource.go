package correlation

import (
	"context"
	"fmt"

	"github.com/diwise/alarm-correlation/pkg/types"
)

type Field string

const (
	FieldID       Field = "id"
	FieldParentID Field = "parentID"
)

// Predicate is an equality filter on a single alarm field.
type Predicate struct {
	Field Field
	Value string
}

func ByID(alarmID string) Predicate {
	return Predicate{Field: FieldID, Value: alarmID}
}

func ByParentID(parentID string) Predicate {
	return Predicate{Field: FieldParentID, Value: parentID}
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s=%s", p.Field, p.Value)
}

// QuerySource answers predicate lookups over the alarm collection. No matching
// rows is an empty result and a nil error, transport failures are errors.
//
//go:generate moq -rm -out querysource_mock.go . QuerySource
type QuerySource interface {
	Query(ctx context.Context, p Predicate) ([]types.Alarm, error)
}

type QuerySourceFunc func(ctx context.Context, p Predicate) ([]types.Alarm, error)

func (f QuerySourceFunc) Query(ctx context.Context, p Predicate) ([]types.Alarm, error) {
	return f(ctx, p)
}
