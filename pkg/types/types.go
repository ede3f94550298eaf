package types

import (
	"strings"
	"time"
)

type Severity int

const (
	SeverityUnspecified Severity = 0
	SeverityInfo        Severity = 1
	SeverityWarning     Severity = 2
	SeverityMinor       Severity = 3
	SeverityMajor       Severity = 4
	SeverityCritical    Severity = 5
)

var severityNames = []string{"Unspecified", "Info", "Warning", "Minor", "Major", "Critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return severityNames[0]
	}
	return severityNames[s]
}

type State int

const (
	StateUnspecified  State = 0
	StateActive       State = 1
	StateAcknowledged State = 2
	StateCleared      State = 3
	StateSuppressed   State = 4
)

var stateNames = []string{"Unspecified", "Active", "Acknowledged", "Cleared", "Suppressed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return stateNames[0]
	}
	return stateNames[s]
}

// Alarm is a read-only snapshot of an alarm as seen by the correlation views.
// ParentID references the root cause alarm, nil when no root cause is known.
type Alarm struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Severity   Severity  `json:"severity"`
	State      State     `json:"state"`
	NodeName   string    `json:"nodeName,omitempty"`
	ParentID   *string   `json:"parentID,omitempty"`
	IsRoot     bool      `json:"isRoot"`
	Tenant     string    `json:"tenant,omitempty"`
	ObservedAt time.Time `json:"observedAt"`
}

func (a Alarm) HasParent() bool {
	return a.ParentID != nil
}

// ParentIs reports whether the alarm points at id as its root cause.
func (a Alarm) ParentIs(id string) bool {
	return a.ParentID != nil && *a.ParentID == id
}

// DisplayName falls back to the id for alarms without a name.
func (a Alarm) DisplayName() string {
	if strings.TrimSpace(a.Name) == "" {
		return a.ID
	}
	return a.Name
}

// Normalize turns an empty parent reference into "no parent".
func (a Alarm) Normalize() Alarm {
	if a.ParentID != nil && strings.TrimSpace(*a.ParentID) == "" {
		a.ParentID = nil
	}
	return a
}

func StringRef(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type Role string

const (
	RoleRoot    Role = "ROOT"
	RoleSymptom Role = "SYMPTOM"
)

type TreeNode struct {
	Alarm     Alarm       `json:"alarm"`
	Role      Role        `json:"role"`
	IsFocused bool        `json:"isFocused"`
	Children  []*TreeNode `json:"children,omitempty"`
}

// Correlation is the render-ready result of one correlation view.
type Correlation struct {
	FocusID string      `json:"focusID"`
	Parent  *Alarm      `json:"parent,omitempty"`
	Roots   []*TreeNode `json:"roots"`
}

type Collection[T any] struct {
	Data       []T    `json:"data"`
	Count      uint64 `json:"count"`
	Offset     uint64 `json:"offset"`
	Limit      uint64 `json:"limit"`
	TotalCount uint64 `json:"totalCount"`
}
