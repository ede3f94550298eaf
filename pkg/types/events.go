package types

import (
	"encoding/json"
	"time"
)

type AlarmCreated struct {
	Alarm     Alarm     `json:"alarm"`
	Tenant    string    `json:"tenant,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *AlarmCreated) ContentType() string {
	return "application/json"
}
func (a *AlarmCreated) TopicName() string {
	return "alarms.alarmCreated"
}
func (a *AlarmCreated) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}

type AlarmUpdated struct {
	Alarm     Alarm     `json:"alarm"`
	Tenant    string    `json:"tenant,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *AlarmUpdated) ContentType() string {
	return "application/json"
}
func (a *AlarmUpdated) TopicName() string {
	return "alarms.alarmUpdated"
}
func (a *AlarmUpdated) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}

type AlarmCleared struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"tenant,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *AlarmCleared) ContentType() string {
	return "application/json"
}
func (a *AlarmCleared) TopicName() string {
	return "alarms.alarmCleared"
}
func (a *AlarmCleared) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}
