package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/alarm-correlation/pkg/types"
)

//alarmID;name;severity;state;nodeName;parentID;isRoot;tenant
//a-001;Link down;5;1;core-sw-01;;true;default
//a-002;BGP session lost;4;1;edge-rtr-02;a-001;false;default

func SeedAlarms(ctx context.Context, r AlarmRepository, alarmsFile io.Reader) (int, error) {
	alarms, err := parseAlarms(alarmsFile)
	if err != nil {
		return 0, err
	}

	for _, a := range alarms {
		if _, err := r.SaveAlarm(ctx, a); err != nil {
			return 0, fmt.Errorf("failed to seed alarm %s: %w", a.ID, err)
		}
	}

	return len(alarms), nil
}

func parseAlarms(alarmsFile io.Reader) ([]types.Alarm, error) {
	r := csv.NewReader(alarmsFile)
	r.Comma = ';'
	r.FieldsPerRecord = 8

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv data from file: %s", err.Error())
	}

	seen := map[string]struct{}{}
	alarms := make([]types.Alarm, 0, len(rows))
	now := time.Now().UTC()

	for idx, row := range rows {
		if idx == 0 {
			// Skip the CSV header
			continue
		}

		alarmID := strings.TrimSpace(row[0])
		if alarmID == "" {
			return nil, fmt.Errorf("missing alarm id on line %d", idx+1)
		}

		if _, ok := seen[alarmID]; ok {
			return nil, fmt.Errorf("duplicate alarm id %s found on line %d", alarmID, idx+1)
		}
		seen[alarmID] = struct{}{}

		severity, err := strconv.Atoi(row[2])
		if err != nil || severity < int(types.SeverityUnspecified) || severity > int(types.SeverityCritical) {
			return nil, fmt.Errorf("bad severity for alarm %s on line %d", alarmID, idx+1)
		}

		state, err := strconv.Atoi(row[3])
		if err != nil || state < int(types.StateUnspecified) || state > int(types.StateSuppressed) {
			return nil, fmt.Errorf("bad state for alarm %s on line %d", alarmID, idx+1)
		}

		isRoot, err := strconv.ParseBool(row[6])
		if err != nil {
			return nil, fmt.Errorf("failed to parse isRoot for alarm %s: %s", alarmID, err.Error())
		}

		alarms = append(alarms, types.Alarm{
			ID:         alarmID,
			Name:       row[1],
			Severity:   types.Severity(severity),
			State:      types.State(state),
			NodeName:   row[4],
			ParentID:   types.StringRef(strings.TrimSpace(row[5])),
			IsRoot:     isRoot,
			Tenant:     row[7],
			ObservedAt: now,
		})
	}

	return alarms, nil
}
