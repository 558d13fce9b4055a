package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

// AppendTelemetryEvent records an operational telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	attributesJSON := "{}"
	if len(evt.Attributes) > 0 {
		payload, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("marshal telemetry attributes: %w", err)
		}
		attributesJSON = string(payload)
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO telemetry_events (timestamp, event_name, severity, aggregate_id, seq, attributes_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		toMillis(evt.Timestamp),
		evt.EventName,
		evt.Severity,
		evt.AggregateID,
		int64(evt.Seq),
		attributesJSON,
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns the most recent telemetry events, newest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, limit int) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return []storage.TelemetryEvent{}, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT timestamp, event_name, severity, aggregate_id, seq, attributes_json
		 FROM telemetry_events
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	events := make([]storage.TelemetryEvent, 0, limit)
	for rows.Next() {
		var (
			evt             storage.TelemetryEvent
			timestampMillis int64
			seq             int64
			attributesJSON  string
		)
		if err := rows.Scan(&timestampMillis, &evt.EventName, &evt.Severity, &evt.AggregateID, &seq, &attributesJSON); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		evt.Timestamp = fromMillis(timestampMillis)
		evt.Seq = uint64(seq)
		if strings.TrimSpace(attributesJSON) != "" && attributesJSON != "{}" {
			attributes := map[string]string{}
			if err := json.Unmarshal([]byte(attributesJSON), &attributes); err != nil {
				return nil, fmt.Errorf("unmarshal telemetry attributes: %w", err)
			}
			evt.Attributes = attributes
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return events, nil
}
