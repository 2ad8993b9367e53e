package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
)

// PutPhoto inserts or replaces an inspection photo.
func (s *Store) PutPhoto(ctx context.Context, photo domain.Photo) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(photo.ID) == "" {
		return fmt.Errorf("photo id is required")
	}
	if strings.TrimSpace(photo.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	var analysisJSON any
	if photo.Analysis != nil {
		raw, err := json.Marshal(photo.Analysis)
		if err != nil {
			return fmt.Errorf("marshal photo analysis: %w", err)
		}
		analysisJSON = string(raw)
	}

	matched := 0
	if photo.Matched {
		matched = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO photos (
		   id, session_id, room_id, requested_shot, matched, analysis_json
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		photo.ID, photo.SessionID, photo.RoomID, photo.RequestedShot, matched, analysisJSON,
	)
	if err != nil {
		return fmt.Errorf("put photo: %w", err)
	}
	return nil
}

// ListPhotos returns every photo captured in a session.
func (s *Store) ListPhotos(ctx context.Context, sessionID string) ([]domain.Photo, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, room_id, requested_shot, matched, analysis_json
		 FROM photos WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []domain.Photo
	for rows.Next() {
		var photo domain.Photo
		var matched int
		var analysisJSON sql.NullString
		err := rows.Scan(
			&photo.ID, &photo.SessionID, &photo.RoomID, &photo.RequestedShot,
			&matched, &analysisJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photo.Matched = matched != 0
		if analysisJSON.Valid && analysisJSON.String != "" {
			var analysis domain.PhotoAnalysis
			if err := json.Unmarshal([]byte(analysisJSON.String), &analysis); err != nil {
				return nil, fmt.Errorf("unmarshal photo analysis: %w", err)
			}
			photo.Analysis = &analysis
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// AppendAuditEvent appends an operational audit record.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	metadata := evt.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	timestamp := evt.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO audit_events (session_id, kind, severity, message, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		evt.SessionID, evt.Kind, evt.Severity, evt.Message, string(metadataJSON), toMillis(timestamp),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns a session's audit trail, oldest first.
func (s *Store) ListAuditEvents(ctx context.Context, sessionID string) ([]storage.AuditEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, kind, severity, message, metadata_json, created_at
		 FROM audit_events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []storage.AuditEvent
	for rows.Next() {
		var evt storage.AuditEvent
		var metadataJSON string
		var createdAt int64
		err := rows.Scan(&evt.SessionID, &evt.Kind, &evt.Severity, &evt.Message, &metadataJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &evt.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
		evt.Timestamp = fromMillis(createdAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
