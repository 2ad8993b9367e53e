package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
)

// PutRoom inserts or replaces a sketched room.
func (s *Store) PutRoom(ctx context.Context, room domain.Room) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(room.ID) == "" {
		return fmt.Errorf("room id is required")
	}
	if strings.TrimSpace(room.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	polygonJSON, err := json.Marshal(room.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO rooms (
		   id, session_id, name, view_type, polygon_json,
		   wall_height_ft, length_ft, width_ft
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.SessionID,
		room.Name,
		string(room.ViewType),
		string(polygonJSON),
		room.Dimensions.WallHeightFt,
		room.Dimensions.LengthFt,
		room.Dimensions.WidthFt,
	)
	if err != nil {
		return fmt.Errorf("put room: %w", err)
	}
	return nil
}

// GetRoom returns one sketched room.
func (s *Store) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, session_id, name, view_type, polygon_json,
		        wall_height_ft, length_ft, width_ft
		 FROM rooms WHERE id = ?`,
		roomID,
	)
	room, err := scanRoom(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Room{}, storage.ErrNotFound
	}
	return room, err
}

// ListRooms returns every sketched room in a session.
func (s *Store) ListRooms(ctx context.Context, sessionID string) ([]domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, name, view_type, polygon_json,
		        wall_height_ft, length_ft, width_ft
		 FROM rooms WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Missing rooms return ErrNotFound.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	return s.deleteByID(ctx, "rooms", roomID)
}

func scanRoom(scan func(dest ...any) error) (domain.Room, error) {
	var room domain.Room
	var viewType, polygonJSON string
	err := scan(
		&room.ID, &room.SessionID, &room.Name, &viewType, &polygonJSON,
		&room.Dimensions.WallHeightFt, &room.Dimensions.LengthFt, &room.Dimensions.WidthFt,
	)
	if err == sql.ErrNoRows {
		return domain.Room{}, err
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("scan room: %w", err)
	}
	room.ViewType = domain.ViewType(viewType)
	if err := json.Unmarshal([]byte(polygonJSON), &room.Polygon); err != nil {
		return domain.Room{}, fmt.Errorf("unmarshal polygon: %w", err)
	}
	return room, nil
}

// PutOpening inserts or replaces a wall opening.
func (s *Store) PutOpening(ctx context.Context, opening domain.Opening) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(opening.ID) == "" {
		return fmt.Errorf("opening id is required")
	}
	if strings.TrimSpace(opening.RoomID) == "" {
		return fmt.Errorf("room id is required")
	}

	sessionID := strings.TrimSpace(opening.SessionID)
	if sessionID == "" {
		// Resolve the owning session from the room when the caller did
		// not carry it.
		row := s.sqlDB.QueryRowContext(ctx, `SELECT session_id FROM rooms WHERE id = ?`, opening.RoomID)
		if err := row.Scan(&sessionID); err == sql.ErrNoRows {
			return fmt.Errorf("room %s: %w", opening.RoomID, storage.ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("resolve opening session: %w", err)
		}
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO openings (
		   id, room_id, session_id, kind, wall_index, width_ft, height_ft
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		opening.ID,
		opening.RoomID,
		sessionID,
		opening.Kind,
		opening.WallIndex,
		opening.WidthFt,
		opening.HeightFt,
	)
	if err != nil {
		return fmt.Errorf("put opening: %w", err)
	}
	return nil
}

// ListOpeningsForSession returns every opening in a session.
func (s *Store) ListOpeningsForSession(ctx context.Context, sessionID string) ([]domain.Opening, error) {
	return s.listOpenings(ctx, "session_id", sessionID)
}

// ListOpeningsForRoom returns every opening in one room.
func (s *Store) ListOpeningsForRoom(ctx context.Context, roomID string) ([]domain.Opening, error) {
	return s.listOpenings(ctx, "room_id", roomID)
}

func (s *Store) listOpenings(ctx context.Context, column, value string) ([]domain.Opening, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, room_id, kind, wall_index, width_ft, height_ft
		 FROM openings WHERE `+column+` = ? ORDER BY id`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("list openings: %w", err)
	}
	defer rows.Close()

	var openings []domain.Opening
	for rows.Next() {
		var opening domain.Opening
		err := rows.Scan(
			&opening.ID, &opening.SessionID, &opening.RoomID, &opening.Kind,
			&opening.WallIndex, &opening.WidthFt, &opening.HeightFt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan opening: %w", err)
		}
		openings = append(openings, opening)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list openings: %w", err)
	}
	return openings, nil
}

// DeleteOpening removes an opening. Missing openings return ErrNotFound.
func (s *Store) DeleteOpening(ctx context.Context, openingID string) error {
	return s.deleteByID(ctx, "openings", openingID)
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
