// Package sqlite provides a SQLite-backed inspection storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/storage/sqlite/migrations"
	sqlitemigrate "github.com/openclaims/fieldgate/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists inspection state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite inspection store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutSession inserts or replaces an inspection session record.
func (s *Store) PutSession(ctx context.Context, session domain.InspectionSession) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.ClaimID) == "" {
		return fmt.Errorf("claim id is required")
	}
	startedAt := session.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = startedAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO inspection_sessions (id, claim_id, peril, started_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   claim_id = excluded.claim_id,
		   peril = excluded.peril,
		   updated_at = excluded.updated_at`,
		sessionID,
		session.ClaimID,
		string(session.Peril),
		toMillis(startedAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession returns one inspection session record.
func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.InspectionSession, error) {
	if err := s.ready(ctx); err != nil {
		return domain.InspectionSession{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, claim_id, peril, started_at, updated_at
		 FROM inspection_sessions WHERE id = ?`,
		sessionID,
	)

	var session domain.InspectionSession
	var peril string
	var startedAt, updatedAt int64
	err := row.Scan(&session.ID, &session.ClaimID, &peril, &startedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.InspectionSession{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.InspectionSession{}, fmt.Errorf("get session: %w", err)
	}
	session.Peril = domain.Peril(peril)
	session.StartedAt = fromMillis(startedAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}

// PutClaim inserts or replaces a claim record.
func (s *Store) PutClaim(ctx context.Context, claim domain.Claim) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	claimID := strings.TrimSpace(claim.ID)
	if claimID == "" {
		return fmt.Errorf("claim id is required")
	}

	coveragesJSON, err := json.Marshal(claim.Coverages)
	if err != nil {
		return fmt.Errorf("marshal coverages: %w", err)
	}
	var roofJSON any
	if claim.RoofInfo != nil {
		raw, err := json.Marshal(claim.RoofInfo)
		if err != nil {
			return fmt.Errorf("marshal roof info: %w", err)
		}
		roofJSON = string(raw)
	}

	var dateOfLoss int64
	if !claim.DateOfLoss.IsZero() {
		dateOfLoss = toMillis(claim.DateOfLoss)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO claims (
		   id, claim_number, policy_number, property_address, date_of_loss,
		   peril, adjuster_name, insured_name, coverages_json, roof_info_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		claimID,
		claim.ClaimNumber,
		claim.PolicyNumber,
		claim.PropertyAddress,
		dateOfLoss,
		string(claim.Peril),
		claim.AdjusterName,
		claim.InsuredName,
		string(coveragesJSON),
		roofJSON,
	)
	if err != nil {
		return fmt.Errorf("put claim: %w", err)
	}
	return nil
}

// GetClaim returns one claim record.
func (s *Store) GetClaim(ctx context.Context, claimID string) (domain.Claim, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Claim{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, claim_number, policy_number, property_address, date_of_loss,
		        peril, adjuster_name, insured_name, coverages_json, roof_info_json
		 FROM claims WHERE id = ?`,
		claimID,
	)

	var claim domain.Claim
	var peril, coveragesJSON string
	var roofJSON sql.NullString
	var dateOfLoss int64
	err := row.Scan(
		&claim.ID, &claim.ClaimNumber, &claim.PolicyNumber, &claim.PropertyAddress,
		&dateOfLoss, &peril, &claim.AdjusterName, &claim.InsuredName,
		&coveragesJSON, &roofJSON,
	)
	if err == sql.ErrNoRows {
		return domain.Claim{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	claim.Peril = domain.Peril(peril)
	if dateOfLoss > 0 {
		claim.DateOfLoss = fromMillis(dateOfLoss)
	}
	if err := json.Unmarshal([]byte(coveragesJSON), &claim.Coverages); err != nil {
		return domain.Claim{}, fmt.Errorf("unmarshal coverages: %w", err)
	}
	if roofJSON.Valid && roofJSON.String != "" {
		var roof domain.RoofInfo
		if err := json.Unmarshal([]byte(roofJSON.String), &roof); err != nil {
			return domain.Claim{}, fmt.Errorf("unmarshal roof info: %w", err)
		}
		claim.RoofInfo = &roof
	}
	return claim, nil
}
