package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// PutDamage inserts or replaces an observed damage.
func (s *Store) PutDamage(ctx context.Context, damage domain.Damage) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(damage.ID) == "" {
		return fmt.Errorf("damage id is required")
	}
	if strings.TrimSpace(damage.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO damages (id, room_id, session_id, damage_type, severity)
		 VALUES (?, ?, ?, ?, ?)`,
		damage.ID,
		damage.RoomID,
		damage.SessionID,
		damage.DamageType,
		string(damage.Severity),
	)
	if err != nil {
		return fmt.Errorf("put damage: %w", err)
	}
	return nil
}

// ListDamagesForSession returns every damage observed in a session.
func (s *Store) ListDamagesForSession(ctx context.Context, sessionID string) ([]domain.Damage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, room_id, damage_type, severity
		 FROM damages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list damages: %w", err)
	}
	defer rows.Close()

	var damages []domain.Damage
	for rows.Next() {
		var damage domain.Damage
		var severity string
		err := rows.Scan(&damage.ID, &damage.SessionID, &damage.RoomID, &damage.DamageType, &severity)
		if err != nil {
			return nil, fmt.Errorf("scan damage: %w", err)
		}
		damage.Severity = domain.DamageSeverity(severity)
		damages = append(damages, damage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list damages: %w", err)
	}
	return damages, nil
}

// DeleteDamage removes a damage record. Missing records return ErrNotFound.
func (s *Store) DeleteDamage(ctx context.Context, damageID string) error {
	return s.deleteByID(ctx, "damages", damageID)
}

// PutLineItem inserts or replaces an estimate line item.
func (s *Store) PutLineItem(ctx context.Context, item domain.LineItem) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("line item id is required")
	}
	if strings.TrimSpace(item.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	var ageYears any
	if item.AgeYears != nil {
		ageYears = *item.AgeYears
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO line_items (
		   id, session_id, room_id, damage_id, category, description,
		   quantity, unit, unit_price,
		   rcv_total, acv_total, material_total, labor_total, equipment_total,
		   material_pct, labor_pct, equipment_pct,
		   depreciation_pct, depreciation_amount, depreciation_type, age_years,
		   trade_code, provenance
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SessionID, item.RoomID, item.DamageID, item.Category, item.Description,
		item.Quantity, item.Unit, item.UnitPrice,
		item.RCVTotal, item.ACVTotal, item.MaterialTotal, item.LaborTotal, item.EquipmentTotal,
		item.MaterialPct, item.LaborPct, item.EquipmentPct,
		item.DepreciationPct, item.DepreciationAmount, string(item.DepreciationType), ageYears,
		item.TradeCode, item.Provenance,
	)
	if err != nil {
		return fmt.Errorf("put line item: %w", err)
	}
	return nil
}

// ListLineItems returns every estimate line item in a session.
func (s *Store) ListLineItems(ctx context.Context, sessionID string) ([]domain.LineItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, room_id, damage_id, category, description,
		        quantity, unit, unit_price,
		        rcv_total, acv_total, material_total, labor_total, equipment_total,
		        material_pct, labor_pct, equipment_pct,
		        depreciation_pct, depreciation_amount, depreciation_type, age_years,
		        trade_code, provenance
		 FROM line_items WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		var depType string
		var ageYears *float64
		err := rows.Scan(
			&item.ID, &item.SessionID, &item.RoomID, &item.DamageID, &item.Category, &item.Description,
			&item.Quantity, &item.Unit, &item.UnitPrice,
			&item.RCVTotal, &item.ACVTotal, &item.MaterialTotal, &item.LaborTotal, &item.EquipmentTotal,
			&item.MaterialPct, &item.LaborPct, &item.EquipmentPct,
			&item.DepreciationPct, &item.DepreciationAmount, &depType, &ageYears,
			&item.TradeCode, &item.Provenance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		item.DepreciationType = domain.DepreciationType(depType)
		item.AgeYears = ageYears
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	return items, nil
}

// DeleteLineItem removes a line item. Missing records return ErrNotFound.
func (s *Store) DeleteLineItem(ctx context.Context, itemID string) error {
	return s.deleteByID(ctx, "line_items", itemID)
}

// PutScopeItem inserts or replaces a scoping note.
func (s *Store) PutScopeItem(ctx context.Context, item domain.ScopeItem) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("scope item id is required")
	}
	if strings.TrimSpace(item.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO scope_items (
		   id, session_id, room_id, damage_id, category, description, provenance
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SessionID, item.RoomID, item.DamageID,
		item.Category, item.Description, item.Provenance,
	)
	if err != nil {
		return fmt.Errorf("put scope item: %w", err)
	}
	return nil
}

// ListScopeItems returns every scoping note in a session.
func (s *Store) ListScopeItems(ctx context.Context, sessionID string) ([]domain.ScopeItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, room_id, damage_id, category, description, provenance
		 FROM scope_items WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scope items: %w", err)
	}
	defer rows.Close()

	var items []domain.ScopeItem
	for rows.Next() {
		var item domain.ScopeItem
		err := rows.Scan(
			&item.ID, &item.SessionID, &item.RoomID, &item.DamageID,
			&item.Category, &item.Description, &item.Provenance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scope item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scope items: %w", err)
	}
	return items, nil
}

// DeleteScopeItem removes a scoping note. Missing records return ErrNotFound.
func (s *Store) DeleteScopeItem(ctx context.Context, itemID string) error {
	return s.deleteByID(ctx, "scope_items", itemID)
}
