package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// Organization is an employer with its overtime configuration. WorkRule is
// nil until the organization has been configured.
type Organization struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	WorkRule  *payroll.WorkRule `json:"workRule"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// WorkType is a kind of work an organization recognizes. A nil Rule
// inherits the organization rule.
type WorkType struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organizationId"`
	Name           string            `json:"name"`
	Rule           *payroll.WorkRule `json:"rule,omitempty"`
}

// CreateOrganization inserts a new organization. An existing ID is
// ErrConflict.
func (s *Store) CreateOrganization(ctx context.Context, org Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ruleJSON, err := marshalRule(org.WorkRule)
	if err != nil {
		return err
	}

	ts := now()
	return s.exec(ctx, `
		INSERT INTO organizations (id, name, work_rule_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, org.ID, org.Name, ruleJSON, ts, ts)
}

// UpdateOrganization replaces the name and work rule of an existing
// organization.
func (s *Store) UpdateOrganization(ctx context.Context, org Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ruleJSON, err := marshalRule(org.WorkRule)
	if err != nil {
		return err
	}
	n, err := s.execAffected(ctx, `
		UPDATE organizations SET name = ?, work_rule_json = ?, updated_at = ?
		WHERE id = ?
	`, org.Name, ruleJSON, now(), org.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("organization %s: %w", org.ID, ErrNotFound)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (s *Store) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.queryRow(ctx,
		"SELECT id, name, work_rule_json, created_at, updated_at FROM organizations WHERE id = ?", id)
	org, err := scanOrganization(row)
	if err != nil {
		return nil, notFound("organization", id, err)
	}
	return org, nil
}

// ListOrganizations returns all organizations by name.
func (s *Store) ListOrganizations(ctx context.Context) ([]Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx,
		"SELECT id, name, work_rule_json, created_at, updated_at FROM organizations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row scanner) (*Organization, error) {
	var org Organization
	var ruleJSON sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&org.ID, &org.Name, &ruleJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rule, err := unmarshalRule(ruleJSON)
	if err != nil {
		return nil, fmt.Errorf("organization %s: %w", org.ID, err)
	}
	org.WorkRule = rule
	org.CreatedAt, _ = parseTime(createdAt)
	org.UpdatedAt, _ = parseTime(updatedAt)
	return &org, nil
}

// =============================================================================
// WORK TYPES
// =============================================================================

// SaveWorkType inserts or updates a work type. A work type ID already owned
// by another organization is ErrConflict.
func (s *Store) SaveWorkType(ctx context.Context, wt WorkType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ruleJSON, err := marshalRule(wt.Rule)
	if err != nil {
		return err
	}
	n, err := s.execAffected(ctx, `
		INSERT INTO work_types (id, organization_id, name, rule_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rule_json = excluded.rule_json
		WHERE work_types.organization_id = excluded.organization_id
	`, wt.ID, wt.OrganizationID, wt.Name, ruleJSON, now())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("work type %s: %w", wt.ID, ErrConflict)
	}
	return nil
}

// ListWorkTypes returns an organization's work types.
func (s *Store) ListWorkTypes(ctx context.Context, orgID string) ([]WorkType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listWorkTypes(ctx, orgID)
}

func (s *Store) listWorkTypes(ctx context.Context, orgID string) ([]WorkType, error) {
	rows, err := s.query(ctx,
		"SELECT id, organization_id, name, rule_json FROM work_types WHERE organization_id = ? ORDER BY name", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []WorkType{}
	for rows.Next() {
		var wt WorkType
		var ruleJSON sql.NullString
		if err := rows.Scan(&wt.ID, &wt.OrganizationID, &wt.Name, &ruleJSON); err != nil {
			return nil, err
		}
		if wt.Rule, err = unmarshalRule(ruleJSON); err != nil {
			return nil, fmt.Errorf("work type %s: %w", wt.ID, err)
		}
		types = append(types, wt)
	}
	return types, rows.Err()
}

// RuleSet assembles the engine's rule set for an organization. A missing
// organization rule is left nil for the engine to reject.
func (s *Store) RuleSet(ctx context.Context, orgID string) (payroll.RuleSet, error) {
	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return payroll.RuleSet{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	types, err := s.listWorkTypes(ctx, orgID)
	if err != nil {
		return payroll.RuleSet{}, err
	}
	rs := payroll.RuleSet{
		Organization: org.WorkRule,
		WorkTypes:    make(map[string]*payroll.WorkRule, len(types)),
	}
	for _, wt := range types {
		rs.WorkTypes[wt.ID] = wt.Rule
	}
	return rs, nil
}

func marshalRule(r *payroll.WorkRule) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode work rule: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalRule(s sql.NullString) (*payroll.WorkRule, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r payroll.WorkRule
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, fmt.Errorf("failed to decode work rule: %w", err)
	}
	return &r, nil
}
