package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
)

const leadColumns = `id, client_name, phone, phone_key, address, business_type, has_website, website_url,
	status, added_by_id, added_by_name, assigned_to_id, assigned_to_name,
	called, called_at, called_by_id, called_by_name, interest_status,
	notes, activity_log, deleted, deleted_at, deleted_by, created_at, updated_at, revision`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	row, err := newLeadRow(lead)
	if err != nil {
		return err
	}

	query := `INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26)`

	_, err = r.DB.ExecContext(ctx, query, row.args(lead.Revision)...)
	if err != nil {
		if isUniqueViolation(err, activePhoneIndex) {
			return entity.ErrDuplicatePhone
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone_key = $1 AND deleted = FALSE`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, phoneKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead by phone: %w", err)
	}
	return lead, nil
}

// Update writes every mutable column when the stored revision still equals
// expectedRevision, and sets lead.Revision to the stored value.
func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead, expectedRevision int64) error {
	row, err := newLeadRow(lead)
	if err != nil {
		return err
	}

	query := `UPDATE leads SET
			status = $3, assigned_to_id = $4, assigned_to_name = $5,
			called = $6, called_at = $7, called_by_id = $8, called_by_name = $9,
			interest_status = $10, notes = $11, activity_log = $12,
			deleted = $13, deleted_at = $14, deleted_by = $15,
			updated_at = $16, revision = revision + 1
		WHERE id = $1 AND revision = $2
		RETURNING revision`

	var revision int64
	err = r.DB.QueryRowContext(ctx, query,
		lead.ID,
		expectedRevision,
		row.status,
		row.assignedToID,
		row.assignedToName,
		row.called,
		row.calledAt,
		row.calledByID,
		row.calledByName,
		row.interestStatus,
		string(row.notes),
		string(row.activityLog),
		row.deleted,
		row.deletedAt,
		row.deletedBy,
		row.updatedAt,
	).Scan(&revision)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.missOrConflict(ctx, lead.ID)
	case isUniqueViolation(err, activePhoneIndex):
		return entity.ErrDuplicatePhone
	case isCheckViolation(err):
		return entity.ErrAlreadyCalled
	case err != nil:
		return fmt.Errorf("update lead: %w", err)
	}

	lead.Revision = revision
	return nil
}

func (r *LeadRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if !exists {
		return entity.ErrLeadNotFound
	}
	return entity.ErrRevisionConflict
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	query, args := buildListQuery(filter)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]*entity.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func buildListQuery(filter entity.LeadFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	if !filter.IncludeDeleted {
		where = append(where, "deleted = FALSE")
	}
	if filter.AddedByID != "" {
		args = append(args, filter.AddedByID)
		where = append(where, fmt.Sprintf("added_by_id = $%d", len(args)))
	}
	if filter.AssignedToID != "" {
		args = append(args, filter.AssignedToID)
		where = append(where, fmt.Sprintf("assigned_to_id = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	return query, args
}
