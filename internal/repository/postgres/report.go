package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/model"
)

var _ model.ReportStore = (*ReportRepository)(nil)

type ReportRepository struct {
	db *Connection
}

func NewReportRepository(db *Connection) *ReportRepository {
	return &ReportRepository{
		db: db,
	}
}

func (r *ReportRepository) Create(ctx context.Context, record model.ReportRecord) (model.ReportRecord, error) {
	query := `INSERT INTO reports (id, owner_id, stored_name, created_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, owner_id, stored_name, created_at`

	var saved model.ReportRecord
	err := r.db.QueryRowContext(ctx, query, record.ID, record.OwnerID, record.StoredName, record.CreatedAt).
		Scan(&saved.ID, &saved.OwnerID, &saved.StoredName, &saved.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return model.ReportRecord{}, fmt.Errorf("%w: owner %s does not exist", model.ErrStorage, record.OwnerID)
		}
		return model.ReportRecord{}, fmt.Errorf("failed to create report: %w", err)
	}

	return saved, nil
}

func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]model.ReportRecord, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = model.DefaultPageSize
	}
	offset, ok := model.PageOffset(page, pageSize)
	if !ok {
		return []model.ReportRecord{}, nil
	}

	query := `SELECT id, owner_id, stored_name, created_at
			  FROM reports
			  WHERE owner_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, ownerID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := make([]model.ReportRecord, 0, pageSize)
	for rows.Next() {
		var rec model.ReportRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.StoredName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return records, nil
}

func (r *ReportRepository) GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, storedName string) (model.ReportRecord, error) {
	query := `SELECT id, owner_id, stored_name, created_at
			  FROM reports
			  WHERE owner_id = $1 AND stored_name = $2`

	var rec model.ReportRecord
	err := r.db.QueryRowContext(ctx, query, ownerID, storedName).
		Scan(&rec.ID, &rec.OwnerID, &rec.StoredName, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ReportRecord{}, model.ErrNotFound
		}
		return model.ReportRecord{}, fmt.Errorf("failed to get report: %w", err)
	}

	return rec, nil
}
