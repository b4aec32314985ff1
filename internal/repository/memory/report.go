package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/model"
)

var _ model.ReportStore = (*ReportRepository)(nil)

// ReportRepository is an append-only in-memory report log.
type ReportRepository struct {
	mu       sync.RWMutex
	accounts *AccountRepository
	records  []model.ReportRecord
}

func NewReportRepository(accounts *AccountRepository) *ReportRepository {
	return &ReportRepository{accounts: accounts}
}

func (r *ReportRepository) Create(_ context.Context, record model.ReportRecord) (model.ReportRecord, error) {
	if !r.accounts.exists(record.OwnerID) {
		return model.ReportRecord{}, fmt.Errorf("%w: owner %s does not exist", model.ErrStorage, record.OwnerID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return record, nil
}

func (r *ReportRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, page, pageSize int) ([]model.ReportRecord, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = model.DefaultPageSize
	}

	r.mu.RLock()
	owned := make([]model.ReportRecord, 0)
	for _, rec := range r.records {
		if rec.OwnerID == ownerID {
			owned = append(owned, rec)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(owned, func(a, b model.ReportRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})

	offset, ok := model.PageOffset(page, pageSize)
	if !ok || offset >= len(owned) {
		return []model.ReportRecord{}, nil
	}
	end := offset + min(pageSize, len(owned)-offset)
	return owned[offset:end], nil
}

func (r *ReportRepository) GetByOwnerAndName(_ context.Context, ownerID uuid.UUID, storedName string) (model.ReportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.OwnerID == ownerID && rec.StoredName == storedName {
			return rec, nil
		}
	}
	return model.ReportRecord{}, model.ErrNotFound
}
