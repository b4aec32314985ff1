package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/storage"
)

// History serves an account's own reports and nothing else.
type History struct {
	reports   model.ReportStore
	artifacts model.ArtifactStore
	logger    *logger.Logger
}

func NewHistory(reports model.ReportStore, artifacts model.ArtifactStore, logger *logger.Logger) *History {
	return &History{
		reports:   reports,
		artifacts: artifacts,
		logger:    logger,
	}
}

func (s *History) List(ctx context.Context, accountID uuid.UUID, page int) ([]model.ReportRecord, error) {
	if page < 1 {
		page = 1
	}

	records, err := s.reports.ListByOwner(ctx, accountID, page, model.DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list reports: %v", model.ErrStorage, err)
	}

	return records, nil
}

func (s *History) Fetch(ctx context.Context, accountID uuid.UUID, storedName string) (model.Artifact, error) {
	if !storage.ValidName(storedName) {
		s.logger.Warn("History service: rejected artifact name",
			"account_id", accountID,
			"name", storedName)
		return model.Artifact{}, model.ErrNotFound
	}

	record, err := s.reports.GetByOwnerAndName(ctx, accountID, storedName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Artifact{}, model.ErrNotFound
		}
		return model.Artifact{}, fmt.Errorf("%w: failed to get report: %v", model.ErrStorage, err)
	}

	artifact, err := s.artifacts.Open(ctx, record.OwnerID, record.StoredName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("History service: record without artifact",
				"account_id", accountID,
				"report_id", record.ID)
			return model.Artifact{}, model.ErrNotFound
		}
		return model.Artifact{}, fmt.Errorf("%w: failed to open artifact: %v", model.ErrStorage, err)
	}

	return artifact, nil
}
