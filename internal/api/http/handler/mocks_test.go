package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/restoinsight/insights-server/internal/model"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (model.Account, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Generate(ctx context.Context, accountID uuid.UUID, rows [][]string) (model.GeneratedReport, error) {
	args := m.Called(ctx, accountID, rows)
	return args.Get(0).(model.GeneratedReport), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) List(ctx context.Context, accountID uuid.UUID, page int) ([]model.ReportRecord, error) {
	args := m.Called(ctx, accountID, page)
	records, _ := args.Get(0).([]model.ReportRecord)
	return records, args.Error(1)
}

func (m *MockHistoryService) Fetch(ctx context.Context, accountID uuid.UUID, storedName string) (model.Artifact, error) {
	args := m.Called(ctx, accountID, storedName)
	return args.Get(0).(model.Artifact), args.Error(1)
}

type MockQuotaService struct {
	mock.Mock
}

func (m *MockQuotaService) Dashboard(ctx context.Context, accountID uuid.UUID) (model.QuotaSnapshot, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(model.QuotaSnapshot), args.Error(1)
}
