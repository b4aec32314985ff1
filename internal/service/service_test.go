package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/model"
	memrepo "github.com/restoinsight/insights-server/internal/repository/memory"
	memstore "github.com/restoinsight/insights-server/internal/storage/memory"
	"github.com/restoinsight/insights-server/internal/testutil"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// generatorFunc adapts a function to model.ContentGenerator and counts calls.
type generatorFunc struct {
	fn    func(ctx context.Context, prompt string) (string, error)
	calls atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func newGenerator(fn func(ctx context.Context, prompt string) (string, error)) *generatorFunc {
	return &generatorFunc{fn: fn}
}

func (g *generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.fn(ctx, prompt)
}

func okGenerator() *generatorFunc {
	return newGenerator(func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Forecast"):
			return "Pizza sales will grow.", nil
		case strings.Contains(prompt, "campaign"):
			return "Instagram giveaway in July.", nil
		}
		return "Offer a lunch combo.", nil
	})
}

type rendererFunc func(ctx context.Context, html string) ([]byte, error)

func (f rendererFunc) Render(ctx context.Context, html string) ([]byte, error) {
	return f(ctx, html)
}

func pdfRenderer() rendererFunc {
	return func(_ context.Context, html string) ([]byte, error) {
		return []byte("%PDF-1.4\n" + html), nil
	}
}

// MockArtifactStore mocks the ArtifactStore interface
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Save(ctx context.Context, ownerID uuid.UUID, name, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, ownerID, name, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) Open(ctx context.Context, ownerID uuid.UUID, storedName string) (model.Artifact, error) {
	args := m.Called(ctx, ownerID, storedName)
	return args.Get(0).(model.Artifact), args.Error(1)
}

func (m *MockArtifactStore) Delete(ctx context.Context, ownerID uuid.UUID, storedName string) error {
	args := m.Called(ctx, ownerID, storedName)
	return args.Error(0)
}

// MockReportStore mocks the ReportStore interface
type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) Create(ctx context.Context, record model.ReportRecord) (model.ReportRecord, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(model.ReportRecord), args.Error(1)
}

func (m *MockReportStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]model.ReportRecord, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]model.ReportRecord), args.Error(1)
}

func (m *MockReportStore) GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, storedName string) (model.ReportRecord, error) {
	args := m.Called(ctx, ownerID, storedName)
	return args.Get(0).(model.ReportRecord), args.Error(1)
}

type fixture struct {
	accounts  *memrepo.AccountRepository
	reports   *memrepo.ReportRepository
	artifacts *memstore.Store
	quota     *Quota
	history   *History
}

func newFixture() *fixture {
	accounts := memrepo.NewAccountRepository()
	reports := memrepo.NewReportRepository(accounts)
	artifacts := memstore.NewStore()
	log := testutil.MakeNoopLogger()

	q := NewQuota(accounts, log)
	q.now = func() time.Time { return fixedNow }

	return &fixture{
		accounts:  accounts,
		reports:   reports,
		artifacts: artifacts,
		quota:     q,
		history:   NewHistory(reports, artifacts, log),
	}
}

func (f *fixture) report(gen model.ContentGenerator, rend model.Renderer, opts ...ReportOption) *Report {
	r := NewReport(f.accounts, f.reports, f.artifacts, f.quota, gen, rend, testutil.MakeNoopLogger(), opts...)
	r.now = func() time.Time { return fixedNow }
	return r
}

// account seeds a verified account with the given tier and quota state.
func (f *fixture) account(tier model.Tier, used int, windowStart time.Time) model.Account {
	a := model.NewAccount(uuid.NewString()+"@example.com", []byte("hash"), windowStart)
	a.Verified = true
	a.Tier = tier
	a.QuotaUsed = used
	f.accounts.Put(a)
	return a
}

func sampleRows() [][]string {
	return [][]string{
		{"date", "item", "qty", "revenue"},
		{"2024-05-30", "margherita", "14", "168.00"},
		{"2024-05-31", "carbonara", "9", "117.00"},
	}
}
