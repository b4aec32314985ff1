package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/generator"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/renderer"
	"golang.org/x/sync/errgroup"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html; charset=utf-8"

	DefaultGenerationTimeout = 120 * time.Second
	DefaultRenderTimeout     = 30 * time.Second
)

var headings = map[generator.Section]string{
	generator.SectionInsights: "Marketing promotion ideas",
	generator.SectionForecast: "Sales forecast",
	generator.SectionCampaign: "Campaign plan",
}

// Report turns an uploaded sales table into a stored report artifact.
type Report struct {
	accounts  model.AccountStore
	reports   model.ReportStore
	artifacts model.ArtifactStore
	quota     *Quota
	generator model.ContentGenerator
	renderer  model.Renderer
	logger    *logger.Logger

	generationTimeout time.Duration
	renderTimeout     time.Duration
	now               func() time.Time
}

type ReportOption func(*Report)

func WithGenerationTimeout(d time.Duration) ReportOption {
	return func(r *Report) {
		if d > 0 {
			r.generationTimeout = d
		}
	}
}

func WithRenderTimeout(d time.Duration) ReportOption {
	return func(r *Report) {
		if d > 0 {
			r.renderTimeout = d
		}
	}
}

func NewReport(
	accounts model.AccountStore,
	reports model.ReportStore,
	artifacts model.ArtifactStore,
	quota *Quota,
	generator model.ContentGenerator,
	renderer model.Renderer,
	logger *logger.Logger,
	opts ...ReportOption,
) *Report {
	r := &Report{
		accounts:          accounts,
		reports:           reports,
		artifacts:         artifacts,
		quota:             quota,
		generator:         generator,
		renderer:          renderer,
		logger:            logger,
		generationTimeout: DefaultGenerationTimeout,
		renderTimeout:     DefaultRenderTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// The quota unit is refunded on every failure after it was taken.
func (s *Report) Generate(ctx context.Context, accountID uuid.UUID, rows [][]string) (model.GeneratedReport, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.GeneratedReport{}, model.ErrNotFound
		}
		return model.GeneratedReport{}, fmt.Errorf("%w: failed to get account: %v", model.ErrStorage, err)
	}
	if !account.Verified {
		return model.GeneratedReport{}, model.ErrUnverified
	}

	rows, err = prepareRows(rows)
	if err != nil {
		return model.GeneratedReport{}, err
	}

	decision, err := s.quota.CheckAndConsume(ctx, account.ID)
	if err != nil {
		return model.GeneratedReport{}, err
	}
	// rollback must survive a cancelled request
	rollbackCtx := context.WithoutCancel(ctx)

	sections, err := s.generateSections(ctx, account, rows)
	if err != nil {
		s.refund(rollbackCtx, account.ID, decision)
		return model.GeneratedReport{}, err
	}

	now := s.now().UTC()
	html, err := renderer.HTML(renderer.Page{
		Title:       "Restaurant marketing insights",
		GeneratedAt: now,
		Rows:        len(rows),
		Sections:    sections,
	})
	if err != nil {
		s.logger.Error("Report service: failed to build html", "account_id", account.ID, "error", err.Error())
		s.refund(rollbackCtx, account.ID, decision)
		return model.GeneratedReport{}, model.ErrStorage
	}

	artifact, contentType, ext, degraded := s.render(ctx, account.ID, html)

	id, err := uuid.NewV7()
	if err != nil {
		s.refund(rollbackCtx, account.ID, decision)
		return model.GeneratedReport{}, fmt.Errorf("%w: failed to generate report id: %v", model.ErrStorage, err)
	}
	name := storedName(now, id, ext)

	storedAs, err := s.artifacts.Save(ctx, account.ID, name, contentType, artifact)
	if err != nil {
		s.logger.Error("Report service: failed to save artifact",
			"account_id", account.ID,
			"name", name,
			"error", err.Error())
		s.refund(rollbackCtx, account.ID, decision)
		return model.GeneratedReport{}, model.ErrStorage
	}

	record, err := s.reports.Create(ctx, model.ReportRecord{
		ID:         id,
		OwnerID:    account.ID,
		StoredName: storedAs,
		CreatedAt:  now,
	})
	if err != nil {
		s.logger.Error("Report service: failed to create report record",
			"account_id", account.ID,
			"name", storedAs,
			"error", err.Error())
		if delErr := s.artifacts.Delete(rollbackCtx, account.ID, storedAs); delErr != nil {
			s.logger.Error("Report service: failed to delete orphaned artifact",
				"account_id", account.ID,
				"name", storedAs,
				"error", delErr.Error())
		}
		s.refund(rollbackCtx, account.ID, decision)
		return model.GeneratedReport{}, model.ErrStorage
	}

	s.logger.Info("Report service: report generated",
		"account_id", account.ID,
		"report_id", record.ID,
		"name", record.StoredName,
		"rows", len(rows),
		"degraded", degraded)

	return model.GeneratedReport{
		Record:      record,
		Artifact:    artifact,
		ContentType: contentType,
		Degraded:    degraded,
	}, nil
}

func (s *Report) generateSections(ctx context.Context, account model.Account, rows [][]string) ([]renderer.Section, error) {
	wanted := []generator.Section{generator.SectionInsights}
	if account.Tier == model.TierPro {
		wanted = append(wanted, generator.SectionForecast, generator.SectionCampaign)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	texts := make([]string, len(wanted))
	g, gctx := errgroup.WithContext(genCtx)
	for i, section := range wanted {
		i, section := i, section
		g.Go(func() error {
			text, err := s.generator.Generate(gctx, generator.Prompt(section, rows))
			if err != nil {
				return fmt.Errorf("%s: %w", section, err)
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		mapped := generatorError(err, genCtx.Err())
		s.logger.Error("Report service: content generation failed",
			"account_id", account.ID,
			"kind", model.KindOf(mapped),
			"error", err.Error())
		return nil, mapped
	}

	sections := make([]renderer.Section, len(wanted))
	for i, section := range wanted {
		sections[i] = renderer.Section{Heading: headings[section], Body: texts[i]}
	}
	return sections, nil
}

// The HTML itself becomes the artifact when rendering fails.
func (s *Report) render(ctx context.Context, accountID uuid.UUID, html string) ([]byte, string, string, bool) {
	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	pdf, err := s.renderer.Render(renderCtx, html)
	if err != nil {
		s.logger.Warn("Report service: pdf rendering failed, storing html",
			"account_id", accountID,
			"error", err.Error())
		return []byte(html), contentTypeHTML, ".html", true
	}
	return pdf, contentTypePDF, ".pdf", false
}

func (s *Report) refund(ctx context.Context, accountID uuid.UUID, decision model.QuotaDecision) {
	// Refund logs its own failures.
	_ = s.quota.Refund(ctx, accountID, decision)
}

func generatorError(err, deadline error) error {
	switch {
	case errors.Is(err, model.ErrGeneratorAuth):
		return model.ErrAuth
	case errors.Is(err, model.ErrGeneratorRateLimited):
		return model.ErrRateLimited
	case errors.Is(err, model.ErrGeneratorTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(deadline, context.DeadlineExceeded):
		return model.ErrTimeout
	default:
		return model.ErrUnavailable
	}
}

// report_<YYYY-MM-DD_HH-MM-SS>_<8 hex><ext>
func storedName(t time.Time, id uuid.UUID, ext string) string {
	return "report_" + t.Format("2006-01-02_15-04-05") + "_" + hex.EncodeToString(id[12:16]) + ext
}
