package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20

	HeaderReportName     = "X-Report-Name"
	HeaderReportID       = "X-Report-Id"
	HeaderReportDegraded = "X-Report-Degraded"
)

// ReportService runs one generation attempt for an account.
type ReportService interface {
	Generate(ctx context.Context, accountID uuid.UUID, rows [][]string) (model.GeneratedReport, error)
}

// HistoryService lists and opens an account's own reports.
type HistoryService interface {
	List(ctx context.Context, accountID uuid.UUID, page int) ([]model.ReportRecord, error)
	Fetch(ctx context.Context, accountID uuid.UUID, storedName string) (model.Artifact, error)
}

type reportItem struct {
	ID         uuid.UUID `json:"id"`
	StoredName string    `json:"stored_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type historyResponse struct {
	Reports  []reportItem `json:"reports"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// Report handles upload, history and download endpoints.
type Report struct {
	reportService  ReportService
	historyService HistoryService
	contextManager model.ContextManager
	logger         *logger.Logger
	maxUploadBytes int64
}

// NewReport creates a new Report handler. Uploads larger than maxUploadBytes
// are rejected.
func NewReport(
	reportService ReportService,
	historyService HistoryService,
	contextManager model.ContextManager,
	logger *logger.Logger,
	maxUploadBytes int64,
) *Report {
	return &Report{
		reportService:  reportService,
		historyService: historyService,
		contextManager: contextManager,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Analyze accepts a CSV upload and responds with the generated artifact.
func (h *Report) Analyze(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		handleError(w, model.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, model.KindInvalidInput, "file is too large")
			return
		}
		invalidInput(w, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		invalidInput(w, "no file part in request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		invalidInput(w, "no file selected")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		invalidInput(w, "only .csv files are accepted")
		return
	}

	rows, err := parseCSV(file)
	if err != nil {
		h.logger.Warn("Report handler: rejected upload",
			"account_id", accountID,
			"filename", header.Filename,
			"error", err.Error())
		handleError(w, err)
		return
	}

	result, err := h.reportService.Generate(r.Context(), accountID, rows)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Artifact)))
	w.Header().Set("Content-Disposition", attachment(result.Record.StoredName))
	w.Header().Set(HeaderReportName, result.Record.StoredName)
	w.Header().Set(HeaderReportID, result.Record.ID.String())
	w.Header().Set(HeaderReportDegraded, strconv.FormatBool(result.Degraded))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(result.Artifact); err != nil {
		h.logger.Warn("Report handler: failed to write artifact",
			"account_id", accountID,
			"report_id", result.Record.ID,
			"error", err.Error())
	}
}

// History lists one page of the caller's reports, newest first.
func (h *Report) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		handleError(w, model.ErrUnauthorized)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	records, err := h.historyService.List(r.Context(), accountID, page)
	if err != nil {
		h.logger.Error("Report handler: failed to list reports",
			"account_id", accountID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	items := make([]reportItem, 0, len(records))
	for _, rec := range records {
		items = append(items, reportItem{ID: rec.ID, StoredName: rec.StoredName, CreatedAt: rec.CreatedAt})
	}

	response.JSON(w, http.StatusOK, historyResponse{
		Reports:  items,
		Page:     page,
		PageSize: model.DefaultPageSize,
	})
}

// Download streams one of the caller's stored artifacts.
func (h *Report) Download(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		handleError(w, model.ErrUnauthorized)
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		handleError(w, model.ErrNotFound)
		return
	}

	artifact, err := h.historyService.Fetch(r.Context(), accountID, name)
	if err != nil {
		handleError(w, err)
		return
	}
	defer artifact.Body.Close()

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if artifact.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	}
	w.Header().Set("Content-Disposition", attachment(name))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, artifact.Body); err != nil {
		h.logger.Warn("Report handler: download interrupted",
			"account_id", accountID,
			"name", name,
			"error", err.Error())
	}
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
