// Package httpapi exposes the report analysis engine over HTTP: upload,
// mapping confirmation, summaries, ranked views, filters, and CSV export,
// plus the health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/royaltylab/royalty-report-service/internal/analysis"
	"github.com/royaltylab/royalty-report-service/internal/config"
	"github.com/royaltylab/royalty-report-service/internal/domain"
	"github.com/royaltylab/royalty-report-service/internal/export"
	"github.com/royaltylab/royalty-report-service/internal/ingest"
	"github.com/royaltylab/royalty-report-service/internal/observability"
	"github.com/royaltylab/royalty-report-service/internal/schema"
	"github.com/royaltylab/royalty-report-service/internal/session"
)

// RecordPublisher forwards confirmed canonical records to a downstream
// sink. A nil publisher disables forwarding.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, reportID string, records []domain.Record) error
}

// Server exposes the report analysis API.
type Server struct {
	httpServer *http.Server
	store      *session.Store
	publisher  RecordPublisher
	metrics    *observability.Metrics
	logger     *slog.Logger

	maxUploadBytes int64
	mode           analysis.DisambiguationMode
	tailLen        int
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg *config.Config, store *session.Store, publisher RecordPublisher, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      mux,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		store:          store,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
		maxUploadBytes: cfg.MaxUploadBytes,
		mode:           analysis.DisambiguationMode(cfg.DisambiguateMode),
		tailLen:        cfg.DisambiguateTailLen,
	}

	mux.HandleFunc("POST /v1/reports", s.handleUpload)
	mux.HandleFunc("GET /v1/reports/{id}", s.handleGetReport)
	mux.HandleFunc("DELETE /v1/reports/{id}", s.handleDeleteReport)
	mux.HandleFunc("PUT /v1/reports/{id}/mapping", s.handleConfirmMapping)
	mux.HandleFunc("GET /v1/reports/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/reports/{id}/top", s.handleTop)
	mux.HandleFunc("GET /v1/reports/{id}/export", s.handleExport)
	mux.HandleFunc("POST /v1/reports/{id}/filters", s.handleSetFilter)
	mux.HandleFunc("POST /v1/reports/{id}/filters/reset", s.handleResetFilters)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// uploadResponse is returned after a report is parsed: the proposed
// mapping and, when auto-detection could not cover every field, the
// violations the caller has to resolve before confirming.
type uploadResponse struct {
	ReportID        string              `json:"report_id"`
	FileName        string              `json:"file_name"`
	Columns         []string            `json:"columns"`
	RowCount        int                 `json:"row_count"`
	Preview         []map[string]string `json:"preview"`
	ProposedMapping map[string]string   `json:"proposed_mapping"`
	Violations      *violationsPayload  `json:"violations,omitempty"`
}

const previewRows = 5

// previewJSON renders the first rows of the raw table so the caller can
// eyeball the proposed mapping against real cells.
func previewJSON(table *ingest.Table) []map[string]string {
	n := len(table.Rows)
	if n > previewRows {
		n = previewRows
	}
	preview := make([]map[string]string, 0, n)
	for _, row := range table.Rows[:n] {
		cells := make(map[string]string, len(table.Columns))
		for _, col := range table.Columns {
			cells[col] = row[col].String()
		}
		preview = append(preview, cells)
	}
	return preview
}

type violationsPayload struct {
	Missing    []string           `json:"missing,omitempty"`
	Duplicates []duplicatePayload `json:"duplicates,omitempty"`
}

type duplicatePayload struct {
	Column string   `json:"column"`
	Fields []string `json:"fields"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.metrics.IngestErrors.Inc()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("report exceeds the %d byte upload limit", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer file.Close() //nolint:errcheck // read-only temp file

	table, err := ingest.Read(header.Filename, file)
	if err != nil {
		s.metrics.IngestErrors.Inc()
		s.logger.Warn("report rejected", "file", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	proposed := schema.AutoMap(table.Columns)
	sess, err := s.store.Create(header.Filename, table, proposed)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.metrics.ReportsIngested.Inc()
	s.metrics.RowsPerReport.Observe(float64(len(table.Rows)))
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
	s.logger.Info("report ingested",
		"report_id", sess.ID,
		"file", header.Filename,
		"columns", len(table.Columns),
		"rows", len(table.Rows),
	)

	writeJSON(w, http.StatusCreated, uploadResponse{
		ReportID:        sess.ID,
		FileName:        sess.FileName,
		Columns:         table.Columns,
		RowCount:        len(table.Rows),
		Preview:         previewJSON(table),
		ProposedMapping: mappingPayload(proposed),
		Violations:      violationsJSON(schema.Validate(proposed)),
	})
}

// reportResponse describes the current state of a session.
type reportResponse struct {
	ReportID         string            `json:"report_id"`
	FileName         string            `json:"file_name"`
	Columns          []string          `json:"columns,omitempty"`
	MappingConfirmed bool              `json:"mapping_confirmed"`
	ProposedMapping  map[string]string `json:"proposed_mapping,omitempty"`
	ConfirmedMapping map[string]string `json:"confirmed_mapping,omitempty"`
	RecordCount      int               `json:"record_count,omitempty"`
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	resp := reportResponse{
		ReportID:         sess.ID,
		FileName:         sess.FileName,
		MappingConfirmed: sess.Confirmed != nil,
		ProposedMapping:  mappingPayload(sess.Proposed),
		ConfirmedMapping: mappingPayload(sess.Confirmed),
	}
	if sess.Raw != nil {
		resp.Columns = sess.Raw.Columns
	}
	if sess.Dataset != nil {
		resp.RecordCount = len(sess.Dataset.Records)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	s.store.Delete(r.PathValue("id"))
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
	w.WriteHeader(http.StatusNoContent)
}

type confirmMappingRequest struct {
	Mapping map[string]string `json:"mapping"`
}

func (s *Server) handleConfirmMapping(w http.ResponseWriter, r *http.Request) {
	var req confirmMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mapping := make(domain.Mapping, len(req.Mapping))
	for name, col := range req.Mapping {
		f := domain.Field(name)
		if !f.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown canonical field %q", name))
			return
		}
		mapping[f] = col
	}

	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	if v := schema.Validate(mapping); !v.Confirmed() {
		s.metrics.MappingRejections.Inc()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      v.Err().Error(),
			"violations": violationsJSON(v),
		})
		return
	}

	sess.Confirmed = mapping.Clone()
	sess.Dataset = domain.NewDataset(sess.Raw.Columns, sess.Raw.Rows, sess.Confirmed)
	sess.Filters.ResetAll()
	s.metrics.MappingConfirmed.Inc()
	s.logger.Info("mapping confirmed", "report_id", sess.ID, "records", len(sess.Dataset.Records))

	if s.publisher != nil {
		s.publishRecords(sess.ID, sess.Dataset.Records)
	}

	writeJSON(w, http.StatusOK, analysis.Summarize(sess.Dataset))
}

// publishRecords forwards the canonical records without holding up the
// HTTP response. Failures are logged and counted; the session itself is
// already confirmed and usable.
func (s *Server) publishRecords(reportID string, records []domain.Record) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.publisher.PublishRecords(ctx, reportID, records); err != nil {
			s.metrics.SinkErrors.Inc()
			s.logger.Error("sink publish failed", "report_id", reportID, "error", err)
			return
		}
		s.metrics.SinkRecordsPublished.Add(float64(len(records)))
	}()
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	if sess.Dataset == nil {
		writeError(w, http.StatusConflict, "mapping not confirmed yet")
		return
	}
	writeJSON(w, http.StatusOK, analysis.Summarize(sess.Dataset))
}

// topResponse is the JSON form of one ranked view.
type topResponse struct {
	Title         string          `json:"title"`
	View          string          `json:"view"`
	Metric        string          `json:"metric"`
	Filters       []filterPayload `json:"filters"`
	Rows          []rankedPayload `json:"rows"`
	TotalStreams  float64         `json:"total_streams"`
	TotalEarnings float64         `json:"total_earnings"`
}

type filterPayload struct {
	Field    string   `json:"field"`
	Selected string   `json:"selected"`
	Options  []string `json:"options"`
}

type rankedPayload struct {
	Label       string  `json:"label"`
	Key         string  `json:"key,omitempty"`
	Streams     float64 `json:"streams"`
	Earnings    float64 `json:"earnings"`
	Rate        float64 `json:"rate"`
	MetricValue float64 `json:"metric_value"`
	Share       float64 `json:"share,omitempty"`

	// ShareText renders the share for display; sub-0.1% shares show as
	// "<0.1%" instead of rounding to an implied zero.
	ShareText string `json:"share_text,omitempty"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseTopRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	if sess.Dataset == nil {
		writeError(w, http.StatusConflict, "mapping not confirmed yet")
		return
	}

	start := time.Now()
	result := analysis.Top(sess.Dataset.Records, sess.Filters, req)
	s.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	s.metrics.AggregationRequests.WithLabelValues(string(req.View), string(req.Metric)).Inc()

	writeJSON(w, http.StatusOK, topJSON(req, result))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseTopRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Exports carry the whole ranked table unless the caller asked for
	// fewer rows explicitly.
	if r.URL.Query().Get("n") == "" {
		req.N = 0
	}

	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	if sess.Dataset == nil {
		writeError(w, http.StatusConflict, "mapping not confirmed yet")
		return
	}

	result := analysis.Top(sess.Dataset.Records, sess.Filters, req)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("top_%s.csv", req.View)))
	if err := export.WriteCSV(w, req.View.ExportHeader(), result.Rows); err != nil {
		s.logger.Error("export write failed", "report_id", sess.ID, "error", err)
		return
	}
	s.metrics.ExportsServed.Inc()
}

type setFilterRequest struct {
	View  string `json:"view"`
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req setFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := analysis.ParseView(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	field := domain.Field(req.Field)
	if !contains(view.FilterFields(), field) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("field %q is not filterable in view %q", req.Field, req.View))
		return
	}

	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	if sess.Dataset == nil {
		writeError(w, http.StatusConflict, "mapping not confirmed yet")
		return
	}

	sess.Filters.Set(view, field, req.Value)
	opts, _ := sess.Filters.Cascade(view, sess.Dataset.Records)
	writeJSON(w, http.StatusOK, map[string]any{"filters": filtersJSON(opts)})
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.Unlock()

	if name := r.URL.Query().Get("view"); name != "" {
		view, err := analysis.ParseView(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess.Filters.Reset(view)
	} else {
		sess.Filters.ResetAll()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// parseTopRequest reads the shared query parameters of /top and /export.
func (s *Server) parseTopRequest(r *http.Request) (analysis.TopRequest, error) {
	q := r.URL.Query()

	view, err := analysis.ParseView(q.Get("view"))
	if err != nil {
		return analysis.TopRequest{}, err
	}

	metric := analysis.MetricEarnings
	if m := q.Get("metric"); m != "" {
		if metric, err = analysis.ParseMetric(m); err != nil {
			return analysis.TopRequest{}, err
		}
	}

	n := 10
	if raw := q.Get("n"); raw != "" {
		if n, err = strconv.Atoi(raw); err != nil {
			return analysis.TopRequest{}, fmt.Errorf("invalid n %q", raw)
		}
	}

	var minQuantity float64
	if raw := q.Get("min_quantity"); raw != "" {
		if minQuantity, err = strconv.ParseFloat(raw, 64); err != nil {
			return analysis.TopRequest{}, fmt.Errorf("invalid min_quantity %q", raw)
		}
	}

	return analysis.TopRequest{
		View:        view,
		Metric:      metric,
		N:           n,
		MinQuantity: minQuantity,
		Mode:        s.mode,
		TailLen:     s.tailLen,
	}, nil
}

// lockSession resolves the {id} path value and returns the session locked.
// On failure it writes the error response and returns ok=false.
func (s *Server) lockSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, session.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return nil, false
	}
	sess.Lock()
	return sess, true
}

func mappingPayload(m domain.Mapping) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for f, col := range m {
		out[string(f)] = col
	}
	return out
}

// violationsJSON returns nil for a confirmed mapping so the field is
// omitted entirely from the response.
func violationsJSON(v schema.Violations) *violationsPayload {
	if v.Confirmed() {
		return nil
	}
	p := &violationsPayload{}
	for _, f := range v.Missing {
		p.Missing = append(p.Missing, string(f))
	}
	for _, d := range v.Duplicates {
		dp := duplicatePayload{Column: d.Column}
		for _, f := range d.Fields {
			dp.Fields = append(dp.Fields, string(f))
		}
		p.Duplicates = append(p.Duplicates, dp)
	}
	return p
}

func topJSON(req analysis.TopRequest, result analysis.TopResult) topResponse {
	rows := make([]rankedPayload, 0, len(result.Rows))
	for _, row := range result.Rows {
		p := rankedPayload{
			Label:       row.Label,
			Key:         row.Key,
			Streams:     row.Quantity,
			Earnings:    row.Revenue,
			Rate:        row.Rate,
			MetricValue: row.MetricValue,
			Share:       row.Share,
		}
		if row.Share > 0 {
			p.ShareText = analysis.FormatPercent(row.Share)
		}
		rows = append(rows, p)
	}
	return topResponse{
		Title:         result.Title,
		View:          string(req.View),
		Metric:        string(req.Metric),
		Filters:       filtersJSON(result.Filters),
		Rows:          rows,
		TotalStreams:  result.TotalStreams,
		TotalEarnings: result.TotalEarnings,
	}
}

func filtersJSON(opts []analysis.FilterOptions) []filterPayload {
	out := make([]filterPayload, 0, len(opts))
	for _, o := range opts {
		out = append(out, filterPayload{
			Field:    string(o.Field),
			Selected: o.Selected,
			Options:  o.Options,
		})
	}
	return out
}

func contains(fields []domain.Field, f domain.Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
