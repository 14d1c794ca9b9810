package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaltylab/royalty-report-service/internal/adapter/httpapi"
	"github.com/royaltylab/royalty-report-service/internal/config"
	"github.com/royaltylab/royalty-report-service/internal/domain"
	"github.com/royaltylab/royalty-report-service/internal/observability"
	"github.com/royaltylab/royalty-report-service/internal/session"
)

const sampleCSV = `Month,Store,Country,Artist,Album,Track,ISRC,UPC,Streams,Royalty,Currency
2024-03,Spotify,US,Nova,Horizon,Dawn,USRC17607839,00602557988167,1500,4.50,USD
2024-03,Apple Music,DE,Nova,Horizon,Dawn,USRC17607839,00602557988167,500,2.00,USD
2024-03,Spotify,US,Lyra,Echoes,Waves,GBUM72105678,00602557111111,3000,6.00,USD
`

type capturingPublisher struct {
	reportID string
	records  []domain.Record
	done     chan struct{}
}

func (p *capturingPublisher) PublishRecords(_ context.Context, reportID string, records []domain.Record) error {
	p.reportID = reportID
	p.records = records
	close(p.done)
	return nil
}

func newTestServer(t *testing.T, publisher httpapi.RecordPublisher) (*httpapi.Server, *session.Store) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	store := session.NewStore(cfg.SessionTTL, nil)
	t.Cleanup(store.Close)

	srv := httpapi.NewServer(cfg, store, publisher, observability.NewMetricsForTesting(), slog.Default())
	return srv, store
}

func uploadCSV(t *testing.T, srv *httpapi.Server, name, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		ReportID   string            `json:"report_id"`
		Proposed   map[string]string `json:"proposed_mapping"`
		Violations json.RawMessage   `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.ReportID)
	return body.ReportID
}

func confirmMapping(t *testing.T, srv *httpapi.Server, id string, mapping map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"mapping": mapping})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/reports/"+id+"/mapping", bytes.NewReader(payload))
	srv.ServeHTTP(rec, req)
	return rec
}

func fullMapping() map[string]string {
	return map[string]string{
		"reporting_month": "Month",
		"platform":        "Store",
		"country":         "Country",
		"artist_name":     "Artist",
		"release_title":   "Album",
		"track_title":     "Track",
		"isrc":            "ISRC",
		"upc":             "UPC",
		"quantity":        "Streams",
		"revenue":         "Royalty",
	}
}

func TestUploadProposesCompleteMapping(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "march.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, sampleCSV)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		ReportID string              `json:"report_id"`
		FileName string              `json:"file_name"`
		RowCount int                 `json:"row_count"`
		Preview  []map[string]string `json:"preview"`
		Proposed map[string]string   `json:"proposed_mapping"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "march.csv", body.FileName)
	assert.Equal(t, 3, body.RowCount)
	require.Len(t, body.Preview, 3)
	assert.Equal(t, "Spotify", body.Preview[0]["Store"])
	assert.Equal(t, "1500", body.Preview[0]["Streams"])
	assert.Equal(t, "ISRC", body.Proposed["isrc"])
	assert.Equal(t, "Store", body.Proposed["platform"])
	assert.Len(t, body.Proposed, 10)
	assert.NotContains(t, rec.Body.String(), "violations")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "not a report")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestUploadWithoutFileField(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader("plain body"))
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmMappingRejectsIncomplete(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)

	mapping := fullMapping()
	delete(mapping, "isrc")
	mapping["upc"] = "Royalty" // collides with revenue

	rec := confirmMapping(t, srv, id, mapping)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error      string `json:"error"`
		Violations struct {
			Missing    []string `json:"missing"`
			Duplicates []struct {
				Column string   `json:"column"`
				Fields []string `json:"fields"`
			} `json:"duplicates"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Violations.Missing, "isrc")
	require.Len(t, body.Violations.Duplicates, 1)
	assert.Equal(t, "Royalty", body.Violations.Duplicates[0].Column)
}

func TestConfirmMappingRejectsUnknownField(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)

	mapping := fullMapping()
	mapping["genre"] = "Track"

	rec := confirmMapping(t, srv, id, mapping)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "genre")
}

func TestConfirmMappingReturnsSummary(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)

	rec := confirmMapping(t, srv, id, fullMapping())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary struct {
		TotalStreams  float64  `json:"total_streams"`
		TotalEarnings float64  `json:"total_earnings"`
		Period        string   `json:"period"`
		CurrencyHint  string   `json:"currency_hint"`
		TopPlatforms  []string `json:"top_platforms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, float64(5000), summary.TotalStreams)
	assert.InDelta(t, 12.5, summary.TotalEarnings, 1e-9)
	assert.Equal(t, "03.2024", summary.Period)
	assert.Equal(t, "currency: USD", summary.CurrencyHint)
	require.NotEmpty(t, summary.TopPlatforms)
	assert.Contains(t, summary.TopPlatforms[0], "Spotify")
}

func TestConfirmMappingPublishesRecords(t *testing.T) {
	pub := &capturingPublisher{done: make(chan struct{})}
	srv, _ := newTestServer(t, pub)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)

	rec := confirmMapping(t, srv, id, fullMapping())
	require.Equal(t, http.StatusOK, rec.Code)

	<-pub.done
	assert.Equal(t, id, pub.reportID)
	require.Len(t, pub.records, 3)
	assert.Equal(t, "Spotify", pub.records[0].Platform)
	assert.Equal(t, float64(1500), pub.records[0].Quantity)
}

func TestSummaryBeforeConfirmation(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/summary", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTopPlatformsByEarnings(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)
	require.Equal(t, http.StatusOK, confirmMapping(t, srv, id, fullMapping()).Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/top?view=platforms&metric=earnings", nil)
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Title string `json:"title"`
		Rows  []struct {
			Label       string  `json:"label"`
			Streams     float64 `json:"streams"`
			Earnings    float64 `json:"earnings"`
			MetricValue float64 `json:"metric_value"`
			Share       float64 `json:"share"`
			ShareText   string  `json:"share_text"`
		} `json:"rows"`
		TotalStreams float64 `json:"total_streams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Top Platforms by Earnings", body.Title)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "Spotify", body.Rows[0].Label)
	assert.InDelta(t, 10.5, body.Rows[0].Earnings, 1e-9)
	assert.InDelta(t, 10.5/12.5, body.Rows[0].Share, 1e-9)
	assert.Equal(t, "84.0%", body.Rows[0].ShareText)
	assert.Equal(t, "16.0%", body.Rows[1].ShareText)
	assert.Equal(t, float64(5000), body.TotalStreams)
}

func TestTopUnknownView(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)
	require.Equal(t, http.StatusOK, confirmMapping(t, srv, id, fullMapping()).Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/top?view=genres", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterNarrowsView(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)
	require.Equal(t, http.StatusOK, confirmMapping(t, srv, id, fullMapping()).Code)

	payload := `{"view":"platforms","field":"country","value":"DE"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/"+id+"/filters", strings.NewReader(payload))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/top?view=platforms", nil)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rows []struct {
			Label string `json:"label"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "Apple Music", body.Rows[0].Label)

	// Reset restores the unfiltered view.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/reports/"+id+"/filters/reset?view=platforms", nil)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/top?view=platforms", nil)
	srv.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Rows, 2)
}

func TestFilterRejectsForeignField(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)
	require.Equal(t, http.StatusOK, confirmMapping(t, srv, id, fullMapping()).Code)

	// Platforms view filters by artist and country, never by itself.
	payload := `{"view":"platforms","field":"platform","value":"Spotify"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/"+id+"/filters", strings.NewReader(payload))
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)
	require.Equal(t, http.StatusOK, confirmMapping(t, srv, id, fullMapping()).Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/export?view=tracks&metric=streams", nil)
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "top_tracks.csv")

	body := rec.Body.Bytes()
	assert.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(body), "Track,Streams,Earnings,Value per 1K Streams")
}

func TestDeleteReport(t *testing.T) {
	srv, store := newTestServer(t, nil)
	id := uploadCSV(t, srv, "march.csv", sampleCSV)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reports/"+id, nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, store.Len())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/reports/"+id, nil)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownReportReturns404(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/nope/summary", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReflectsStoreState(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	store.Close()

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
