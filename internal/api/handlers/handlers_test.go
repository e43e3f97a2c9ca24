package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narayana221/FinanceApp/internal/advice"
	"github.com/Narayana221/FinanceApp/internal/config"
	"github.com/Narayana221/FinanceApp/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		Encodings:        config.DefaultEncodings(),
		DayFirst:         true,
		OutlierThreshold: config.DefaultOutlierThreshold,
		MinViableRows:    1,
		MaxUploadBytes:   config.DefaultMaxUploadBytes,
	}
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func uploadCSV(t *testing.T, h *AnalysesHandler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartCSV(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

const sampleCSV = "Date,Name,Amount,Category\n" +
	"01/12/2024,Acme Payroll salary,2500.00,\n" +
	"02/12/2024,Tesco Superstore,-85.50,\n"

func TestUploadHappyPath(t *testing.T) {
	h := NewAnalysesHandler(testConfig(), session.NewStore(), zerolog.Nop())

	rec := uploadCSV(t, h, "december.csv", sampleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got session.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "december.csv", got.Filename)
	assert.Equal(t, "monzo", got.Format)
	assert.Equal(t, 2, got.Report.ValidRows)
	assert.Equal(t, "2500", got.Summary.TotalIncome.String())
	require.Len(t, got.Transactions, 2)
}

func TestUploadRejectsNonCSV(t *testing.T) {
	h := NewAnalysesHandler(testConfig(), session.NewStore(), zerolog.Nop())

	rec := uploadCSV(t, h, "statement.pdf", "not a csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only CSV files are supported")
}

func TestUploadMissingFileField(t *testing.T) {
	h := NewAnalysesHandler(testConfig(), session.NewStore(), zerolog.Nop())

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("other", "value"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEmptyFile(t *testing.T) {
	h := NewAnalysesHandler(testConfig(), session.NewStore(), zerolog.Nop())

	rec := uploadCSV(t, h, "empty.csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "File is empty")
}

func TestUploadUndetectableColumns(t *testing.T) {
	h := NewAnalysesHandler(testConfig(), session.NewStore(), zerolog.Nop())

	rec := uploadCSV(t, h, "odd.csv", "A,B\nfoo,bar\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unable to detect required columns")
}

func TestUploadAllRowsSkippedReturnsReport(t *testing.T) {
	h := NewAnalysesHandler(testConfig(), session.NewStore(), zerolog.Nop())

	rec := uploadCSV(t, h, "broken.csv", "Date,Memo,Amount\n,x,?\n,y,?\n")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error  string `json:"error"`
		Report struct {
			TotalRows  int `json:"total_rows"`
			Rejections []struct {
				Row    int    `json:"row"`
				Reason string `json:"reason"`
			} `json:"rejections"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.TotalRows)
	require.Len(t, resp.Report.Rejections, 2)
	assert.Equal(t, 1, resp.Report.Rejections[0].Row)
}

func TestGetAndListAnalyses(t *testing.T) {
	store := session.NewStore()
	h := NewAnalysesHandler(testConfig(), store, zerolog.Nop())

	rec := uploadCSV(t, h, "december.csv", sampleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created session.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+created.ID, nil)
		rec := httptest.NewRecorder()
		h.Get(rec, req, created.ID)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses/nope", nil)
		rec := httptest.NewRecorder()
		h.Get(rec, req, "nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/analyses/"+created.ID, nil)
		rec := httptest.NewRecorder()
		h.Delete(rec, req, created.ID)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestTransactionsCSVDownload(t *testing.T) {
	store := session.NewStore()
	h := NewAnalysesHandler(testConfig(), store, zerolog.Nop())

	rec := uploadCSV(t, h, "december.csv", sampleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created session.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+created.ID+"/transactions?format=csv", nil)
	out := httptest.NewRecorder()
	h.Transactions(out, req, created.ID)

	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "text/csv", out.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(out.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Description,Amount,Category", lines[0])
	assert.Equal(t, "2024-12-01,Acme Payroll salary,2500.00,Income", lines[1])
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, resp["time"])
}

func TestAdviseEndpoint(t *testing.T) {
	store := session.NewStore()
	analysesHandler := NewAnalysesHandler(testConfig(), store, zerolog.Nop())

	rec := uploadCSV(t, analysesHandler, "december.csv", sampleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created session.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	t.Run("success", func(t *testing.T) {
		coach := advice.NewCoach("key", "gemini-2.5-flash", advice.WithGenerator(
			func(ctx context.Context, prompt string) (string, error) {
				return "Save more on groceries.", nil
			}))
		h := NewAdviceHandler(store, coach, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/analyses/"+created.ID+"/advice",
			strings.NewReader(`{"savings_goal": 500}`))
		out := httptest.NewRecorder()
		h.Advise(out, req, created.ID)

		require.Equal(t, http.StatusOK, out.Code)
		var result advice.Result
		require.NoError(t, json.Unmarshal(out.Body.Bytes(), &result))
		assert.True(t, result.OK)
		assert.Equal(t, "Save more on groceries.", result.Advice)
	})

	t.Run("unconfigured key is a 200 with a message", func(t *testing.T) {
		h := NewAdviceHandler(store, advice.NewCoach("", "gemini-2.5-flash"), zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/analyses/"+created.ID+"/advice", nil)
		out := httptest.NewRecorder()
		h.Advise(out, req, created.ID)

		require.Equal(t, http.StatusOK, out.Code)
		var result advice.Result
		require.NoError(t, json.Unmarshal(out.Body.Bytes(), &result))
		assert.False(t, result.OK)
		assert.Equal(t, advice.ErrorUnconfigured, result.ErrorKind)
	})

	t.Run("upstream failure is a 502", func(t *testing.T) {
		coach := advice.NewCoach("key", "gemini-2.5-flash",
			advice.WithRetries(0),
			advice.WithGenerator(func(ctx context.Context, prompt string) (string, error) {
				return "", fmt.Errorf("boom")
			}))
		h := NewAdviceHandler(store, coach, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/analyses/"+created.ID+"/advice", nil)
		out := httptest.NewRecorder()
		h.Advise(out, req, created.ID)

		assert.Equal(t, http.StatusBadGateway, out.Code)
	})

	t.Run("missing analysis", func(t *testing.T) {
		h := NewAdviceHandler(store, advice.NewCoach("", "gemini-2.5-flash"), zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/analyses/nope/advice", nil)
		out := httptest.NewRecorder()
		h.Advise(out, req, "nope")

		assert.Equal(t, http.StatusNotFound, out.Code)
	})
}
