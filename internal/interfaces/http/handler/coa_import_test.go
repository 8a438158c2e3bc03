package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledger/internal/application/coaimport"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	uploaded string
	objects  map[string]*coaimport.AnalysisResult
}

func (f *fakeAnalyzer) Analyze(_ context.Context, r io.Reader) (*coaimport.AnalysisResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = string(body)
	return &coaimport.AnalysisResult{Delimiter: ",", TotalRows: 2}, nil
}

func (f *fakeAnalyzer) AnalyzeObject(_ context.Context, key string) (*coaimport.AnalysisResult, error) {
	if res, ok := f.objects[key]; ok {
		return res, nil
	}
	return nil, shared.NewNotFoundError("IMPORT_FILE", "import file not found")
}

func importRouter(a ChartAnalyzer) *gin.Engine {
	h := NewChartImportHandler(a)
	r := gin.New()
	api := r.Group("/chart/import", withAuth(uuid.New(), uuid.New()))
	api.POST("/analyze", h.AnalyzeUpload)
	api.POST("/analyze-object", h.AnalyzeObject)
	return r
}

func TestChartImportHandler_AnalyzeUpload(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	r := importRouter(analyzer)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "coa.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Account Number,Name\n1000,Cash\n1010,Petty Cash\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/chart/import/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, analyzer.uploaded, "1010,Petty Cash")
	assert.EqualValues(t, 2, decodeResponse(t, w).Data.(map[string]any)["total_rows"])
}

func TestChartImportHandler_AnalyzeUpload_MissingFile(t *testing.T) {
	r := importRouter(&fakeAnalyzer{})

	w := serveJSON(r, http.MethodPost, "/chart/import/analyze", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartImportHandler_AnalyzeObject(t *testing.T) {
	analyzer := &fakeAnalyzer{objects: map[string]*coaimport.AnalysisResult{
		"imports/coa.csv": {Delimiter: ";", TotalRows: 40},
	}}
	r := importRouter(analyzer)

	w := serveJSON(r, http.MethodPost, "/chart/import/analyze-object", `{"object_key":"imports/coa.csv"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ";", decodeResponse(t, w).Data.(map[string]any)["delimiter"])

	w = serveJSON(r, http.MethodPost, "/chart/import/analyze-object", `{"object_key":"imports/missing.csv"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveJSON(r, http.MethodPost, "/chart/import/analyze-object", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
