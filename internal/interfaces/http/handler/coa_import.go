package handler

import (
	"context"
	"io"

	"github.com/erp/ledger/internal/application/coaimport"
	"github.com/gin-gonic/gin"
)

// ChartAnalyzer analyzes chart-of-accounts CSV files
type ChartAnalyzer interface {
	Analyze(ctx context.Context, r io.Reader) (*coaimport.AnalysisResult, error)
	AnalyzeObject(ctx context.Context, key string) (*coaimport.AnalysisResult, error)
}

// ChartImportHandler previews chart-of-accounts imports
type ChartImportHandler struct {
	BaseHandler
	analyzer ChartAnalyzer
}

// NewChartImportHandler creates a ChartImportHandler
func NewChartImportHandler(analyzer ChartAnalyzer) *ChartImportHandler {
	return &ChartImportHandler{analyzer: analyzer}
}

// AnalyzeObjectRequest names a file already uploaded to import storage
type AnalyzeObjectRequest struct {
	ObjectKey string `json:"object_key" binding:"required,max=1024"`
}

// AnalyzeUpload godoc
// @Summary      Analyze an uploaded chart-of-accounts CSV
// @Description  Reports column mappings, inferred account types, row errors and the detected hierarchy.
// @Tags         chart
// @Accept       multipart/form-data
// @Param        file formData file true "CSV file"
// @Router       /chart/import/analyze [post]
func (h *ChartImportHandler) AnalyzeUpload(c *gin.Context) {
	if _, ok := h.tenantID(c); !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the file field")
		return
	}
	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Uploaded file could not be read")
		return
	}
	defer f.Close()

	result, err := h.analyzer.Analyze(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AnalyzeObject godoc
// @Summary      Analyze a chart-of-accounts CSV from import storage
// @Tags         chart
// @Router       /chart/import/analyze-object [post]
func (h *ChartImportHandler) AnalyzeObject(c *gin.Context) {
	if _, ok := h.tenantID(c); !ok {
		return
	}
	var req AnalyzeObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.analyzer.AnalyzeObject(c.Request.Context(), req.ObjectKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
