package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/produced-go/internal/domain"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/report"
	"github.com/andresuchdata/produced-go/internal/service"
	"github.com/andresuchdata/produced-go/internal/tabular"
)

const dateLayout = "2006-01-02"

var contentTypes = map[string]string{
	pipeline.ExportCSV:  "text/csv",
	pipeline.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	pipeline.ExportPDF:  "application/pdf",
}

type ProducedHandler struct {
	service *service.ProducedService
}

func NewProducedHandler(svc *service.ProducedService) *ProducedHandler {
	return &ProducedHandler{service: svc}
}

// parseRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD; both are optional.
func parseRange(c *gin.Context) (domain.DateRange, error) {
	var r domain.DateRange
	for _, p := range []struct {
		param string
		dst   *time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		raw := strings.TrimSpace(c.Query(p.param))
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return r, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", p.param, raw)
		}
		*p.dst = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("to must not be before from")
	}
	return r, nil
}

func (h *ProducedHandler) GetDaily(c *gin.Context) {
	r, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	days, err := h.service.Daily(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "failed to fetch daily results")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days, "count": len(days)})
}

func (h *ProducedHandler) DeleteDaily(c *gin.Context) {
	r, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.service.Purge(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "failed to delete daily results")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *ProducedHandler) GetBreakdown(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	b, err := h.service.Breakdown(c.Request.Context(), date)
	if err != nil {
		respondError(c, err, "failed to build breakdown")
		return
	}

	var text bytes.Buffer
	if err := report.WriteBreakdown(&text, *b); err != nil {
		respondError(c, err, "failed to render breakdown")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":              date.Format(dateLayout),
		"result":            domain.FromResult(b.Result),
		"previous":          b.Previous,
		"stock_start_class": b.StockStartByClass,
		"stock_end_class":   b.StockEndByClass,
		"text":              text.String(),
	})
}

func (h *ProducedHandler) GetSummary(c *gin.Context) {
	r, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "failed to fetch summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ProducedHandler) GetWeekly(c *gin.Context) {
	r, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	weeks, err := h.service.Weekly(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "failed to fetch weekly stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": weeks})
}

// Export renders stored results as csv, xlsx or pdf.
func (h *ProducedHandler) Export(c *gin.Context) {
	r, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	days, err := h.service.Daily(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "failed to fetch daily results")
		return
	}

	h.render(c, c.DefaultQuery("format", pipeline.ExportCSV), domain.Results(days))
}

func (h *ProducedHandler) GetMaterials(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Materials()})
}

func (h *ProducedHandler) GetHLStd(c *gin.Context) {
	hl, err := h.service.HLStd(c.Query("volume"), c.Query("plato"), c.Query("material"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hl_std": hl})
}

// Calculate computes results from three uploaded exports (form fields
// stock, packed and truck). Nothing is stored.
func (h *ProducedHandler) Calculate(c *gin.Context) {
	var in pipeline.Inputs
	for _, f := range []struct {
		field string
		dst   **tabular.Table
	}{{"stock", &in.Stock}, {"packed", &in.Packed}, {"truck", &in.Truck}} {
		header, err := c.FormFile(f.field)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing file %q", f.field)})
			return
		}
		table, err := readUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", f.field, err)})
			return
		}
		*f.dst = table
	}

	results, err := h.service.Calculate(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "calculation failed")
		return
	}

	if format := c.Query("format"); format != "" {
		h.render(c, format, results)
		return
	}

	days := make([]domain.ProducedDay, len(results))
	for i, r := range results {
		days[i] = domain.FromResult(r)
	}
	c.JSON(http.StatusOK, gin.H{"data": days, "summary": report.Summarize(results)})
}

func (h *ProducedHandler) render(c *gin.Context, format string, results []produced.DailyResult) {
	format = strings.ToLower(format)
	contentType, ok := contentTypes[format]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown format %q", format)})
		return
	}

	f := report.DefaultFormat
	f.DecimalComma = c.Query("decimal_comma") == "true"

	var buf bytes.Buffer
	if err := pipeline.Render(&buf, format, results, f, time.Now()); err != nil {
		respondError(c, err, "failed to render export")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=produced.%s", format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func readUpload(header *multipart.FileHeader) (*tabular.Table, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tabular.Open(header.Filename, f)
}
