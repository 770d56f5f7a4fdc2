package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/domain/dto"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/ingestion"
	"github.com/guttosm/aumreport/internal/middleware"
	"github.com/guttosm/aumreport/internal/present"
	"github.com/guttosm/aumreport/internal/service"
)

// Handler provides the stateless compute endpoints: every request carries
// the snapshots it is computed over, nothing is read from disk or storage.
//
// Responsibilities:
//   - Validate and decode request bodies
//   - Build a ReportContext from the posted records
//   - Run the requested section through the ReportService
//   - Render the result and map failures to HTTP status codes
type Handler struct {
	svc      service.ReportService
	currency string
	offsets  dates.Offsets
	now      func() time.Time
}

// NewHandler constructs a Handler rendering amounts in currency. Snapshot
// dates of historical periods are derived with offsets; zero offsets
// select dates.DefaultOffsets.
func NewHandler(svc service.ReportService, currency string, offsets dates.Offsets) *Handler {
	if offsets == (dates.Offsets{}) {
		offsets = dates.DefaultOffsets
	}
	return &Handler{svc: svc, currency: currency, offsets: offsets, now: time.Now}
}

// Scale handles POST /api/v1/reports/scale.
//
// Scale godoc
// @Summary      Product scale by category
// @Description  Sums current scale per category with shares of the total, compared against the posted last week, last month and last year snapshots
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        request  body      dto.ScaleRequest     true  "Current and historical positions"
// @Success      200      {object}  dto.SectionResponse  "Success"
// @Failure      400      {object}  dto.ErrorResponse    "Bad Request"
// @Failure      422      {object}  dto.ErrorResponse    "Section failed"
// @Failure      503      {object}  dto.ErrorResponse    "Timed out"
// @Router       /api/v1/reports/scale [post]
func (h *Handler) Scale(c *gin.Context) {
	var req dto.ScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rc, err := h.positionsContext(req.ReportDate, req.Current, req.History())
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	h.runSection(c, rc, service.SectionScale)
}

// Detail handles POST /api/v1/reports/detail.
//
// Detail godoc
// @Summary      Product detail
// @Description  Lists every product with its share of the total and of its category, joined with last week's scale and nav when posted
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        request  body      dto.DetailRequest    true  "Current and last week positions"
// @Success      200      {object}  dto.SectionResponse  "Success"
// @Failure      400      {object}  dto.ErrorResponse    "Bad Request"
// @Failure      422      {object}  dto.ErrorResponse    "Section failed"
// @Failure      503      {object}  dto.ErrorResponse    "Timed out"
// @Router       /api/v1/reports/detail [post]
func (h *Handler) Detail(c *gin.Context) {
	var req dto.DetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rc, err := h.positionsContext(req.ReportDate, req.Current, req.History())
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	h.runSection(c, rc, service.SectionDetail)
}

// Reconcile handles POST /api/v1/reconcile.
//
// Reconcile godoc
// @Summary      Reconcile channel figures
// @Description  Replaces channel-reported scales that differ from the book of record by more than the tolerance
// @Tags         reconcile
// @Accept       json
// @Produce      json
// @Param        request  body      dto.ReconcileRequest   true  "Channel figures and book-of-record positions"
// @Success      200      {object}  dto.ReconcileResponse  "Success"
// @Failure      400      {object}  dto.ErrorResponse      "Bad Request"
// @Failure      422      {object}  dto.ErrorResponse      "Ambiguous book of record"
// @Router       /api/v1/reconcile [post]
func (h *Handler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rec := h.svc.Reconciler()
	if req.Tolerance.Valid {
		if req.Tolerance.Decimal.IsNegative() {
			middleware.AbortWithError(c, http.StatusBadRequest, "tolerance must not be negative", nil)
			return
		}
		rec = service.NewChannelReconciler(req.Tolerance.Decimal)
	}

	positions, err := dto.PositionsFrame(req.Positions)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid positions", err)
		return
	}
	reference, err := service.ReferenceScales(positions)
	if err != nil {
		var ambiguous *frame.AmbiguousJoinError
		if errors.As(err, &ambiguous) {
			middleware.AbortWithError(c, http.StatusUnprocessableEntity, "duplicate product code in positions", err)
			return
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, "reconcile failed", err)
		return
	}

	values := rec.Reconcile(req.Records(), reference)
	resp := dto.ReconcileResponse{Tolerance: rec.Tolerance, Values: values}
	for _, v := range values {
		if v.Overridden {
			resp.Overridden++
		}
	}
	c.JSON(http.StatusOK, resp)
}

// positionsContext builds a ReportContext holding only positions. The
// current records are cleaned like a loaded snapshot.
func (h *Handler) positionsContext(date string, current []dto.PositionRecord, history map[models.Period][]dto.PositionRecord) (models.ReportContext, error) {
	reportDate, err := dates.Resolve(date, h.now())
	if err != nil {
		return models.ReportContext{}, err
	}
	cur, err := dto.PositionsFrame(current)
	if err != nil {
		return models.ReportContext{}, err
	}

	rc := models.ReportContext{
		ReportDate: reportDate,
		Current: models.Dataset{
			Date: reportDate,
			Positions: &models.Snapshot{
				Kind: models.Positions, Period: models.Current, Date: reportDate,
				Data: ingestion.Clean(models.Positions, cur),
			},
		},
		History: map[models.Period]models.Dataset{},
	}
	periodDates := dates.PeriodDates(reportDate, h.offsets)
	for p, recs := range history {
		f, err := dto.PositionsFrame(recs)
		if err != nil {
			return models.ReportContext{}, err
		}
		d := periodDates[p]
		rc.History[p] = models.Dataset{
			Date:      d,
			Positions: &models.Snapshot{Kind: models.Positions, Period: p, Date: d, Data: f},
		}
	}
	return rc, nil
}

// runSection computes one section and writes it, or the failure, as JSON.
func (h *Handler) runSection(c *gin.Context, rc models.ReportContext, name string) {
	report := h.svc.Run(c.Request.Context(), rc, []string{name})
	for _, f := range report.Failures {
		if f.Section != name {
			continue
		}
		status := http.StatusUnprocessableEntity
		if errors.Is(f, context.Canceled) || errors.Is(f, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		middleware.AbortWithError(c, status, "section failed", f)
		return
	}

	sec, ok := report.Section(name)
	if !ok {
		middleware.AbortWithError(c, http.StatusInternalServerError, "section missing from report", nil)
		return
	}
	c.JSON(http.StatusOK, dto.SectionResponse{
		Name:     sec.Name,
		Title:    sec.Title,
		Date:     dates.Format(report.Date),
		Table:    present.Render(sec.Table, h.currency),
		Warnings: sec.Warnings,
		Notes:    sec.Notes,
	})
}
