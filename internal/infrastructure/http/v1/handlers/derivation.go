package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"loomledger/internal/core/apperror"
	"loomledger/internal/domain/costing"
	"loomledger/internal/domain/reports"
	"loomledger/internal/domain/shortage"
	"loomledger/internal/domain/status"
	"loomledger/internal/domain/stock"
	"loomledger/internal/infrastructure/http/v1/dto"
)

// StatusHandler serves derived status queries.
type StatusHandler struct {
	*BaseHandler
	engine *status.Engine
}

func NewStatusHandler(engine *status.Engine) *StatusHandler {
	return &StatusHandler{BaseHandler: NewBaseHandler(), engine: engine}
}

// BatchStatus handles GET /status/batches/:ref.
func (h *StatusHandler) BatchStatus(c *gin.Context) {
	st, diags, err := h.engine.BatchStatus(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StatusResponse{
		Ref:         c.Param("ref"),
		Status:      string(st),
		Diagnostics: dto.FromDiagnostics(diags),
	})
}

// LotStatus handles GET /status/lots/*lotNo.
func (h *StatusHandler) LotStatus(c *gin.Context) {
	lotNo := lotNoParam(c)
	st, diags, err := h.engine.LotStatus(c.Request.Context(), lotNo)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StatusResponse{
		Ref:         lotNo,
		Status:      string(st),
		Diagnostics: dto.FromDiagnostics(diags),
	})
}

// Recompute handles POST /status/recompute. An optional batchRef query limits
// the recompute to one batch.
func (h *StatusHandler) Recompute(c *gin.Context) {
	ctx := c.Request.Context()

	var err error
	if ref := c.Query("batchRef"); ref != "" {
		err = h.engine.RecomputeBatch(ctx, ref)
	} else {
		err = h.engine.RecomputeAll(ctx)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SuccessResponse{Success: true})
}

// StockHandler serves stock balance queries.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

func NewStockHandler(service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Summary handles GET /stock/:holder. An optional yarnType query narrows the
// result to a single balance.
func (h *StockHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	holder := c.Param("holder")

	if yt := c.Query("yarnType"); yt != "" {
		b, err := h.service.Balance(ctx, holder, yt)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromBalance(b))
		return
	}

	balances, err := h.service.Summary(ctx, holder)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.BalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = dto.FromBalance(b)
	}
	h.OK(c, out)
}

// ShortageHandler serves the dyeing shortage report.
type ShortageHandler struct {
	*BaseHandler
	service *shortage.Service
}

func NewShortageHandler(service *shortage.Service) *ShortageHandler {
	return &ShortageHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Report handles GET /shortages/:dyeingUnit.
func (h *ShortageHandler) Report(c *gin.Context) {
	rows, err := h.service.Report(c.Request.Context(), c.Param("dyeingUnit"))
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.ShortageRowResponse, len(rows))
	for i, r := range rows {
		out[i] = dto.FromShortageRow(r)
	}
	h.OK(c, out)
}

// CostingHandler serves batch cost queries.
type CostingHandler struct {
	*BaseHandler
	service *costing.Service
}

func NewCostingHandler(service *costing.Service) *CostingHandler {
	return &CostingHandler{BaseHandler: NewBaseHandler(), service: service}
}

// NetPrice handles GET /costing/batches/:ref.
func (h *CostingHandler) NetPrice(c *gin.Context) {
	b, err := h.service.NetPrice(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBreakdown(b))
}

// ReportsHandler serves the purchase journal.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

func NewReportsHandler(service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Journal handles GET /reports/purchases. Accepts either from/to dates or a
// financialYear start year.
func (h *ReportsHandler) Journal(c *gin.Context) {
	ctx := c.Request.Context()

	if fy := c.Query("financialYear"); fy != "" {
		year, err := strconv.Atoi(fy)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid financial year").WithDetail("value", fy))
			return
		}
		j, err := h.service.FinancialYear(ctx, year)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromJournal(j))
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("unparsable date").WithDetail("field", "from"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("unparsable date").WithDetail("field", "to"))
		return
	}

	j, err := h.service.Between(ctx, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromJournal(j))
}
