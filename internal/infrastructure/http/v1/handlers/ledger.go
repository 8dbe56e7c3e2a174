package handlers

import (
	"github.com/gin-gonic/gin"

	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
	"loomledger/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves purchase and dyeing return endpoints.
type LedgerHandler struct {
	*BaseHandler
	service  *ledger.Service
	registry *registry.Service
}

func NewLedgerHandler(service *ledger.Service, reg *registry.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: NewBaseHandler(), service: service, registry: reg}
}

// --- Purchases ---

// CreatePurchase handles POST /purchases.
func (h *LedgerHandler) CreatePurchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.RecordPurchase(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// UpdatePurchase handles PUT /purchases/:id.
func (h *LedgerHandler) UpdatePurchase(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Purchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.Apply(p); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdatePurchase(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchase(p))
}

// DeletePurchase handles DELETE /purchases/:id.
func (h *LedgerHandler) DeletePurchase(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePurchase(c.Request.Context(), purchaseID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ListPurchases handles GET /purchases. Filters: batchRef, lotNo, holder with
// direction=inward|outward.
func (h *LedgerHandler) ListPurchases(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		items []ledger.PurchaseEntry
		err   error
	)

	switch {
	case c.Query("batchRef") != "":
		items, err = h.service.PurchasesByBatch(ctx, c.Query("batchRef"))
	case c.Query("lotNo") != "":
		items, err = h.service.PurchasesByLot(ctx, c.Query("lotNo"))
	case c.Query("holder") != "" && c.Query("direction") == "outward":
		items, err = h.service.OutwardForHolder(ctx, c.Query("holder"))
	case c.Query("holder") != "":
		items, err = h.service.InwardForHolder(ctx, c.Query("holder"))
	default:
		items = nil
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchases(items))
}

// --- Dyeing returns ---

// CreateReturn handles POST /dyeing-returns.
func (h *LedgerHandler) CreateReturn(c *gin.Context) {
	var req dto.DyeingReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, lotNo, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	lot, err := h.registry.GetLotByNo(c.Request.Context(), lotNo)
	if err != nil {
		h.Error(c, err)
		return
	}
	d.LotID = lot.ID

	if err := h.service.RecordReturn(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, d.ID)
}

// UpdateReturn handles PUT /dyeing-returns/:id.
func (h *LedgerHandler) UpdateReturn(c *gin.Context) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.DyeingReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Return(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}

	lotNo, err := req.Apply(d)
	if err != nil {
		h.Error(c, err)
		return
	}

	lot, err := h.registry.GetLotByNo(c.Request.Context(), lotNo)
	if err != nil {
		h.Error(c, err)
		return
	}
	d.LotID = lot.ID

	if err := h.service.UpdateReturn(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDyeingReturn(d))
}

// DeleteReturn handles DELETE /dyeing-returns/:id.
func (h *LedgerHandler) DeleteReturn(c *gin.Context) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteReturn(c.Request.Context(), returnID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ListReturns handles GET /lots/:lotNo/returns via a lotNo query.
func (h *LedgerHandler) ListReturns(c *gin.Context) {
	lot, err := h.registry.GetLotByNo(c.Request.Context(), c.Query("lotNo"))
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.ReturnsByLot(c.Request.Context(), lot.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDyeingReturns(items))
}
