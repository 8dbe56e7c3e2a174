package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/domain/registry"
	"loomledger/internal/infrastructure/http/v1/dto"
)

// RegistryHandler serves batch and lot endpoints.
type RegistryHandler struct {
	*BaseHandler
	service *registry.Service
}

func NewRegistryHandler(service *registry.Service) *RegistryHandler {
	return &RegistryHandler{BaseHandler: NewBaseHandler(), service: service}
}

// CreateBatch handles POST /batches. The batch and its expected lots are
// created in one transaction.
func (h *RegistryHandler) CreateBatch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	fabricatorID, err := id.Parse(req.FabricatorID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fabricator id").
			WithDetail("value", req.FabricatorID))
		return
	}

	b := registry.NewBatch(req.BatchRef, fabricatorID, req.ProductName, req.ExpectedLots, req.Composition)
	if err := h.service.CreateBatch(c.Request.Context(), b, req.ExpectedLots); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, b.ID)
}

// GetBatch handles GET /batches/:ref.
func (h *RegistryHandler) GetBatch(c *gin.Context) {
	b, err := h.service.GetBatchByRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// ListBatches handles GET /batches. An optional fabricatorId query filters
// by fabricator.
func (h *RegistryHandler) ListBatches(c *gin.Context) {
	var (
		items []registry.Batch
		err   error
	)

	if fab := c.Query("fabricatorId"); fab != "" {
		fabricatorID, parseErr := id.Parse(fab)
		if parseErr != nil {
			h.Error(c, apperror.NewValidation("invalid fabricator id").WithDetail("value", fab))
			return
		}
		items, err = h.service.ListBatchesByFabricator(c.Request.Context(), fabricatorID)
	} else {
		items, err = h.service.ListBatches(c.Request.Context())
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.BatchResponse, len(items))
	for i := range items {
		out[i] = dto.FromBatch(&items[i])
	}
	h.OK(c, out)
}

// ListLots handles GET /batches/:ref/lots.
func (h *RegistryHandler) ListLots(c *gin.Context) {
	items, err := h.service.ListLots(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.LotResponse, len(items))
	for i := range items {
		out[i] = dto.FromLot(&items[i])
	}
	h.OK(c, out)
}

// AddLot handles POST /batches/:ref/lots.
func (h *RegistryHandler) AddLot(c *gin.Context) {
	var req dto.AddLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l, err := h.service.AddLot(c.Request.Context(), c.Param("ref"), req.Index)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, l.ID)
}

// lotNoParam extracts a lot number from a wildcard path segment. Lot numbers
// contain a slash ("200/1"), so the routes use *lotNo.
func lotNoParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("lotNo"), "/")
}

// GetLot handles GET /lots/*lotNo.
func (h *RegistryHandler) GetLot(c *gin.Context) {
	l, err := h.service.GetLotByNo(c.Request.Context(), lotNoParam(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLot(l))
}

// UpdateLotWeight handles PUT /lot-weights/*lotNo.
func (h *RegistryHandler) UpdateLotWeight(c *gin.Context) {
	var req dto.UpdateLotWeightRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.UpdateLotWeight(c.Request.Context(), lotNoParam(c), req.WeightKg); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
