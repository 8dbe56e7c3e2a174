package handlers

import (
	"github.com/gin-gonic/gin"

	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/catalogs/yarn"
	"loomledger/internal/infrastructure/http/v1/dto"
)

// PartyHandler serves the party master endpoints.
type PartyHandler struct {
	*BaseHandler
	service *party.Service
}

func NewPartyHandler(service *party.Service) *PartyHandler {
	return &PartyHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create handles POST /parties.
func (h *PartyHandler) Create(c *gin.Context) {
	var req dto.CreatePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// Update handles PUT /parties/:id.
func (h *PartyHandler) Update(c *gin.Context) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), partyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	p.Name = req.Name
	p.Role = req.Role
	p.ColorCode = req.ColorCode
	p.RatePerKg = req.RatePerKg
	p.Version = req.Version

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromParty(p))
}

// Delete handles DELETE /parties/:id.
func (h *PartyHandler) Delete(c *gin.Context) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), partyID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Get handles GET /parties/:id.
func (h *PartyHandler) Get(c *gin.Context) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), partyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromParty(p))
}

// List handles GET /parties. An optional role query filters by role.
func (h *PartyHandler) List(c *gin.Context) {
	var (
		items []party.Party
		err   error
	)

	if role := c.Query("role"); role != "" {
		items, err = h.service.ListByRole(c.Request.Context(), party.Role(role))
	} else {
		items, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.PartyResponse, len(items))
	for i := range items {
		out[i] = dto.FromParty(&items[i])
	}
	h.OK(c, out)
}

// YarnHandler serves the yarn type endpoints.
type YarnHandler struct {
	*BaseHandler
	service *yarn.Service
}

func NewYarnHandler(service *yarn.Service) *YarnHandler {
	return &YarnHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create handles POST /yarn-types.
func (h *YarnHandler) Create(c *gin.Context) {
	var req dto.CreateYarnTypeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := yarn.New(req.Name)
	if err := h.service.Create(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t.ID)
}

// Delete handles DELETE /yarn-types/:id.
func (h *YarnHandler) Delete(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), typeID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /yarn-types.
func (h *YarnHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.YarnTypeResponse, len(items))
	for i := range items {
		out[i] = dto.FromYarnType(&items[i])
	}
	h.OK(c, out)
}
