package handler

import (
	gatepassapp "github.com/gatepass/backend/internal/application/gatepass"
	"github.com/gin-gonic/gin"
)

// GatePassHandler handles gate pass workflow API endpoints
type GatePassHandler struct {
	BaseHandler
	service *gatepassapp.GatePassService
}

// NewGatePassHandler creates a new GatePassHandler
func NewGatePassHandler(service *gatepassapp.GatePassService) *GatePassHandler {
	return &GatePassHandler{service: service}
}

// RegisterRoutes registers all gate pass routes
func (h *GatePassHandler) RegisterRoutes(rg *gin.RouterGroup) {
	passes := rg.Group("/gate-passes")
	{
		passes.GET("", h.List)
		passes.POST("", h.Create)
		passes.GET("/:refNo", h.Get)
		passes.POST("/:refNo/approve", h.Approve)
		passes.POST("/:refNo/reject", h.Reject)
		passes.POST("/:refNo/visibility", h.SetVisibility)
		passes.POST("/:refNo/items", h.AddItem)
		passes.POST("/:refNo/items/return", h.ReturnItems)
	}
}

// List returns the reconciled, enriched workflow view for one tab
func (h *GatePassHandler) List(c *gin.Context) {
	session, ok := h.getSessionUser(c)
	if !ok {
		return
	}

	var filter gatepassapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid listing parameters: "+err.Error())
		return
	}

	resp, err := h.service.List(c.Request.Context(), session, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Records, int64(resp.Total), resp.Page, resp.PageSize)
}

// Get returns a single enriched gate pass by reference number
func (h *GatePassHandler) Get(c *gin.Context) {
	session, ok := h.getSessionUser(c)
	if !ok {
		return
	}

	record, err := h.service.Get(c.Request.Context(), session, c.Param("refNo"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// Create submits a new gate pass on behalf of the session user
func (h *GatePassHandler) Create(c *gin.Context) {
	session, ok := h.getSessionUser(c)
	if !ok {
		return
	}

	var req gatepassapp.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.service.Create(c.Request.Context(), session, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, record)
}

// Approve advances a gate pass one stage
func (h *GatePassHandler) Approve(c *gin.Context) {
	session, ok := h.getSessionUser(c)
	if !ok {
		return
	}

	var req gatepassapp.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.service.Approve(c.Request.Context(), session, c.Param("refNo"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// Reject turns a gate pass down at its current stage
func (h *GatePassHandler) Reject(c *gin.Context) {
	session, ok := h.getSessionUser(c)
	if !ok {
		return
	}

	var req gatepassapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "A rejection comment is required")
		return
	}

	record, err := h.service.Reject(c.Request.Context(), session, c.Param("refNo"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// SetVisibility toggles the hidden flag on a gate pass
func (h *GatePassHandler) SetVisibility(c *gin.Context) {
	if _, ok := h.getSessionUser(c); !ok {
		return
	}

	var req gatepassapp.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "The hidden field is required")
		return
	}

	if err := h.service.SetHidden(c.Request.Context(), c.Param("refNo"), *req.Hidden); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// AddItem appends one item to a non-terminal gate pass
func (h *GatePassHandler) AddItem(c *gin.Context) {
	if _, ok := h.getSessionUser(c); !ok {
		return
	}

	var req gatepassapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.AddItem(c.Request.Context(), c.Param("refNo"), req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ReturnItems marks returnable serials on an approved gate pass as returned
func (h *GatePassHandler) ReturnItems(c *gin.Context) {
	if _, ok := h.getSessionUser(c); !ok {
		return
	}

	var req gatepassapp.ReturnItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "At least one serial number is required")
		return
	}

	resp, err := h.service.MarkReturned(c.Request.Context(), c.Param("refNo"), req.SerialNumbers)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
