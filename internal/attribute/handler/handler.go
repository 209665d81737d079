package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/marketplace-listing-service/internal/attribute"
	"github.com/fekuna/marketplace-listing-service/internal/attribute/dto"
	"github.com/fekuna/marketplace-listing-service/internal/middleware"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AttributeHandler struct {
	uc     attribute.UseCase
	logger logger.ZapLogger
}

func NewAttributeHandler(uc attribute.UseCase, log logger.ZapLogger) *AttributeHandler {
	return &AttributeHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AttributeHandler) RegisterRoutes(public, owner, admin *gin.RouterGroup) {
	public.GET("/categories/:id/attributes", h.GetEffectiveSchema)
	owner.POST("/attributes/validate", h.Validate)

	admin.POST("/attributes", h.CreateAttribute)
	admin.PUT("/attributes/:id", h.UpdateAttribute)
	admin.POST("/attributes/:id/options", h.AddOption)
}

type optionResponse struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

type attributeResponse struct {
	ID         int64               `json:"id"`
	CategoryID int64               `json:"category_id"`
	Key        string              `json:"key"`
	Label      string              `json:"label"`
	Type       model.AttributeType `json:"type"`
	Unit       *string             `json:"unit"`
	Required   bool                `json:"required"`
	SortOrder  int                 `json:"sort_order"`
	Active     bool                `json:"active"`
	Options    []optionResponse    `json:"options"`
}

func toResponse(e attribute.SchemaEntry) attributeResponse {
	opts := make([]optionResponse, 0, len(e.Options))
	for _, o := range e.Options {
		opts = append(opts, optionResponse{Value: o.Value, Label: o.Label, SortOrder: o.SortOrder})
	}
	d := e.Definition
	return attributeResponse{
		ID:         d.ID,
		CategoryID: d.CategoryID,
		Key:        d.Key,
		Label:      d.Label,
		Type:       d.Type,
		Unit:       d.Unit,
		Required:   d.Required,
		SortOrder:  d.SortOrder,
		Active:     d.Active,
		Options:    opts,
	}
}

func (h *AttributeHandler) GetEffectiveSchema(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	schema, err := h.uc.ResolveEffectiveSchema(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	out := make([]attributeResponse, 0, schema.Len())
	for _, e := range schema.Entries() {
		out = append(out, toResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"attributes": out})
}

type validateRequest struct {
	CategoryID int64                    `json:"category_id" binding:"required"`
	Attributes []attribute.RawAttribute `json:"attributes"`
}

func (h *AttributeHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	values, err := h.uc.ValidateAndBuildAttributes(c.Request.Context(), req.CategoryID, req.Attributes)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attributes": values})
}

type createAttributeRequest struct {
	CategoryID int64    `json:"category_id" binding:"required"`
	Key        string   `json:"key" binding:"required"`
	Label      string   `json:"label"`
	Type       string   `json:"type" binding:"required"`
	Unit       *string  `json:"unit"`
	Required   bool     `json:"required"`
	SortOrder  int      `json:"sort_order"`
	Options    []string `json:"options"`
}

func (h *AttributeHandler) CreateAttribute(c *gin.Context) {
	var req createAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	entry, err := h.uc.CreateAttribute(c.Request.Context(), &dto.CreateAttributeInput{
		CategoryID: req.CategoryID,
		Key:        req.Key,
		Label:      req.Label,
		Type:       req.Type,
		Unit:       req.Unit,
		Required:   req.Required,
		SortOrder:  req.SortOrder,
		Options:    req.Options,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(*entry))
}

type updateAttributeRequest struct {
	Label     *string `json:"label"`
	Unit      *string `json:"unit"`
	Required  *bool   `json:"required"`
	SortOrder *int    `json:"sort_order"`
	Active    *bool   `json:"active"`
}

func (h *AttributeHandler) UpdateAttribute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	entry, err := h.uc.UpdateAttribute(c.Request.Context(), &dto.UpdateAttributeInput{
		ID:        id,
		Label:     req.Label,
		Unit:      req.Unit,
		Required:  req.Required,
		SortOrder: req.SortOrder,
		Active:    req.Active,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(*entry))
}

type addOptionRequest struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	SortOrder *int   `json:"sort_order"`
}

func (h *AttributeHandler) AddOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req addOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	opt, err := h.uc.AddOption(c.Request.Context(), &dto.AddOptionInput{
		AttributeID: id,
		Value:       req.Value,
		Label:       req.Label,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, optionResponse{Value: opt.Value, Label: opt.Label, SortOrder: opt.SortOrder})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
