package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/category/dto"
	"github.com/fekuna/marketplace-listing-service/internal/middleware"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/categories/tree", h.GetTree)
	public.GET("/categories/:id", h.GetCategory)
	public.GET("/categories/:id/path", h.GetPath)

	admin.POST("/categories", h.CreateCategory)
	admin.PUT("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)
}

type createCategoryRequest struct {
	ParentID  *int64  `json:"parent_id"`
	Name      string  `json:"name" binding:"required"`
	ImageURL  *string `json:"image_url"`
	SortOrder int     `json:"sort_order"`
}

type updateCategoryRequest struct {
	Name       *string `json:"name"`
	ImageURL   *string `json:"image_url"`
	SortOrder  *int    `json:"sort_order"`
	ParentID   *int64  `json:"parent_id"`
	MoveToRoot bool    `json:"move_to_root"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	cat, err := h.uc.CreateCategory(c.Request.Context(), &dto.CreateCategoryInput{
		ParentID:  req.ParentID,
		Name:      req.Name,
		ImageURL:  req.ImageURL,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cat, err := h.uc.GetCategory(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	cat, err := h.uc.UpdateCategory(c.Request.Context(), &dto.UpdateCategoryInput{
		ID:         id,
		Name:       req.Name,
		ImageURL:   req.ImageURL,
		SortOrder:  req.SortOrder,
		ParentID:   req.ParentID,
		MoveToRoot: req.MoveToRoot,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.uc.DeleteCategory(c.Request.Context(), id); err != nil {
		h.logger.Debug("category delete refused", zap.Int64("category_id", id), zap.Error(err))
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CategoryHandler) GetTree(c *gin.Context) {
	tree, err := h.uc.GetTree(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

func (h *CategoryHandler) GetPath(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	path, err := h.uc.PathToRoot(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.BadRequest(c, "invalid category id")
		return 0, false
	}
	return id, true
}
