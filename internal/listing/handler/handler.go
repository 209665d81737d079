package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/marketplace-listing-service/internal/attribute"
	"github.com/fekuna/marketplace-listing-service/internal/auth"
	"github.com/fekuna/marketplace-listing-service/internal/listing"
	"github.com/fekuna/marketplace-listing-service/internal/listing/dto"
	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/fekuna/marketplace-listing-service/internal/middleware"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ListingHandler struct {
	uc     listing.UseCase
	logger logger.ZapLogger
}

func NewListingHandler(uc listing.UseCase, log logger.ZapLogger) *ListingHandler {
	return &ListingHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes mounts the listing endpoints. moderator is expected to be the
// /admin group guarded by middleware.RequireModerator.
func (h *ListingHandler) RegisterRoutes(public, owner, moderator *gin.RouterGroup) {
	public.POST("/listings/search", h.Search)
	public.GET("/listings/:publicId", h.GetListing)

	owner.POST("/listings", h.CreateListing)
	owner.PUT("/listings/:publicId", h.UpdateListing)
	owner.DELETE("/listings/:publicId", h.DeleteListing)
	owner.GET("/listings/:publicId/edit", h.GetForEdit)
	owner.GET("/me/listings", h.ListMine)
	owner.POST("/listings/:publicId/submit", h.Submit)
	owner.POST("/listings/:publicId/finish", h.Finish)

	moderator.GET("/listings/waiting", h.ListWaiting)
	moderator.GET("/listings/waiting/:publicId", h.GetWaiting)
	moderator.POST("/listings/:publicId/approve", h.Approve)
	moderator.POST("/listings/:publicId/reject", h.Reject)
}

type createListingRequest struct {
	CategoryID     int64                    `json:"category_id" binding:"required"`
	Title          string                   `json:"title" binding:"required"`
	Description    *string                  `json:"description"`
	Price          decimal.Decimal          `json:"price"`
	Currency       string                   `json:"currency"`
	Negotiable     bool                     `json:"negotiable"`
	LocationCity   *string                  `json:"location_city"`
	LocationRegion *string                  `json:"location_region"`
	Latitude       *float64                 `json:"latitude"`
	Longitude      *float64                 `json:"longitude"`
	Attributes     []attribute.RawAttribute `json:"attributes"`
}

type updateListingRequest struct {
	CategoryID     *int64                   `json:"category_id"`
	Title          *string                  `json:"title"`
	Description    *string                  `json:"description"`
	Price          *decimal.Decimal         `json:"price"`
	Currency       *string                  `json:"currency"`
	Negotiable     *bool                    `json:"negotiable"`
	LocationCity   *string                  `json:"location_city"`
	LocationRegion *string                  `json:"location_region"`
	Latitude       *float64                 `json:"latitude"`
	Longitude      *float64                 `json:"longitude"`
	Attributes     []attribute.RawAttribute `json:"attributes"`
}

type searchRequest struct {
	CategoryID *int64                   `json:"category_id"`
	SellerID   string                   `json:"seller_id"`
	Query      string                   `json:"query"`
	Filters    []filter.AttributeFilter `json:"filters"`
	Sort       []filter.SortSpec        `json:"sort"`
	Page       int                      `json:"page"`
	Size       int                      `json:"size"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	l, err := h.uc.Create(c.Request.Context(), auth.GetUserID(c.Request.Context()), &dto.CreateListingInput{
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		Currency:       req.Currency,
		Negotiable:     req.Negotiable,
		LocationCity:   req.LocationCity,
		LocationRegion: req.LocationRegion,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Attributes:     req.Attributes,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	l, err := h.uc.Update(c.Request.Context(), auth.GetUserID(c.Request.Context()), &dto.UpdateListingInput{
		PublicID:       c.Param("publicId"),
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		Currency:       req.Currency,
		Negotiable:     req.Negotiable,
		LocationCity:   req.LocationCity,
		LocationRegion: req.LocationRegion,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Attributes:     req.Attributes,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	if err := h.uc.Delete(c.Request.Context(), auth.GetUserID(c.Request.Context()), c.Param("publicId")); err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	l, err := h.uc.Get(c.Request.Context(), c.Param("publicId"))
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) GetForEdit(c *gin.Context) {
	l, err := h.uc.GetForEdit(c.Request.Context(), auth.GetUserID(c.Request.Context()), c.Param("publicId"))
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) ListMine(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}
	var status *model.ListingStatus
	if s := c.Query("status"); s != "" {
		st := model.ListingStatus(s)
		status = &st
	}

	result, err := h.uc.ListForUser(c.Request.Context(), auth.GetUserID(c.Request.Context()), status, page, size)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ListingHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	result, err := h.uc.Search(c.Request.Context(), &dto.SearchInput{
		Filters:    req.Filters,
		CategoryID: req.CategoryID,
		SellerID:   req.SellerID,
		Query:      req.Query,
		Sort:       req.Sort,
		Page:       req.Page,
		Size:       req.Size,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ListingHandler) Submit(c *gin.Context) {
	l, err := h.uc.SubmitForApproval(c.Request.Context(), auth.GetUserID(c.Request.Context()), c.Param("publicId"))
	h.respond(c, l, err)
}

func (h *ListingHandler) Finish(c *gin.Context) {
	l, err := h.uc.Finish(c.Request.Context(), auth.GetUserID(c.Request.Context()), c.Param("publicId"))
	h.respond(c, l, err)
}

func (h *ListingHandler) Approve(c *gin.Context) {
	l, err := h.uc.Approve(c.Request.Context(), c.Param("publicId"))
	h.respond(c, l, err)
}

func (h *ListingHandler) Reject(c *gin.Context) {
	var req rejectRequest
	// The reason is optional, an empty body is fine.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.BadRequest(c, err.Error())
			return
		}
	}
	l, err := h.uc.Reject(c.Request.Context(), c.Param("publicId"), req.Reason)
	h.respond(c, l, err)
}

func (h *ListingHandler) ListWaiting(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.uc.ListWaiting(c.Request.Context(), page, size)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ListingHandler) GetWaiting(c *gin.Context) {
	l, err := h.uc.GetWaiting(c.Request.Context(), c.Param("publicId"))
	h.respond(c, l, err)
}

func (h *ListingHandler) respond(c *gin.Context, l *model.Listing, err error) {
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func pageQuery(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		middleware.BadRequest(c, "invalid page")
		return 0, 0, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		middleware.BadRequest(c, "invalid size")
		return 0, 0, false
	}
	return page, size, true
}
