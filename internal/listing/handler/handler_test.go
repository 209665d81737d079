package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/listing/dto"
	"github.com/fekuna/marketplace-listing-service/internal/middleware"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) listing(args mock.Arguments) (*model.Listing, error) {
	l, _ := args.Get(0).(*model.Listing)
	return l, args.Error(1)
}

func (m *mockUseCase) page(args mock.Arguments) (model.Page[model.ListingSummary], error) {
	p, _ := args.Get(0).(model.Page[model.ListingSummary])
	return p, args.Error(1)
}

func (m *mockUseCase) Create(ctx context.Context, sellerID string, in *dto.CreateListingInput) (*model.Listing, error) {
	return m.listing(m.Called(ctx, sellerID, in))
}

func (m *mockUseCase) Update(ctx context.Context, callerID string, in *dto.UpdateListingInput) (*model.Listing, error) {
	return m.listing(m.Called(ctx, callerID, in))
}

func (m *mockUseCase) Delete(ctx context.Context, callerID, publicID string) error {
	return m.Called(ctx, callerID, publicID).Error(0)
}

func (m *mockUseCase) Get(ctx context.Context, publicID string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, publicID))
}

func (m *mockUseCase) GetForEdit(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, callerID, publicID))
}

func (m *mockUseCase) ListForUser(ctx context.Context, sellerID string, status *model.ListingStatus, page, size int) (model.Page[model.ListingSummary], error) {
	return m.page(m.Called(ctx, sellerID, status, page, size))
}

func (m *mockUseCase) Search(ctx context.Context, in *dto.SearchInput) (model.Page[model.ListingSummary], error) {
	return m.page(m.Called(ctx, in))
}

func (m *mockUseCase) SubmitForApproval(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, callerID, publicID))
}

func (m *mockUseCase) Approve(ctx context.Context, publicID string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, publicID))
}

func (m *mockUseCase) Reject(ctx context.Context, publicID, reason string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, publicID, reason))
}

func (m *mockUseCase) Finish(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, callerID, publicID))
}

func (m *mockUseCase) ListWaiting(ctx context.Context, page, size int) (model.Page[model.ListingSummary], error) {
	return m.page(m.Called(ctx, page, size))
}

func (m *mockUseCase) GetWaiting(ctx context.Context, publicID string) (*model.Listing, error) {
	return m.listing(m.Called(ctx, publicID))
}

func (m *mockUseCase) ExpireOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func router(uc *mockUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Identity())
	v1 := r.Group("/v1")
	NewListingHandler(uc, logger.NewNop()).RegisterRoutes(
		v1,
		v1.Group("", middleware.RequireUser()),
		v1.Group("/admin", middleware.RequireModerator()),
	)
	return r
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var asSeller = map[string]string{"X-User-ID": "seller-1"}

func TestCreateListing_PassesCallerAndTypedAttributes(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Create", mock.Anything, "seller-1", mock.MatchedBy(func(in *dto.CreateListingInput) bool {
		return in.CategoryID == 2 && in.Price.String() == "15000.5" && len(in.Attributes) == 1 &&
			*in.Attributes[0].Value == "125000"
	})).Return(&model.Listing{PublicID: "abc", Status: model.ListingStatusDraft}, nil)

	body := `{"category_id":2,"title":"Golf","price":"15000.50","attributes":[{"key":"mileage","value":125000}]}`
	w := do(router(uc), http.MethodPost, "/v1/listings", body, asSeller)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got model.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.PublicID)
	uc.AssertExpectations(t)
}

func TestOwnerRoutesRequireIdentity(t *testing.T) {
	uc := &mockUseCase{}
	w := do(router(uc), http.MethodPost, "/v1/listings/abc/submit", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	uc.AssertNotCalled(t, "SubmitForApproval", mock.Anything, mock.Anything, mock.Anything)
}

func TestModeratorRoutesRequireRole(t *testing.T) {
	uc := &mockUseCase{}
	r := router(uc)

	w := do(r, http.MethodPost, "/v1/admin/listings/abc/approve", "", asSeller)
	assert.Equal(t, http.StatusForbidden, w.Code)

	uc.On("Approve", mock.Anything, "abc").Return(&model.Listing{PublicID: "abc", Status: model.ListingStatusActive}, nil)
	w = do(r, http.MethodPost, "/v1/admin/listings/abc/approve", "", map[string]string{"X-User-ID": "mod", "X-User-Role": "Moderator"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReject_ReasonIsOptional(t *testing.T) {
	uc := &mockUseCase{}
	r := router(uc)
	mod := map[string]string{"X-User-ID": "mod", "X-User-Role": "admin"}

	uc.On("Reject", mock.Anything, "abc", "").Return(&model.Listing{}, nil).Once()
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/v1/admin/listings/abc/reject", "", mod).Code)

	uc.On("Reject", mock.Anything, "abc", "spam").Return(&model.Listing{}, nil).Once()
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/v1/admin/listings/abc/reject", `{"reason":"spam"}`, mod).Code)
	uc.AssertExpectations(t)
}

func TestErrorsMapToTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not active", apperror.ListingNotActive("abc"), http.StatusNotFound, "LISTING_002"},
		{"not found", apperror.ListingNotFound("abc"), http.StatusNotFound, "LISTING_001"},
		{"unexpected", assert.AnError, http.StatusInternalServerError, apperror.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("Get", mock.Anything, "abc").Return(nil, tt.err)

			w := do(router(uc), http.MethodGet, "/v1/listings/abc", "", nil)
			assert.Equal(t, tt.status, w.Code)
			var body middleware.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestSearch_BindsFiltersAndSort(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Search", mock.Anything, mock.MatchedBy(func(in *dto.SearchInput) bool {
		return len(in.Filters) == 1 && in.Filters[0].Op == "between" && in.Filters[0].From == "100" &&
			len(in.Sort) == 1 && in.Sort[0].Field == "price" && in.Size == 10
	})).Return(model.NewPage([]model.ListingSummary{{PublicID: "abc"}}, 0, 10, 1), nil)

	body := `{"filters":[{"key":"mileage","type":"NUMBER","op":"between","from":"100","to":"200"}],
		"sort":[{"field":"price","dir":"asc"}],"size":10}`
	w := do(router(uc), http.MethodPost, "/v1/listings/search", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page model.Page[model.ListingSummary]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	assert.Equal(t, http.StatusBadRequest, do(router(uc), http.MethodPost, "/v1/listings/search", `{`, nil).Code)
}

func TestListMine_StatusAndPaging(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("ListForUser", mock.Anything, "seller-1", mock.MatchedBy(func(s *model.ListingStatus) bool {
		return s != nil && *s == model.ListingStatusDraft
	}), 2, 5).Return(model.NewPage[model.ListingSummary](nil, 2, 5, 0), nil)

	w := do(router(uc), http.MethodGet, "/v1/me/listings?status=DRAFT&page=2&size=5", "", asSeller)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, do(router(uc), http.MethodGet, "/v1/me/listings?page=x", "", asSeller).Code)
	uc.AssertExpectations(t)
}
