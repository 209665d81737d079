package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/attribute"
	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/listing"
	"github.com/fekuna/marketplace-listing-service/internal/listing/dto"
	"github.com/fekuna/marketplace-listing-service/internal/listing/event"
	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/fekuna/marketplace-listing-service/internal/listing/lifecycle"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultCurrency = "PLN"

type Config struct {
	TTL             time.Duration
	DefaultPageSize int
	MaxPageSize     int
	ExpireBatchSize int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = lifecycle.DefaultTTL
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.ExpireBatchSize <= 0 {
		c.ExpireBatchSize = 500
	}
	return c
}

type listingUseCase struct {
	repo       listing.Repository
	attrs      listing.AttributeStore
	categories category.UseCase
	schema     attribute.UseCase
	tx         postgres.TxManager
	publisher  listing.EventPublisher
	machine    *lifecycle.Machine
	cfg        Config
	logger     logger.ZapLogger
	tracer     trace.Tracer
	now        func() time.Time
}

func NewListingUseCase(
	repo listing.Repository,
	attrs listing.AttributeStore,
	categories category.UseCase,
	schema attribute.UseCase,
	tx postgres.TxManager,
	publisher listing.EventPublisher,
	cfg Config,
	log logger.ZapLogger,
) listing.UseCase {
	cfg = cfg.withDefaults()
	uc := &listingUseCase{
		repo:       repo,
		attrs:      attrs,
		categories: categories,
		schema:     schema,
		tx:         tx,
		publisher:  publisher,
		cfg:        cfg,
		logger:     log,
		tracer:     otel.Tracer("github.com/fekuna/marketplace-listing-service/internal/listing"),
		now:        time.Now,
	}
	uc.machine = lifecycle.NewMachine(cfg.TTL)
	uc.machine.Now = func() time.Time { return uc.now() }
	return uc
}

func (uc *listingUseCase) Create(ctx context.Context, sellerID string, input *dto.CreateListingInput) (*model.Listing, error) {
	ctx, span := uc.tracer.Start(ctx, "listing.Create")
	defer span.End()

	if strings.TrimSpace(sellerID) == "" {
		return nil, apperror.ValidationFailed("seller id is required")
	}
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, apperror.ValidationFailed("price must not be negative")
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	l := &model.Listing{
		BaseModel:      model.BaseModel{CreatedAt: now, UpdatedAt: now},
		PublicID:       uuid.NewString(),
		CategoryID:     input.CategoryID,
		SellerID:       sellerID,
		Title:          title,
		Description:    input.Description,
		Price:          input.Price,
		Currency:       currency,
		Negotiable:     input.Negotiable,
		LocationCity:   input.LocationCity,
		LocationRegion: input.LocationRegion,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		Status:         model.ListingStatusDraft,
	}

	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.categories.RequireLeaf(ctx, input.CategoryID); err != nil {
			return err
		}
		values, err := uc.schema.ValidateAndBuildAttributes(ctx, input.CategoryID, input.Attributes)
		if err != nil {
			return err
		}
		if err := uc.repo.Create(ctx, l); err != nil {
			return err
		}
		if len(values) > 0 {
			if err := uc.attrs.Replace(ctx, l.ID, values); err != nil {
				return err
			}
		}
		l.Attributes = values
		return nil
	})
	if err != nil {
		return nil, spanError(span, err)
	}

	span.SetAttributes(otelattr.String("listing.public_id", l.PublicID))
	uc.logger.Info("listing created", zap.String("listing_id", l.PublicID), zap.Int64("category_id", l.CategoryID))
	return l, nil
}

func (uc *listingUseCase) Update(ctx context.Context, callerID string, input *dto.UpdateListingInput) (*model.Listing, error) {
	ctx, span := uc.tracer.Start(ctx, "listing.Update", trace.WithAttributes(otelattr.String("listing.public_id", input.PublicID)))
	defer span.End()

	var (
		l    *model.Listing
		from model.ListingStatus
	)
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if l, err = uc.ownedForUpdate(ctx, callerID, input.PublicID); err != nil {
			return err
		}

		categoryChanged := input.CategoryID != nil && *input.CategoryID != l.CategoryID
		if categoryChanged {
			if err := uc.categories.RequireLeaf(ctx, *input.CategoryID); err != nil {
				return err
			}
			l.CategoryID = *input.CategoryID
		}
		if err := applyPatch(l, input); err != nil {
			return err
		}

		// Values are bound to the schema of the category, so a move re-validates too.
		if input.Attributes != nil || categoryChanged {
			values, err := uc.schema.ValidateAndBuildAttributes(ctx, l.CategoryID, input.Attributes)
			if err != nil {
				return err
			}
			if err := uc.attrs.Replace(ctx, l.ID, values); err != nil {
				return err
			}
			l.Attributes = values
		} else if l.Attributes, err = uc.attrs.LoadForListing(ctx, l.ID); err != nil {
			return err
		}

		if from, err = uc.machine.Apply(l, lifecycle.ActionEdit, ""); err != nil {
			return err
		}
		return uc.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, spanError(span, err)
	}

	if from != l.Status {
		uc.publish(ctx, event.StatusChanged(l, from, l.UpdatedAt))
	}
	return l, nil
}

func applyPatch(l *model.Listing, input *dto.UpdateListingInput) error {
	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return err
		}
		l.Title = title
	}
	if input.Description != nil {
		l.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return apperror.ValidationFailed("price must not be negative")
		}
		l.Price = *input.Price
	}
	if input.Currency != nil {
		currency, err := normalizeCurrency(*input.Currency)
		if err != nil {
			return err
		}
		l.Currency = currency
	}
	if input.Negotiable != nil {
		l.Negotiable = *input.Negotiable
	}
	if input.LocationCity != nil {
		l.LocationCity = input.LocationCity
	}
	if input.LocationRegion != nil {
		l.LocationRegion = input.LocationRegion
	}
	if input.Latitude != nil {
		l.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		l.Longitude = input.Longitude
	}
	return nil
}

func (uc *listingUseCase) Delete(ctx context.Context, callerID, publicID string) error {
	var l *model.Listing
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if l, err = uc.ownedForUpdate(ctx, callerID, publicID); err != nil {
			return err
		}
		if err := uc.attrs.Replace(ctx, l.ID, nil); err != nil {
			return err
		}
		return uc.repo.Delete(ctx, l.ID)
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, event.Finished(l, model.FinishReasonDeleted, uc.now()))
	uc.logger.Info("listing deleted", zap.String("listing_id", publicID))
	return nil
}

func (uc *listingUseCase) Get(ctx context.Context, publicID string) (*model.Listing, error) {
	l, err := uc.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if l.Status != model.ListingStatusActive {
		return nil, apperror.ListingNotActive(publicID)
	}
	return l, uc.loadAttributes(ctx, l)
}

func (uc *listingUseCase) GetForEdit(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	l, err := uc.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(callerID) {
		return nil, apperror.OwnershipViolation(publicID)
	}
	return l, uc.loadAttributes(ctx, l)
}

func (uc *listingUseCase) ListForUser(ctx context.Context, sellerID string, status *model.ListingStatus, page, size int) (model.Page[model.ListingSummary], error) {
	if strings.TrimSpace(sellerID) == "" {
		return model.Page[model.ListingSummary]{}, apperror.ValidationFailed("seller id is required")
	}
	where := filter.And(filter.SellerEq(sellerID))
	if status != nil {
		if !status.Valid() {
			return model.Page[model.ListingSummary]{}, apperror.ValidationFailed("unknown status " + string(*status))
		}
		where = where.And(filter.StatusIn(*status))
	}
	return uc.page(ctx, where, filter.ParseSort(nil), page, size)
}

func (uc *listingUseCase) Search(ctx context.Context, input *dto.SearchInput) (model.Page[model.ListingSummary], error) {
	ctx, span := uc.tracer.Start(ctx, "listing.Search", trace.WithAttributes(otelattr.Int("search.filters", len(input.Filters))))
	defer span.End()

	where := filter.And(filter.StatusIn(model.ListingStatusActive))
	if input.CategoryID != nil {
		ids, err := uc.categories.DescendantIDs(ctx, *input.CategoryID)
		if apperror.IsKind(err, apperror.KindCategoryNotFound) {
			page, size := uc.pageParams(input.Page, input.Size)
			return model.NewPage[model.ListingSummary](nil, page, size, 0), nil
		}
		if err != nil {
			return model.Page[model.ListingSummary]{}, spanError(span, err)
		}
		where = where.And(filter.CategoryIn(ids))
	}
	if sellerID := strings.TrimSpace(input.SellerID); sellerID != "" {
		where = where.And(filter.SellerEq(sellerID))
	}
	if q := strings.TrimSpace(input.Query); q != "" {
		where = where.And(filter.TextContains(q))
	}

	attrs, err := filter.Build(input.Filters)
	if err != nil {
		return model.Page[model.ListingSummary]{}, spanError(span, err)
	}
	if attrs.Len() > 0 {
		where = where.And(attrs)
	}

	result, err := uc.page(ctx, where, filter.ParseSort(input.Sort), input.Page, input.Size)
	if err != nil {
		return result, spanError(span, err)
	}
	span.SetAttributes(otelattr.Int("search.total", result.Total))
	return result, nil
}

func (uc *listingUseCase) SubmitForApproval(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	return uc.transition(ctx, publicID, lifecycle.ActionSubmit, true, callerID, "")
}

func (uc *listingUseCase) Approve(ctx context.Context, publicID string) (*model.Listing, error) {
	return uc.transition(ctx, publicID, lifecycle.ActionApprove, false, "", "")
}

func (uc *listingUseCase) Reject(ctx context.Context, publicID, reason string) (*model.Listing, error) {
	return uc.transition(ctx, publicID, lifecycle.ActionReject, false, "", strings.TrimSpace(reason))
}

func (uc *listingUseCase) Finish(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	l, err := uc.transition(ctx, publicID, lifecycle.ActionFinish, true, callerID, "")
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, event.Finished(l, model.FinishReasonCompleted, l.UpdatedAt))
	return l, nil
}

// transition applies action under a row lock. With ownerOnly set, callerID must be
// the listing's seller; an empty callerID owns nothing.
func (uc *listingUseCase) transition(ctx context.Context, publicID string, action lifecycle.Action, ownerOnly bool, callerID, reason string) (*model.Listing, error) {
	var (
		l    *model.Listing
		from model.ListingStatus
	)
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if ownerOnly {
			l, err = uc.ownedForUpdate(ctx, callerID, publicID)
		} else {
			l, err = uc.findForUpdate(ctx, publicID)
		}
		if err != nil {
			return err
		}
		if from, err = uc.machine.Apply(l, action, reason); err != nil {
			return err
		}
		return uc.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, event.StatusChanged(l, from, l.UpdatedAt))
	uc.logger.Info("listing status changed",
		zap.String("listing_id", publicID),
		zap.String("action", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(l.Status)),
	)
	return l, nil
}

func (uc *listingUseCase) ListWaiting(ctx context.Context, page, size int) (model.Page[model.ListingSummary], error) {
	oldestFirst := filter.ParseSort([]filter.SortSpec{{Field: "createdAt", Dir: "asc"}})
	return uc.page(ctx, filter.And(filter.StatusIn(model.ListingStatusWaiting)), oldestFirst, page, size)
}

func (uc *listingUseCase) GetWaiting(ctx context.Context, publicID string) (*model.Listing, error) {
	l, err := uc.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if l.Status != model.ListingStatusWaiting {
		return nil, apperror.InvalidStateTransition("review", string(l.Status))
	}
	return l, uc.loadAttributes(ctx, l)
}

func (uc *listingUseCase) ExpireOverdue(ctx context.Context) (int, error) {
	ctx, span := uc.tracer.Start(ctx, "listing.ExpireOverdue")
	defer span.End()

	now := uc.now()
	total := 0
	for {
		var batch []model.Listing
		err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			batch, err = uc.repo.ExpireOverdue(ctx, now, uc.cfg.ExpireBatchSize)
			return err
		})
		if err != nil {
			span.SetAttributes(otelattr.Int("listing.expired", total))
			return total, spanError(span, err)
		}

		for i := range batch {
			l := &batch[i]
			uc.publish(ctx, event.StatusChanged(l, model.ListingStatusActive, now))
			uc.publish(ctx, event.Finished(l, model.FinishReasonExpired, now))
		}
		total += len(batch)

		if len(batch) < uc.cfg.ExpireBatchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}

	span.SetAttributes(otelattr.Int("listing.expired", total))
	if total > 0 {
		uc.logger.Info("expired overdue listings", zap.Int("count", total))
	}
	return total, nil
}

func (uc *listingUseCase) find(ctx context.Context, publicID string) (*model.Listing, error) {
	l, err := uc.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.ListingNotFound(publicID)
	}
	return l, nil
}

func (uc *listingUseCase) findForUpdate(ctx context.Context, publicID string) (*model.Listing, error) {
	l, err := uc.repo.FindByPublicIDForUpdate(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.ListingNotFound(publicID)
	}
	return l, nil
}

func (uc *listingUseCase) ownedForUpdate(ctx context.Context, callerID, publicID string) (*model.Listing, error) {
	l, err := uc.findForUpdate(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(callerID) {
		return nil, apperror.OwnershipViolation(publicID)
	}
	return l, nil
}

func (uc *listingUseCase) loadAttributes(ctx context.Context, l *model.Listing) error {
	values, err := uc.attrs.LoadForListing(ctx, l.ID)
	if err != nil {
		return err
	}
	l.Attributes = values
	return nil
}

func (uc *listingUseCase) page(ctx context.Context, where filter.Predicate, order filter.Order, page, size int) (model.Page[model.ListingSummary], error) {
	page, size = uc.pageParams(page, size)
	items, total, err := uc.repo.Search(ctx, where, order, size, page*size)
	if err != nil {
		return model.Page[model.ListingSummary]{}, err
	}
	return model.NewPage(items, page, size, total), nil
}

// pageParams clamps a zero-based page and its size.
func (uc *listingUseCase) pageParams(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = uc.cfg.DefaultPageSize
	}
	if size > uc.cfg.MaxPageSize {
		size = uc.cfg.MaxPageSize
	}
	return page, size
}

func (uc *listingUseCase) publish(ctx context.Context, e model.LifecycleEvent) {
	if err := uc.publisher.Publish(ctx, e); err != nil {
		uc.logger.Error("failed to publish lifecycle event",
			zap.String("listing_id", e.ListingID),
			zap.String("event_type", string(e.EventType)),
			zap.Error(err),
		)
	}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title is required")
	}
	if len([]rune(title)) > 200 {
		return "", apperror.ValidationFailed("title is longer than 200 characters")
	}
	return title, nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", apperror.ValidationFailed("currency must be a 3-letter code")
	}
	return currency, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
