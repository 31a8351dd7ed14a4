package services

import (
	"context"
	"strings"
	"time"

	"example.com/restaurant-pos/internal/cache"
	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"
	"example.com/restaurant-pos/internal/storage"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ImageStore keeps item images and hands out their public paths
type ImageStore interface {
	Save(ctx context.Context, upload storage.Upload) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

// ItemCache stores items by key. *cache.RedisCache implements it.
type ItemCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// ItemInput carries the editable fields of a catalog item
type ItemInput struct {
	Name   string
	Price  decimal.Decimal
	Type   models.ItemType
	Status models.ItemStatus
}

// CatalogService manages menu items. Reads go through the Redis cache when enabled.
type CatalogService struct {
	store   *repositories.Store
	cache   ItemCache
	images  ImageStore
	metrics *metrics.Metrics
	tracer  tracing.Tracer
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	store *repositories.Store,
	itemCache ItemCache,
	images ImageStore,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *CatalogService {
	if itemCache == nil {
		itemCache = cache.Disabled()
	}
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &CatalogService{
		store:   store,
		cache:   itemCache,
		images:  images,
		metrics: metricsCollector,
		tracer:  tracer,
	}
}

// Get returns a catalog item
func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Item, error) {
	span := s.tracer.StartSpanFromContext(ctx, "CatalogService.Get")
	defer span.End()

	key := cache.GetItemCacheKey(id)
	var cached models.Item
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.IncrementCounter(metrics.CacheHits)
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Uint("item_id", id).Msg("item cache read failed")
	}
	if s.cache.Enabled() {
		s.metrics.IncrementCounter(metrics.CacheMisses)
	}

	item, err := s.store.Items.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Item not found", "failed to get item")
	}

	if err := s.cache.Set(ctx, key, item); err != nil {
		log.Warn().Err(err).Uint("item_id", id).Msg("item cache write failed")
	}
	return item, nil
}

// Pricing returns a Catalog that reads items straight from the database,
// bypassing the cache. Orders are priced through it.
func (s *CatalogService) Pricing() Catalog {
	return pricingCatalog{items: s.store.Items}
}

type pricingCatalog struct {
	items *repositories.ItemRepository
}

func (p pricingCatalog) Get(ctx context.Context, id uint) (*models.Item, error) {
	item, err := p.items.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Item not found", "failed to get item")
	}
	return item, nil
}

// List returns every item, newest first
func (s *CatalogService) List(ctx context.Context) ([]models.Item, error) {
	items, err := s.store.Items.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list items")
	}
	return items, nil
}

// CreateItem stores a new item and its optional image. The image is removed
// again if the row cannot be written.
func (s *CatalogService) CreateItem(ctx context.Context, in ItemInput, image *storage.Upload) (*models.Item, error) {
	start := time.Now()
	defer s.metrics.Since("create_item", start)

	in, err := normalizeItem(in)
	if err != nil {
		return nil, err
	}

	imagePath, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		Name:   in.Name,
		Price:  in.Price,
		Type:   in.Type,
		Status: in.Status,
		Image:  imagePath,
	}
	if err := s.store.Items.Create(ctx, item); err != nil {
		s.discardImage(ctx, imagePath)
		return nil, storageError(err, "failed to create item")
	}

	s.metrics.IncrementCounter(metrics.ItemsWritten)
	log.Info().Uint("item_id", item.ID).Str("name", item.Name).Msg("Item created")
	return item, nil
}

// UpdateItem overwrites an item. A new image supersedes and deletes the old one;
// without a new image the old reference is kept.
func (s *CatalogService) UpdateItem(ctx context.Context, id uint, in ItemInput, image *storage.Upload) (*models.Item, error) {
	start := time.Now()
	defer s.metrics.Since("update_item", start)

	in, err := normalizeItem(in)
	if err != nil {
		return nil, err
	}

	item, err := s.store.Items.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Item not found", "failed to get item")
	}

	newImage, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	oldImage := item.Image
	item.Name = in.Name
	item.Price = in.Price
	item.Type = in.Type
	item.Status = in.Status
	if newImage != nil {
		item.Image = newImage
	}

	if err := s.store.Items.Update(ctx, item); err != nil {
		s.discardImage(ctx, newImage)
		return nil, storageError(err, "failed to update item")
	}

	s.invalidate(ctx, id)
	if newImage != nil {
		s.discardImage(ctx, oldImage)
	}

	s.metrics.IncrementCounter(metrics.ItemsWritten)
	log.Info().Uint("item_id", id).Msg("Item updated")
	return item, nil
}

// DeleteItem removes an item and releases its image. Past order lines are untouched.
func (s *CatalogService) DeleteItem(ctx context.Context, id uint) error {
	item, err := s.store.Items.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Item not found", "failed to get item")
	}

	if err := s.store.Items.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Item not found", "failed to delete item")
	}

	s.invalidate(ctx, id)
	s.discardImage(ctx, item.Image)

	s.metrics.IncrementCounter(metrics.ItemsWritten)
	log.Info().Uint("item_id", id).Msg("Item deleted")
	return nil
}

func (s *CatalogService) saveImage(ctx context.Context, image *storage.Upload) (*string, error) {
	if image == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, newError(KindValidation, "Image uploads are not enabled")
	}

	p, err := s.images.Save(ctx, *image)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
			return nil, &Error{Kind: KindValidation, Message: err.Error()}
		}
		return nil, storageError(err, "failed to store image")
	}
	return &p, nil
}

func (s *CatalogService) discardImage(ctx context.Context, p *string) {
	if p == nil || s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, *p); err != nil {
		log.Warn().Err(err).Str("image", *p).Msg("failed to remove image")
	}
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, cache.GetItemCacheKey(id)); err != nil {
		log.Warn().Err(err).Uint("item_id", id).Msg("item cache invalidation failed")
	}
}

func normalizeItem(in ItemInput) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, newError(KindValidation, "Name is required")
	}
	if in.Price.IsNegative() {
		return in, newError(KindValidation, "Price must not be negative")
	}
	in.Price = in.Price.Round(2)

	if !in.Type.Valid() {
		return in, newError(KindValidation, "Type must be veg or nonveg")
	}
	if in.Status == "" {
		in.Status = models.ItemStatusAvailable
	}
	if !in.Status.Valid() {
		return in, newError(KindValidation, "Status must be available or unavailable")
	}
	return in, nil
}
