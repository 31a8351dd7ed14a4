package handlers

import (
	"mime/multipart"
	"net/http"

	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/storage"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ItemHandler handles catalog HTTP requests
type ItemHandler struct {
	catalog *services.CatalogService
	tracer  tracing.Tracer
}

// NewItemHandler creates a new item handler
func NewItemHandler(catalog *services.CatalogService, tracer tracing.Tracer) *ItemHandler {
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &ItemHandler{
		catalog: catalog,
		tracer:  tracer,
	}
}

// ItemForm is the multipart form of an item write
type ItemForm struct {
	Name   string `form:"name" validate:"required,max=100"`
	Price  string `form:"price" validate:"required,numeric"`
	Type   string `form:"type" validate:"required,item_type"`
	Status string `form:"status" validate:"omitempty,item_status"`
}

func (f ItemForm) input() services.ItemInput {
	// validated as numeric already
	price, _ := decimal.NewFromString(f.Price)
	return services.ItemInput{
		Name:   f.Name,
		Price:  price,
		Type:   models.ItemType(f.Type),
		Status: models.ItemStatus(f.Status),
	}
}

// HandleCreateItem creates an item from a multipart form with an optional image
func (h *ItemHandler) HandleCreateItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-item")
	defer h.tracer.EndTransaction(txn)

	form, ok := bindItemForm(c)
	if !ok {
		return
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	defer closeImage()

	item, err := h.catalog.CreateItem(c.Request.Context(), form.input(), image)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item created successfully",
		"itemId":  item.ID,
		"image":   item.Image,
	})
}

// HandleListItems returns every item, newest first
func (h *ItemHandler) HandleListItems(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-items")
	defer h.tracer.EndTransaction(txn)

	items, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// HandleGetItem returns one item
func (h *ItemHandler) HandleGetItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-item")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Item not found")
	if !ok {
		return
	}

	item, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// HandleUpdateItem overwrites an item; a new image replaces the old one
func (h *ItemHandler) HandleUpdateItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-item")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Item not found")
	if !ok {
		return
	}

	form, ok := bindItemForm(c)
	if !ok {
		return
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	defer closeImage()

	item, err := h.catalog.UpdateItem(c.Request.Context(), id, form.input(), image)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item updated successfully",
		"image":   item.Image,
	})
}

// HandleDeleteItem deletes an item and its image
func (h *ItemHandler) HandleDeleteItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-delete-item")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Item not found")
	if !ok {
		return
	}

	if err := h.catalog.DeleteItem(c.Request.Context(), id); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// RegisterRoutes registers the handler's routes
func (h *ItemHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/items", h.HandleCreateItem)
	router.GET("/items", h.HandleListItems)
	router.GET("/items/:id", h.HandleGetItem)
	router.PUT("/items/:id", h.HandleUpdateItem)
	router.DELETE("/items/:id", h.HandleDeleteItem)
}

func bindItemForm(c *gin.Context) (ItemForm, bool) {
	var form ItemForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn().Err(err).Msg("Failed to parse item form")
		WriteError(c, NewValidationError("Failed to parse form data"))
		return form, false
	}
	if err := validateStruct(form); err != nil {
		WriteError(c, NewValidationError("Please provide all required fields"))
		return form, false
	}
	return form, true
}

// formImage opens the optional "image" file of the request
func formImage(c *gin.Context) (*storage.Upload, func(), error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, NewValidationError("Failed to read image")
	}

	var file multipart.File
	if file, err = header.Open(); err != nil {
		return nil, func() {}, errors.Wrap(err, "failed to open uploaded image")
	}
	closeFile := func() {
		if err := file.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close uploaded image")
		}
	}
	return &storage.Upload{Filename: header.Filename, Content: file}, closeFile, nil
}
