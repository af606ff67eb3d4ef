package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campus-market/backend/database"
	"campus-market/backend/models"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const itemStatusAvailable = "available"

// CreateItemRequest 是 POST /api/items 的 body
type CreateItemRequest struct {
	Title  string   `json:"title" validate:"required,max=200"`
	Price  float64  `json:"price" validate:"gte=0"`
	Images []string `json:"images" validate:"omitempty,max=10,dive,required"`
}

// ItemHandler 只提供聊天需要的商品建立與查詢
type ItemHandler struct {
	store    database.Store
	validate *validator.Validate
	logger   logrus.FieldLogger
}

func NewItemHandler(store database.Store, validate *validator.Validate, logger logrus.FieldLogger) *ItemHandler {
	return &ItemHandler{store: store, validate: validate, logger: logger}
}

// Routes 掛載商品路由，建立商品需要 JWT
func (h *ItemHandler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.Handle("", auth(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	r.HandleFunc("/{itemId}", h.Get).Methods(http.MethodGet)
}

// Create 以目前使用者為賣家建立商品
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateItemRequest
	if err := decodeBody(r, h.validate, &req); err != nil {
		sendJSONError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		sendJSONError(w, h.logger, "invalid fields: Title (required)", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	item := &models.Item{
		Title:     strings.TrimSpace(req.Title),
		Price:     req.Price,
		Images:    req.Images,
		Seller:    sellerID,
		Status:    itemStatusAvailable,
		CreatedAt: time.Now().UTC(),
	}
	if item.Images == nil {
		item.Images = []string{}
	}
	if err := h.store.InsertItem(ctx, item); err != nil {
		h.logger.WithError(err).Error("Error inserting item")
		sendJSONError(w, h.logger, "Failed to create item", http.StatusInternalServerError)
		return
	}

	h.logger.WithFields(logrus.Fields{"item_id": item.ID.Hex(), "user_id": sellerID.Hex()}).Info("Item created")
	writeJSON(w, h.logger, http.StatusCreated, map[string]*models.Item{"item": item})
}

// Get 依 id 取得商品
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID, err := primitive.ObjectIDFromHex(mux.Vars(r)["itemId"])
	if err != nil {
		sendJSONError(w, h.logger, "Invalid item ID", http.StatusBadRequest)
		return
	}

	item, err := h.store.FindItemByID(r.Context(), itemID)
	if err != nil {
		h.logger.WithError(err).WithField("item_id", itemID.Hex()).Error("Error finding item")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		sendJSONError(w, h.logger, "Item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]*models.Item{"item": item})
}
