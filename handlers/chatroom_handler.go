package handlers

import (
	"net/http"
	"strconv"

	"campus-market/backend/chat"
	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateRoomRequest 是 POST /rooms 的 body
type CreateRoomRequest struct {
	SellerID string `json:"sellerId" validate:"required,mongodb"`
	ItemID   string `json:"itemId" validate:"required,mongodb"`
	BuyerID  string `json:"buyerId" validate:"omitempty,mongodb"`
}

// ChatHandler 是聊天功能的 REST 介面，行為與 WebSocket 事件共用 chat 套件
type ChatHandler struct {
	directory *chat.Directory
	tracker   *chat.Tracker
	validate  *validator.Validate
	logger    logrus.FieldLogger
}

func NewChatHandler(directory *chat.Directory, tracker *chat.Tracker, validate *validator.Validate, logger logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{directory: directory, tracker: tracker, validate: validate, logger: logger}
}

// Routes 掛載聊天路由，整個 subrouter 都需要 JWT
func (h *ChatHandler) Routes(r *mux.Router) {
	r.HandleFunc("/rooms", h.ListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms", h.CreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId}/messages", h.ListMessages).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}", h.DeleteRoom).Methods(http.MethodDelete)
	r.HandleFunc("/unread-count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/mark-all-read", h.MarkAllRead).Methods(http.MethodPut)
}

func currentUser(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger) (primitive.ObjectID, bool) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, logger, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func roomIDFromPath(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger) (primitive.ObjectID, bool) {
	roomID, err := primitive.ObjectIDFromHex(mux.Vars(r)["roomId"])
	if err != nil {
		sendJSONError(w, logger, "Invalid room ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return roomID, true
}

// ListRooms GET /rooms
func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	rooms, err := h.directory.ListRooms(r.Context(), userID)
	if err != nil {
		sendChatError(w, h.logger, err)
		return
	}
	if rooms == nil {
		rooms = []models.RoomDescriptor{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"rooms": rooms})
}

// CreateRoom POST /rooms，已存在時回傳同一個聊天室
func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if err := decodeBody(r, h.validate, &req); err != nil {
		sendJSONError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}
	if req.BuyerID != "" && req.BuyerID != userID.Hex() {
		sendJSONError(w, h.logger, "Buyer ID does not match current user", http.StatusBadRequest)
		return
	}
	sellerID, _ := primitive.ObjectIDFromHex(req.SellerID)
	itemID, _ := primitive.ObjectIDFromHex(req.ItemID)

	room, err := h.directory.GetOrCreateRoom(r.Context(), userID, sellerID, itemID)
	if err != nil {
		sendChatError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"room": room})
}

// ListMessages GET /rooms/{roomId}/messages?page=1&limit=50
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	roomID, ok := roomIDFromPath(w, r, h.logger)
	if !ok {
		return
	}
	// 不合法的 page/limit 交給 Directory 套用預設值
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.directory.ListMessages(r.Context(), userID, roomID, page, limit)
	if err != nil {
		sendChatError(w, h.logger, err)
		return
	}
	if result.Messages == nil {
		result.Messages = []models.ChatMessage{}
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// DeleteRoom DELETE /rooms/{roomId}，只是停用，歷史訊息保留
func (h *ChatHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	roomID, ok := roomIDFromPath(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.directory.DeactivateRoom(r.Context(), userID, roomID); err != nil {
		sendChatError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.MessageResponse{Message: "Chat room deleted"})
}

// UnreadCount GET /unread-count
func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	count, err := h.tracker.UnreadCount(r.Context(), userID)
	if err != nil {
		sendChatError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]int64{"unreadCount": count})
}

// MarkAllRead PUT /mark-all-read
func (h *ChatHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	n, err := h.tracker.MarkAllRead(r.Context(), userID)
	if err != nil {
		sendChatError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"message": "All messages marked as read", "modified": n})
}
