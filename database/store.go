package database

import (
	"context"
	"errors"

	"campus-market/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// ErrDuplicateKey 表示違反唯一索引（例如同時建立同一個聊天室）
var ErrDuplicateKey = errors.New("duplicate key")

// 集合名稱
const (
	UsersCollection     = "users"
	ItemsCollection     = "items"
	ChatRoomsCollection = "chatrooms"
	MessagesCollection  = "messages"
)

// ReadFilter 描述要標記已讀或計算未讀的訊息範圍
type ReadFilter struct {
	Receiver primitive.ObjectID
	// Sender 為 NilObjectID 時不限制發送者
	Sender primitive.ObjectID
	// IDs 為空時不限制訊息
	IDs []primitive.ObjectID
}

// Store 是聊天功能使用的持久層。FindX 找不到時回傳 nil, nil
type Store interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByStudentID(ctx context.Context, studentID string) (*models.User, error)

	InsertItem(ctx context.Context, item *models.Item) error
	FindItemByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error)

	InsertChatRoom(ctx context.Context, room *models.ChatRoom) error
	FindChatRoomByID(ctx context.Context, id primitive.ObjectID) (*models.ChatRoom, error)
	FindChatRoomByPairKey(ctx context.Context, pairKey string, itemID primitive.ObjectID) (*models.ChatRoom, error)
	SetChatRoomActive(ctx context.Context, id primitive.ObjectID, active bool) error
	GetUserChatRooms(ctx context.Context, userID primitive.ObjectID) ([]models.ChatRoom, error)
	UpdateChatRoomLastMessage(ctx context.Context, roomID primitive.ObjectID, last models.LastMessage) (bool, error)

	InsertMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessagesBetween(ctx context.Context, a, b primitive.ObjectID, skip, limit int64) ([]models.ChatMessage, error)
	MarkMessagesRead(ctx context.Context, filter ReadFilter) (int64, error)
	CountUnread(ctx context.Context, filter ReadFilter) (int64, error)
}
