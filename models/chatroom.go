package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRoom 代表買家與賣家針對某件商品的對話
type ChatRoom struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Participants  []primitive.ObjectID `bson:"participants" json:"participants"` // 恰好兩位，已排序
	PairKey       string               `bson:"pairKey" json:"-"`                 // 排序後的參與者，搭配 Item 建立唯一索引
	Item          primitive.ObjectID   `bson:"item,omitempty" json:"item,omitzero"`
	LastMessage   *LastMessage         `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt *time.Time           `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	IsActive      bool                 `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LastMessage 是最後一則訊息的快取，只存 id 與預覽欄位
type LastMessage struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Message   string             `bson:"message" json:"message"`
	Type      MessageType        `bson:"messageType" json:"messageType"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasParticipant 檢查使用者是否為聊天室成員
func (r *ChatRoom) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant 回傳另一位參與者
func (r *ChatRoom) OtherParticipant(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	for _, p := range r.Participants {
		if p != userID {
			return p, true
		}
	}
	return primitive.NilObjectID, false
}

// RoomDescriptor 是 getOrCreateRoom 與聊天室列表的回應
type RoomDescriptor struct {
	ID               primitive.ObjectID `json:"id"`
	OtherParticipant PublicProfile      `json:"otherParticipant"`
	Item             *ItemSummary       `json:"item,omitempty"`
	LastMessage      *LastMessage       `json:"lastMessage,omitempty"`
	LastMessageAt    *time.Time         `json:"lastMessageAt,omitempty"`
	UnreadCount      *int64             `json:"unreadCount,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}
