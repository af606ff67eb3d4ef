package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType 定義消息類型
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// ChatMessage 代表一個聊天訊息
// Receiver 在送出時決定，之後不再由聊天室成員推導
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver  primitive.ObjectID `bson:"receiver" json:"receiver"`
	Item      primitive.ObjectID `bson:"item,omitempty" json:"item,omitzero"`
	Message   string             `bson:"message" json:"message"`
	Type      MessageType        `bson:"messageType" json:"messageType"`
	IsRead    bool               `bson:"isRead" json:"isRead"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Preview 產生聊天室的最後訊息快取
func (m *ChatMessage) Preview() LastMessage {
	return LastMessage{
		ID:        m.ID,
		Sender:    m.Sender,
		Message:   m.Message,
		Type:      m.Type,
		CreatedAt: m.CreatedAt,
	}
}
