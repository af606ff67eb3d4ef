package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventName 是 WebSocket 事件名稱
type EventName string

// 客戶端送出的事件
const (
	EventAuthenticate EventName = "authenticate"
	EventJoinRoom     EventName = "join_room"
	EventLeaveRoom    EventName = "leave_room"
	EventSendMessage  EventName = "send_message"
	EventMarkRead     EventName = "mark_read"
)

// 伺服器推送的事件
const (
	EventAuthenticated       EventName = "authenticated"
	EventAuthenticationError EventName = "authentication_error"
	EventJoinedRoom          EventName = "joined_room"
	EventLeftRoom            EventName = "left_room"
	EventNewMessage          EventName = "new_message"
	EventMessageNotification EventName = "message_notification"
	EventMessagesRead        EventName = "messages_read"
	EventError               EventName = "error"
)

// Event 是 WebSocket 上傳遞的信封，Data 只編碼一次，扇出時直接重用
type Event struct {
	Name EventName       `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent 建立事件並編碼 payload
func NewEvent(name EventName, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: data}, nil
}

// MustEvent 用於 payload 一定能編碼的內部事件
func MustEvent(name EventName, payload any) Event {
	evt, err := NewEvent(name, payload)
	if err != nil {
		panic(err)
	}
	return evt
}

// ErrorPayload error / authentication_error 的內容
type ErrorPayload struct {
	Message string `json:"message"`
}

// AuthenticatedPayload authenticated 的內容
type AuthenticatedPayload struct {
	Success bool          `json:"success"`
	User    PublicProfile `json:"user"`
}

// RoomPayload joined_room / left_room / messages_read 的內容
type RoomPayload struct {
	RoomID primitive.ObjectID `json:"roomId"`
}

// ReceiverRef 只帶接收者 id
type ReceiverRef struct {
	ID primitive.ObjectID `json:"id"`
}

// NewMessagePayload new_message 的內容
type NewMessagePayload struct {
	RoomID    primitive.ObjectID `json:"roomId"`
	ID        primitive.ObjectID `json:"id"`
	Sender    PublicProfile      `json:"sender"`
	Receiver  ReceiverRef        `json:"receiver"`
	Item      primitive.ObjectID `json:"item,omitzero"`
	Message   string             `json:"message"`
	Type      MessageType        `json:"messageType"`
	CreatedAt time.Time          `json:"createdAt"`
	IsRead    bool               `json:"isRead"`
}

// NotificationPayload message_notification 的內容
type NotificationPayload struct {
	RoomID      primitive.ObjectID `json:"roomId"`
	Message     NewMessagePayload  `json:"message"`
	UnreadCount int64              `json:"unreadCount"`
}

// 客戶端事件的內容，id 以 hex 字串傳入並由 validator 檢查

// AuthenticateData authenticate 以物件形式送出時的內容
type AuthenticateData struct {
	Token string `json:"token" validate:"required"`
}

// JoinRoomData join_room 的內容
type JoinRoomData struct {
	RoomID string `json:"roomId" validate:"required,mongodb"`
	ItemID string `json:"itemId,omitempty" validate:"omitempty,mongodb"`
}

// RoomRequestData leave_room / mark_read 的內容
type RoomRequestData struct {
	RoomID string `json:"roomId" validate:"required,mongodb"`
}

// SendMessageData send_message 的內容
type SendMessageData struct {
	RoomID      string `json:"roomId" validate:"required,mongodb"`
	Message     string `json:"message" validate:"required"`
	MessageType string `json:"messageType,omitempty" validate:"omitempty,oneof=text image file"`
	ItemID      string `json:"itemId,omitempty" validate:"omitempty,mongodb"`
}
