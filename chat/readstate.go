package chat

import (
	"context"

	"campus-market/backend/config"
	"campus-market/backend/database"
	"campus-market/backend/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tracker 負責已讀狀態。訊息只會從未讀變成已讀，不會反向
type Tracker struct {
	store     database.Store
	deliverer Deliverer
	scope     config.ReadScope
	logger    logrus.FieldLogger
}

func NewTracker(store database.Store, deliverer Deliverer, scope config.ReadScope, logger logrus.FieldLogger) *Tracker {
	if scope != config.ReadScopeRoom {
		scope = config.ReadScopeGlobal
	}
	return &Tracker{store: store, deliverer: deliverer, scope: scope, logger: logger}
}

// Scope 回傳目前使用的已讀範圍
func (t *Tracker) Scope() config.ReadScope {
	return t.scope
}

// roomFilter 依範圍決定加入聊天室或 mark_read 時要清除哪些訊息。
// global: 使用者收到的所有未讀訊息; room: 只有該聊天室另一位參與者傳來的
func (t *Tracker) roomFilter(userID primitive.ObjectID, room *models.ChatRoom) database.ReadFilter {
	f := database.ReadFilter{Receiver: userID}
	if t.scope == config.ReadScopeRoom {
		if other, ok := room.OtherParticipant(userID); ok {
			f.Sender = other
		}
	}
	return f
}

// OnJoinRoom 在連線加入聊天室後標記已讀，並通知另一位參與者
func (t *Tracker) OnJoinRoom(ctx context.Context, userID primitive.ObjectID, room *models.ChatRoom) error {
	return t.markRoom(ctx, userID, room)
}

// MarkRead 處理客戶端主動送出的 mark_read
func (t *Tracker) MarkRead(ctx context.Context, userID, roomID primitive.ObjectID) error {
	room, err := t.store.FindChatRoomByID(ctx, roomID)
	if err != nil {
		return storeError("find chat room", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if !room.HasParticipant(userID) {
		return ErrNotParticipant
	}
	return t.markRoom(ctx, userID, room)
}

func (t *Tracker) markRoom(ctx context.Context, userID primitive.ObjectID, room *models.ChatRoom) error {
	n, err := t.store.MarkMessagesRead(ctx, t.roomFilter(userID, room))
	if err != nil {
		return storeError("mark messages read", err)
	}
	t.logger.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"room_id": room.ID.Hex(),
		"marked":  n,
		"scope":   t.scope,
	}).Debug("messages marked read")

	t.notifyRead(userID, room)
	return nil
}

// MarkDelivered 把單一則訊息標記為已讀，用於接收者正在聊天室內的情況
func (t *Tracker) MarkDelivered(ctx context.Context, receiverID primitive.ObjectID, msgID primitive.ObjectID, room *models.ChatRoom) (bool, error) {
	n, err := t.store.MarkMessagesRead(ctx, database.ReadFilter{Receiver: receiverID, IDs: []primitive.ObjectID{msgID}})
	if err != nil {
		return false, storeError("mark message read", err)
	}
	if n > 0 {
		t.notifyRead(receiverID, room)
	}
	return n > 0, nil
}

// MarkPageRead 把分頁中由使用者接收的訊息標記為已讀，不發送通知
func (t *Tracker) MarkPageRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := t.store.MarkMessagesRead(ctx, database.ReadFilter{Receiver: userID, IDs: ids})
	if err != nil {
		return 0, storeError("mark page read", err)
	}
	return n, nil
}

// MarkAllRead 標記使用者收到的所有訊息為已讀
func (t *Tracker) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := t.store.MarkMessagesRead(ctx, database.ReadFilter{Receiver: userID})
	if err != nil {
		return 0, storeError("mark all read", err)
	}
	return n, nil
}

// UnreadCount 是使用者的全域未讀數，提供給通知徽章與 unread-count API
func (t *Tracker) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := t.store.CountUnread(ctx, database.ReadFilter{Receiver: userID})
	if err != nil {
		return 0, storeError("count unread", err)
	}
	return n, nil
}

// RoomUnreadCount 是聊天室列表上顯示的未讀數，範圍與加入聊天室時清除的範圍一致
func (t *Tracker) RoomUnreadCount(ctx context.Context, userID primitive.ObjectID, room *models.ChatRoom) (int64, error) {
	n, err := t.store.CountUnread(ctx, t.roomFilter(userID, room))
	if err != nil {
		return 0, storeError("count room unread", err)
	}
	return n, nil
}

func (t *Tracker) notifyRead(readerID primitive.ObjectID, room *models.ChatRoom) {
	other, ok := room.OtherParticipant(readerID)
	if !ok {
		return
	}
	t.deliverer.DeliverToUser(other, models.MustEvent(models.EventMessagesRead, models.RoomPayload{RoomID: room.ID}))
}
