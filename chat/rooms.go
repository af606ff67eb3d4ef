package chat

import (
	"context"
	"errors"
	"time"

	"campus-market/backend/database"
	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 建立聊天室時遇到唯一索引衝突後重新查詢的次數上限
const maxCreateAttempts = 3

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// Directory 解析或建立 (買家, 賣家, 商品) 對應的唯一聊天室。
// 它本身不保存狀態，唯一性完全交給持久層的唯一索引
type Directory struct {
	store              database.Store
	tracker            *Tracker
	logger             logrus.FieldLogger
	enforceSellerMatch bool
}

func NewDirectory(store database.Store, tracker *Tracker, logger logrus.FieldLogger, enforceSellerMatch bool) *Directory {
	return &Directory{
		store:              store,
		tracker:            tracker,
		logger:             logger,
		enforceSellerMatch: enforceSellerMatch,
	}
}

// MessagePage 是訊息分頁結果，Messages 由舊到新
type MessagePage struct {
	Messages []models.ChatMessage `json:"messages"`
	HasMore  bool                 `json:"hasMore"`
}

// GetOrCreateRoom 回傳 requester 與 other 針對 itemID 的聊天室，必要時建立或重新啟用
func (d *Directory) GetOrCreateRoom(ctx context.Context, requester, other, itemID primitive.ObjectID) (*models.RoomDescriptor, error) {
	log := d.logger.WithFields(logrus.Fields{
		"user_id":  requester.Hex(),
		"other_id": other.Hex(),
		"item_id":  itemID.Hex(),
	})

	if requester.IsZero() || other.IsZero() {
		return nil, validationError("participants are required")
	}
	if requester == other {
		return nil, validationError("cannot start a chat with yourself")
	}

	var item *models.Item
	if !itemID.IsZero() {
		var err error
		item, err = d.store.FindItemByID(ctx, itemID)
		if err != nil {
			return nil, storeError("find item", err)
		}
		if item == nil {
			return nil, ErrItemNotFound
		}
		if item.Seller == requester {
			return nil, validationError("cannot start a chat about your own item")
		}
		if item.Seller != other {
			log.WithField("seller_id", item.Seller.Hex()).Warn("seller does not match item owner")
			if d.enforceSellerMatch {
				return nil, validationError("seller does not match item owner")
			}
		}
	}

	otherUser, err := d.store.FindUserByID(ctx, other)
	if err != nil {
		return nil, storeError("find user", err)
	}
	if otherUser == nil {
		return nil, ErrUserNotFound
	}

	room, err := d.resolve(ctx, requester, other, itemID, log)
	if err != nil {
		return nil, err
	}

	desc := describe(room, otherUser.Profile(), item)
	return &desc, nil
}

// resolve 先查詢，找不到就新增；新增撞到唯一索引代表別人剛建立，重新查詢即可
func (d *Directory) resolve(ctx context.Context, a, b, itemID primitive.ObjectID, log logrus.FieldLogger) (*models.ChatRoom, error) {
	key := utils.PairKey(a, b)

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		room, err := d.store.FindChatRoomByPairKey(ctx, key, itemID)
		if err != nil {
			return nil, storeError("find chat room", err)
		}
		if room != nil {
			if !room.IsActive {
				if err := d.store.SetChatRoomActive(ctx, room.ID, true); err != nil {
					return nil, storeError("reactivate chat room", err)
				}
				room.IsActive = true
				log.WithField("room_id", room.ID.Hex()).Info("chat room reactivated")
			}
			return room, nil
		}

		now := time.Now()
		room = &models.ChatRoom{
			Participants: utils.SortedPair(a, b),
			PairKey:      key,
			Item:         itemID,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = d.store.InsertChatRoom(ctx, room)
		if err == nil {
			log.WithField("room_id", room.ID.Hex()).Info("chat room created")
			return room, nil
		}
		if !errors.Is(err, database.ErrDuplicateKey) {
			return nil, storeError("insert chat room", err)
		}
		log.Debug("concurrent chat room creation, re-querying")
	}
	return nil, storeError("resolve chat room", errors.New("room not visible after duplicate key"))
}

// Authorize 確認使用者是持久化聊天室的成員。連線是否在房間內不影響授權
func (d *Directory) Authorize(ctx context.Context, userID, roomID primitive.ObjectID) (*models.ChatRoom, error) {
	room, err := d.store.FindChatRoomByID(ctx, roomID)
	if err != nil {
		return nil, storeError("find chat room", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !room.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return room, nil
}

// ListRooms 回傳使用者所有啟用中的聊天室
func (d *Directory) ListRooms(ctx context.Context, userID primitive.ObjectID) ([]models.RoomDescriptor, error) {
	rooms, err := d.store.GetUserChatRooms(ctx, userID)
	if err != nil {
		return nil, storeError("list chat rooms", err)
	}

	out := make([]models.RoomDescriptor, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		otherID, _ := room.OtherParticipant(userID)

		profile := models.PublicProfile{ID: otherID}
		if u, err := d.store.FindUserByID(ctx, otherID); err != nil {
			return nil, storeError("find user", err)
		} else if u != nil {
			profile = u.Profile()
		}

		var item *models.Item
		if !room.Item.IsZero() {
			if item, err = d.store.FindItemByID(ctx, room.Item); err != nil {
				return nil, storeError("find item", err)
			}
		}

		unread, err := d.tracker.RoomUnreadCount(ctx, userID, room)
		if err != nil {
			return nil, err
		}

		desc := describe(room, profile, item)
		desc.UnreadCount = &unread
		out = append(out, desc)
	}
	return out, nil
}

// ListMessages 回傳兩位參與者之間的訊息分頁，並把使用者在這頁收到的訊息標記為已讀
func (d *Directory) ListMessages(ctx context.Context, userID, roomID primitive.ObjectID, page, limit int) (*MessagePage, error) {
	room, err := d.Authorize(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	parts := room.Participants
	if len(parts) != 2 {
		return nil, storeError("list messages", errors.New("chat room must have exactly two participants"))
	}
	skip := int64(page-1) * int64(limit)
	messages, err := d.store.GetMessagesBetween(ctx, parts[0], parts[1], skip, int64(limit))
	if err != nil {
		return nil, storeError("list messages", err)
	}

	var received []primitive.ObjectID
	for _, m := range messages {
		if m.Receiver == userID && !m.IsRead {
			received = append(received, m.ID)
		}
	}
	if _, err := d.tracker.MarkPageRead(ctx, userID, received); err != nil {
		d.logger.WithError(err).WithField("room_id", roomID.Hex()).Warn("failed to mark page read")
	}

	// 查詢是由新到舊，回傳時反轉成由舊到新
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return &MessagePage{Messages: messages, HasMore: len(messages) == limit}, nil
}

// DeactivateRoom 軟刪除聊天室，保留歷史訊息
func (d *Directory) DeactivateRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	room, err := d.Authorize(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return nil
	}
	if err := d.store.SetChatRoomActive(ctx, roomID, false); err != nil {
		return storeError("deactivate chat room", err)
	}
	d.logger.WithFields(logrus.Fields{"user_id": userID.Hex(), "room_id": roomID.Hex()}).Info("chat room deactivated")
	return nil
}

func describe(room *models.ChatRoom, other models.PublicProfile, item *models.Item) models.RoomDescriptor {
	desc := models.RoomDescriptor{
		ID:               room.ID,
		OtherParticipant: other,
		LastMessage:      room.LastMessage,
		LastMessageAt:    room.LastMessageAt,
		CreatedAt:        room.CreatedAt,
	}
	if item != nil {
		desc.Item = item.Summary()
	}
	return desc
}
