package chat

import (
	"context"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	"campus-market/backend/database"
	"campus-market/backend/models"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sendStripes = 64

// SendRequest 是已解析的 send_message
type SendRequest struct {
	RoomID  primitive.ObjectID
	Message string
	Type    models.MessageType
	ItemID  primitive.ObjectID
}

// stripe 讓同一個聊天室的「寫入 + 推送」依序進行，
// last 是此 stripe 最後發出的時間戳，保證同一聊天室內 createdAt 嚴格遞增
type stripe struct {
	mu   sync.Mutex
	last time.Time
}

// Router 驗證、寫入並推送訊息
type Router struct {
	store     database.Store
	directory *Directory
	tracker   *Tracker
	deliverer Deliverer
	presence  Presence
	logger    logrus.FieldLogger

	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	maxLength int

	stripes [sendStripes]stripe
	now     func() time.Time
}

// RouterOptions 是 Router 的可調參數
type RouterOptions struct {
	MaxMessageLength int
	Sanitize         bool
}

func NewRouter(store database.Store, directory *Directory, tracker *Tracker, deliverer Deliverer, presence Presence, validate *validator.Validate, logger logrus.FieldLogger, opts RouterOptions) *Router {
	r := &Router{
		store:     store,
		directory: directory,
		tracker:   tracker,
		deliverer: deliverer,
		presence:  presence,
		logger:    logger,
		validate:  validate,
		maxLength: opts.MaxMessageLength,
		now:       time.Now,
	}
	if r.maxLength <= 0 {
		r.maxLength = 2000
	}
	if opts.Sanitize {
		r.sanitizer = bluemonday.StrictPolicy()
	}
	return r
}

func (r *Router) stripeFor(roomID primitive.ObjectID) *stripe {
	return &r.stripes[xxhash.Sum64(roomID[:])%sendStripes]
}

// stamp 在持有 stripe 鎖時呼叫。MongoDB 只保存到毫秒，所以先截斷再比較
func (s *stripe) stamp(now time.Time) time.Time {
	t := now.Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t
}

func (r *Router) normalize(req *SendRequest) error {
	body := strings.TrimSpace(req.Message)
	if r.sanitizer != nil && body != "" {
		// 只移除標籤，實體還原成原本的文字，儲存的內容仍是純文字
		body = strings.TrimSpace(html.UnescapeString(r.sanitizer.Sanitize(body)))
	}
	if err := r.validate.Var(body, "required,max="+strconv.Itoa(r.maxLength)); err != nil {
		if body == "" {
			return validationError("message is required")
		}
		return validationError("message exceeds %d characters", r.maxLength)
	}
	req.Message = body

	if req.Type == "" {
		req.Type = models.MessageTypeText
	}
	if err := r.validate.Var(string(req.Type), "oneof=text image file"); err != nil {
		return validationError("unsupported messageType %q", req.Type)
	}
	if req.RoomID.IsZero() {
		return validationError("roomId is required")
	}
	return nil
}

// SendMessage 先以持久化的聊天室確認成員身分，成功寫入後才推送。
// 非成員的請求不會寫入也不會推送
func (r *Router) SendMessage(ctx context.Context, sender models.PublicProfile, req SendRequest) (*models.NewMessagePayload, error) {
	if err := r.normalize(&req); err != nil {
		return nil, err
	}

	room, err := r.directory.Authorize(ctx, sender.ID, req.RoomID)
	if err != nil {
		return nil, err
	}
	receiver, ok := room.OtherParticipant(sender.ID)
	if !ok {
		return nil, ErrNotParticipant
	}
	itemID := req.ItemID
	if itemID.IsZero() {
		itemID = room.Item
	}

	log := r.logger.WithFields(logrus.Fields{
		"user_id": sender.ID.Hex(),
		"room_id": room.ID.Hex(),
	})

	payload, err := r.persistAndFanOut(ctx, sender, room, receiver, itemID, req, log)
	if err != nil {
		return nil, err
	}

	// 以下不影響投遞順序，所以在 stripe 鎖外執行
	// 條件式更新保證預覽不會倒退
	preview := models.LastMessage{ID: payload.ID, Sender: sender.ID, Message: payload.Message, Type: payload.Type, CreatedAt: payload.CreatedAt}
	if _, err := r.store.UpdateChatRoomLastMessage(ctx, room.ID, preview); err != nil {
		log.WithError(err).Warn("failed to update room preview")
	}

	unread, err := r.tracker.UnreadCount(ctx, receiver)
	if err != nil {
		log.WithError(err).Warn("failed to count unread, notification skipped")
	} else {
		r.deliverer.DeliverToUser(receiver, models.MustEvent(models.EventMessageNotification, models.NotificationPayload{
			RoomID:      room.ID,
			Message:     *payload,
			UnreadCount: unread,
		}))
	}

	log.WithField("message_id", payload.ID.Hex()).Debug("message sent")
	return payload, nil
}

// persistAndFanOut 持有聊天室的 stripe 鎖：蓋時間戳、寫入、推送 new_message。
// 同一聊天室的推送順序因此等於寫入順序
func (r *Router) persistAndFanOut(ctx context.Context, sender models.PublicProfile, room *models.ChatRoom, receiver, itemID primitive.ObjectID, req SendRequest, log logrus.FieldLogger) (*models.NewMessagePayload, error) {
	s := r.stripeFor(room.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &models.ChatMessage{
		Sender:    sender.ID,
		Receiver:  receiver,
		Item:      itemID,
		Message:   req.Message,
		Type:      req.Type,
		IsRead:    false,
		CreatedAt: s.stamp(r.now()),
	}
	if err := r.store.InsertMessage(ctx, msg); err != nil {
		return nil, storeError("insert message", err)
	}

	if r.presence != nil && r.presence.IsPresent(room.ID, receiver) {
		read, err := r.tracker.MarkDelivered(ctx, receiver, msg.ID, room)
		if err != nil {
			log.WithError(err).Warn("failed to mark message read for present receiver")
		}
		msg.IsRead = read
	}

	payload := &models.NewMessagePayload{
		RoomID:    room.ID,
		ID:        msg.ID,
		Sender:    sender,
		Receiver:  models.ReceiverRef{ID: receiver},
		Item:      msg.Item,
		Message:   msg.Message,
		Type:      msg.Type,
		CreatedAt: msg.CreatedAt,
		IsRead:    msg.IsRead,
	}
	evt, err := models.NewEvent(models.EventNewMessage, payload)
	if err != nil {
		return nil, err
	}
	r.deliverer.DeliverToRoom(room.ID, evt)
	return payload, nil
}
