package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"campus-market/backend/chat"
	"campus-market/backend/database"
	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// 單一事件處理的最長時間
const eventTimeout = 10 * time.Second

// GatewayOptions 是 Gateway 的設定
type GatewayOptions struct {
	JWTSecret         string
	AllowedOrigins    []string
	SendRatePerMinute int
	SendBurst         int
}

// Gateway 接受 WebSocket 連線，處理 authenticate 握手並分派事件
type Gateway struct {
	registry  *Registry
	store     database.Store
	directory *chat.Directory
	router    *chat.Router
	tracker   *chat.Tracker
	validate  *validator.Validate
	logger    logrus.FieldLogger

	jwtSecret string
	sendRate  rate.Limit
	sendBurst int
	upgrader  websocket.Upgrader
}

func NewGateway(registry *Registry, store database.Store, directory *chat.Directory, router *chat.Router, tracker *chat.Tracker, validate *validator.Validate, logger logrus.FieldLogger, opts GatewayOptions) *Gateway {
	g := &Gateway{
		registry:  registry,
		store:     store,
		directory: directory,
		router:    router,
		tracker:   tracker,
		validate:  validate,
		logger:    logger,
		jwtSecret: opts.JWTSecret,
		sendBurst: opts.SendBurst,
	}
	if opts.SendRatePerMinute > 0 {
		g.sendRate = rate.Every(time.Minute / time.Duration(opts.SendRatePerMinute))
		if g.sendBurst <= 0 {
			g.sendBurst = 1
		}
	}

	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(origins) == 0 {
				return true
			}
			_, ok := origins[origin]
			return ok
		},
	}
	return g
}

// ServeHTTP 將 HTTP 連線升級為 WebSocket，連線一開始是未驗證狀態
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WithError(err).Warn("Failed to upgrade to WebSocket")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newClient(g, conn)
	client.logger.Debug("WebSocket connection opened")

	go client.writePump()
	client.readPump(ctx) // readPump 會在連線關閉時自動取消註冊
}

func (g *Gateway) dispatch(ctx context.Context, c *Client, evt models.Event) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	if evt.Name == models.EventAuthenticate {
		g.authenticate(ctx, c, evt.Data)
		return
	}
	if c.user == nil {
		g.fail(c, evt.Name, chat.ErrUnauthenticated)
		return
	}

	var err error
	switch evt.Name {
	case models.EventJoinRoom:
		err = g.joinRoom(ctx, c, evt.Data)
	case models.EventLeaveRoom:
		err = g.leaveRoom(c, evt.Data)
	case models.EventSendMessage:
		err = g.sendMessage(ctx, c, evt.Data)
	case models.EventMarkRead:
		err = g.markRead(ctx, c, evt.Data)
	default:
		err = fmt.Errorf("%w: unknown event %q", chat.ErrValidation, evt.Name)
	}
	if err != nil {
		g.fail(c, evt.Name, err)
	}
}

// fail 只回報給發起的連線，不會廣播
func (g *Gateway) fail(c *Client, name models.EventName, err error) {
	log := c.logger.WithField("event", name).WithError(err)
	if chat.PublicMessage(err) == chat.ErrOperationFailed.Error() {
		log.Error("event failed")
	} else {
		log.Debug("event rejected")
	}
	c.emit(models.EventError, models.ErrorPayload{Message: chat.PublicMessage(err)})
}

func (g *Gateway) decode(data json.RawMessage, name models.EventName, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s payload is required", chat.ErrValidation, name)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid %s payload", chat.ErrValidation, name)
	}
	if err := g.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %s", chat.ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: invalid %s payload", chat.ErrValidation, name)
	}
	return nil
}

// parseToken 接受原始字串或 {token} 物件
func parseToken(data json.RawMessage) string {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		return strings.TrimSpace(raw)
	}
	var obj models.AuthenticateData
	if err := json.Unmarshal(data, &obj); err == nil {
		return strings.TrimSpace(obj.Token)
	}
	return ""
}

func (g *Gateway) authenticate(ctx context.Context, c *Client, data json.RawMessage) {
	authFailed := func(msg string) {
		c.emit(models.EventAuthenticationError, models.ErrorPayload{Message: msg})
	}

	if c.user != nil {
		authFailed("Already authenticated")
		return
	}

	token := parseToken(data)
	if token == "" {
		authFailed("Authentication token required")
		return
	}
	userID, err := utils.GetUserIDFromToken(token, g.jwtSecret)
	if err != nil {
		c.logger.WithError(err).Debug("Invalid JWT token")
		authFailed("Invalid or expired token")
		return
	}

	user, err := g.store.FindUserByID(ctx, userID)
	if err != nil {
		c.logger.WithError(err).Error("Error loading user for authentication")
		authFailed("Authentication failed")
		return
	}
	if user == nil {
		authFailed("User not found")
		return
	}

	profile := user.Profile()
	c.user = &profile
	g.registry.Register(user.ID, c)

	c.logger.WithField("user_id", user.ID.Hex()).Info("WebSocket client authenticated")
	c.emit(models.EventAuthenticated, models.AuthenticatedPayload{Success: true, User: profile})
}

func (g *Gateway) joinRoom(ctx context.Context, c *Client, data json.RawMessage) error {
	var req models.JoinRoomData
	if err := g.decode(data, models.EventJoinRoom, &req); err != nil {
		return err
	}
	roomID, _ := primitive.ObjectIDFromHex(req.RoomID)

	room, err := g.directory.Authorize(ctx, c.user.ID, roomID)
	if err != nil {
		return err
	}
	if !g.registry.JoinRoom(c, room.ID) {
		return chat.ErrUnauthenticated
	}
	if err := g.tracker.OnJoinRoom(ctx, c.user.ID, room); err != nil {
		c.logger.WithError(err).WithField("room_id", room.ID.Hex()).Warn("failed to mark messages read on join")
	}

	c.emit(models.EventJoinedRoom, models.RoomPayload{RoomID: room.ID})
	return nil
}

func (g *Gateway) leaveRoom(c *Client, data json.RawMessage) error {
	var req models.RoomRequestData
	if err := g.decode(data, models.EventLeaveRoom, &req); err != nil {
		return err
	}
	roomID, _ := primitive.ObjectIDFromHex(req.RoomID)

	if g.registry.LeaveRoom(c, roomID) {
		c.emit(models.EventLeftRoom, models.RoomPayload{RoomID: roomID})
	}
	return nil
}

func (g *Gateway) sendMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return chat.ErrRateLimited
	}

	var req models.SendMessageData
	if err := g.decode(data, models.EventSendMessage, &req); err != nil {
		return err
	}
	roomID, _ := primitive.ObjectIDFromHex(req.RoomID)
	var itemID primitive.ObjectID
	if req.ItemID != "" {
		itemID, _ = primitive.ObjectIDFromHex(req.ItemID)
	}

	_, err := g.router.SendMessage(ctx, *c.user, chat.SendRequest{
		RoomID:  roomID,
		Message: req.Message,
		Type:    models.MessageType(req.MessageType),
		ItemID:  itemID,
	})
	return err
}

func (g *Gateway) markRead(ctx context.Context, c *Client, data json.RawMessage) error {
	var req models.RoomRequestData
	if err := g.decode(data, models.EventMarkRead, &req); err != nil {
		return err
	}
	roomID, _ := primitive.ObjectIDFromHex(req.RoomID)
	return g.tracker.MarkRead(ctx, c.user.ID, roomID)
}
