// Package relay 以 Redis Pub/Sub 在多個實例之間轉送推送事件。
// 每個實例（包含發布者自己）收到後交給本地的 Registry 推送，
// 仍然是盡力而為：沒有 outbox，也不重試
package relay

import (
	"context"
	"encoding/json"
	"time"

	"campus-market/backend/chat"
	"campus-market/backend/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const publishTimeout = 2 * time.Second

type target string

const (
	targetUser target = "user"
	targetRoom target = "room"
)

// envelope 是在 Redis channel 上傳送的內容
type envelope struct {
	Target target             `json:"target"`
	ID     primitive.ObjectID `json:"id"`
	Event  models.Event       `json:"event"`
}

// Relay 實作 chat.Deliverer
type Relay struct {
	client  *redis.Client
	channel string
	local   chat.Deliverer
	logger  logrus.FieldLogger
}

func New(client *redis.Client, channel string, local chat.Deliverer, logger logrus.FieldLogger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		local:   local,
		logger:  logger.WithField("channel", channel),
	}
}

// Start 訂閱 channel，確認訂閱成功後才返回，之後在背景轉送直到 ctx 結束
func (r *Relay) Start(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handle(msg.Payload)
			}
		}
	}()

	r.logger.Info("Delivery relay subscribed")
	return nil
}

func (r *Relay) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.WithError(err).Warn("invalid relay envelope")
		return
	}
	switch env.Target {
	case targetUser:
		r.local.DeliverToUser(env.ID, env.Event)
	case targetRoom:
		r.local.DeliverToRoom(env.ID, env.Event)
	default:
		r.logger.WithField("target", env.Target).Warn("unknown relay target")
	}
}

func (r *Relay) publish(env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, r.channel, data).Err()
}

// DeliverToUser 發布到 channel，發布失敗時退回本地推送
func (r *Relay) DeliverToUser(userID primitive.ObjectID, evt models.Event) {
	if err := r.publish(envelope{Target: targetUser, ID: userID, Event: evt}); err != nil {
		r.logger.WithError(err).WithField("user_id", userID.Hex()).Warn("relay publish failed, delivering locally")
		r.local.DeliverToUser(userID, evt)
	}
}

// DeliverToRoom 發布到 channel，發布失敗時退回本地推送
func (r *Relay) DeliverToRoom(roomID primitive.ObjectID, evt models.Event) {
	if err := r.publish(envelope{Target: targetRoom, ID: roomID, Event: evt}); err != nil {
		r.logger.WithError(err).WithField("room_id", roomID.Hex()).Warn("relay publish failed, delivering locally")
		r.local.DeliverToRoom(roomID, evt)
	}
}

// Ping 確認 Redis 可以連線
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
