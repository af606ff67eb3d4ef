package chat

import (
	"context"
	"testing"

	"campus-market/backend/config"
	"campus-market/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOnJoinRoomGlobalScope(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	ctx := context.Background()

	bike := f.room(t)
	other, err := f.directory.GetOrCreateRoom(ctx, f.buyer.ID, f.stranger.ID, primitive.NilObjectID)
	require.NoError(t, err)
	f.send(t, f.seller, bike.ID, "one")
	f.send(t, f.stranger, other.ID, "two")
	require.Equal(t, int64(2), f.unread(t, f.buyer))
	f.deliverer.events = nil

	room, err := f.store.FindChatRoomByID(ctx, bike.ID)
	require.NoError(t, err)
	require.NoError(t, f.tracker.OnJoinRoom(ctx, f.buyer.ID, room))

	assert.Equal(t, int64(0), f.unread(t, f.buyer), "global 範圍加入任一聊天室會清除所有未讀")

	reads := f.deliverer.named(models.EventMessagesRead)
	require.Len(t, reads, 1, "另一位參與者只收到一次 messages_read")
	assert.Equal(t, f.seller.ID, reads[0].id)
	assert.Equal(t, bike.ID, decode[models.RoomPayload](t, reads[0].evt).RoomID)
}

func TestOnJoinRoomRoomScope(t *testing.T) {
	f := newFixture(t, fixtureOptions{scope: config.ReadScopeRoom})
	ctx := context.Background()

	bike := f.room(t)
	other, err := f.directory.GetOrCreateRoom(ctx, f.buyer.ID, f.stranger.ID, primitive.NilObjectID)
	require.NoError(t, err)
	f.send(t, f.seller, bike.ID, "one")
	f.send(t, f.stranger, other.ID, "two")

	room, err := f.store.FindChatRoomByID(ctx, bike.ID)
	require.NoError(t, err)
	require.NoError(t, f.tracker.OnJoinRoom(ctx, f.buyer.ID, room))

	assert.Equal(t, int64(1), f.unread(t, f.buyer), "room 範圍只清除這個聊天室的訊息")
	assert.Equal(t, config.ReadScopeRoom, f.tracker.Scope())
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	ctx := context.Background()
	desc := f.room(t)
	f.send(t, f.buyer, desc.ID, "hello")
	f.send(t, f.buyer, desc.ID, "anyone?")
	f.deliverer.events = nil

	assert.ErrorIs(t, f.tracker.MarkRead(ctx, f.stranger.ID, desc.ID), ErrNotParticipant)
	assert.ErrorIs(t, f.tracker.MarkRead(ctx, f.seller.ID, primitive.NewObjectID()), ErrRoomNotFound)
	assert.Empty(t, f.deliverer.events)

	require.NoError(t, f.tracker.MarkRead(ctx, f.seller.ID, desc.ID))
	assert.Equal(t, int64(0), f.unread(t, f.seller))
	reads := f.deliverer.named(models.EventMessagesRead)
	require.Len(t, reads, 1)
	assert.Equal(t, f.buyer.ID, reads[0].id)

	// 已讀不會反向，重複標記沒有副作用
	require.NoError(t, f.tracker.MarkRead(ctx, f.seller.ID, desc.ID))
	assert.Equal(t, int64(0), f.unread(t, f.seller))
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture(t, fixtureOptions{scope: config.ReadScopeRoom})
	ctx := context.Background()

	bike := f.room(t)
	other, err := f.directory.GetOrCreateRoom(ctx, f.buyer.ID, f.stranger.ID, primitive.NilObjectID)
	require.NoError(t, err)
	f.send(t, f.seller, bike.ID, "one")
	f.send(t, f.stranger, other.ID, "two")
	f.send(t, f.buyer, other.ID, "three")

	n, err := f.tracker.MarkAllRead(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(0), f.unread(t, f.buyer))
	assert.Equal(t, int64(1), f.unread(t, f.stranger), "不影響別人收到的訊息")
}

// 情境：B 從未連線，A 送出訊息後 B 的未讀數增加 1
func TestOfflineReceiverScenario(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	ctx := context.Background()
	desc := f.room(t)
	before := f.unread(t, f.seller)

	msg := f.send(t, f.buyer, desc.ID, "still interested?")

	assert.False(t, msg.IsRead)
	assert.Equal(t, f.seller.ID, msg.Receiver.ID)
	assert.Equal(t, before+1, f.unread(t, f.seller))

	stored, err := f.store.GetMessagesBetween(ctx, f.buyer.ID, f.seller.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, f.seller.ID, stored[0].Receiver)
	assert.False(t, stored[0].IsRead)
	assert.Empty(t, f.deliverer.named(models.EventMessagesRead), "接收者不在線時沒有已讀回條")
}
