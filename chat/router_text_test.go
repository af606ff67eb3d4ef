package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"campus-market/backend/database"
	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) lastStored(t *testing.T) models.ChatMessage {
	t.Helper()
	msgs, err := f.store.GetMessagesBetween(context.Background(), f.buyer.ID, f.seller.ID, 0, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	return msgs[0]
}

func TestSendMessageKeepsPlainText(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	desc := f.room(t)

	for _, want := range []string{"Tom & Jerry", `it's "ok"`, "a < b > c"} {
		t.Run(want, func(t *testing.T) {
			msg := f.send(t, f.buyer, desc.ID, want)
			assert.Equal(t, want, msg.Message, "純文字不能被轉成 HTML 實體")
			assert.Equal(t, want, f.lastStored(t).Message)

			delivered := f.deliverer.named(models.EventNewMessage)
			require.NotEmpty(t, delivered)
			assert.Equal(t, want, decode[models.NewMessagePayload](t, delivered[len(delivered)-1].evt).Message)
		})
	}
}

func TestSendMessageLengthCheckedOnStoredBody(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	desc := f.room(t)

	// 20 個 & 轉義後會變長，但儲存的內容仍然是 20 個字
	f.send(t, f.buyer, desc.ID, strings.Repeat("&", 20))
	assert.Equal(t, 20, len([]rune(f.lastStored(t).Message)))

	// 標籤移除後才檢查長度
	f.send(t, f.buyer, desc.ID, "<i>"+strings.Repeat("a", 20)+"</i>")
	assert.Equal(t, strings.Repeat("a", 20), f.lastStored(t).Message)

	_, err := f.router.SendMessage(context.Background(), f.buyer.Profile(), SendRequest{RoomID: desc.ID, Message: strings.Repeat("&", 21)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2, f.messageCount(t))
}

// slowPreviewStore 讓指定聊天室的預覽更新卡住，直到 release 被關閉
type slowPreviewStore struct {
	*database.MemoryStore
	slowRoom primitive.ObjectID
	entered  chan struct{}
	release  chan struct{}
}

func (s *slowPreviewStore) UpdateChatRoomLastMessage(ctx context.Context, roomID primitive.ObjectID, last models.LastMessage) (bool, error) {
	if roomID == s.slowRoom {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.UpdateChatRoomLastMessage(ctx, roomID, last)
}

func TestSlowPreviewDoesNotStallRoomsOnSameStripe(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	store := &slowPreviewStore{MemoryStore: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	router := NewRouter(store, f.directory, f.tracker, f.deliverer, f.presence, validator.New(), newTestLogger(), RouterOptions{})

	slowID := primitive.NewObjectID()
	fastID := primitive.NewObjectID()
	for router.stripeFor(fastID) != router.stripeFor(slowID) {
		fastID = primitive.NewObjectID()
	}
	for _, id := range []primitive.ObjectID{slowID, fastID} {
		require.NoError(t, f.store.InsertChatRoom(context.Background(), &models.ChatRoom{
			ID:           id,
			Participants: utils.SortedPair(f.buyer.ID, f.seller.ID),
			PairKey:      utils.PairKey(f.buyer.ID, f.seller.ID),
			Item:         primitive.NewObjectID(),
			IsActive:     true,
		}))
	}
	store.slowRoom = slowID

	slowDone := make(chan error, 1)
	go func() {
		_, err := router.SendMessage(context.Background(), f.buyer.Profile(), SendRequest{RoomID: slowID, Message: "slow"})
		slowDone <- err
	}()
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("預覽更新沒有被呼叫")
	}

	fastDone := make(chan error, 1)
	go func() {
		_, err := router.SendMessage(context.Background(), f.buyer.Profile(), SendRequest{RoomID: fastID, Message: "fast"})
		fastDone <- err
	}()
	select {
	case err := <-fastDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("同一個 stripe 的其他聊天室不應該被預覽更新卡住")
	}

	close(store.release)
	assert.NoError(t, <-slowDone)
}
