package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"campus-market/backend/config"
	"campus-market/backend/database"
	"campus-market/backend/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type delivery struct {
	toRoom bool
	id     primitive.ObjectID
	evt    models.Event
}

// fakeDeliverer 記錄所有推送
type fakeDeliverer struct {
	mu     sync.Mutex
	events []delivery
}

func (f *fakeDeliverer) DeliverToUser(userID primitive.ObjectID, evt models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, delivery{id: userID, evt: evt})
}

func (f *fakeDeliverer) DeliverToRoom(roomID primitive.ObjectID, evt models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, delivery{toRoom: true, id: roomID, evt: evt})
}

func (f *fakeDeliverer) named(name models.EventName) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []delivery
	for _, d := range f.events {
		if d.evt.Name == name {
			out = append(out, d)
		}
	}
	return out
}

type fakePresence struct {
	mu      sync.Mutex
	present map[[2]primitive.ObjectID]bool
}

func (p *fakePresence) set(roomID, userID primitive.ObjectID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.present == nil {
		p.present = make(map[[2]primitive.ObjectID]bool)
	}
	p.present[[2]primitive.ObjectID{roomID, userID}] = true
}

func (p *fakePresence) IsPresent(roomID, userID primitive.ObjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present[[2]primitive.ObjectID{roomID, userID}]
}

type fixture struct {
	store     *database.MemoryStore
	deliverer *fakeDeliverer
	presence  *fakePresence
	tracker   *Tracker
	directory *Directory
	router    *Router
	hook      *test.Hook

	buyer, seller, stranger *models.User
	item                    *models.Item
}

type fixtureOptions struct {
	scope   config.ReadScope
	enforce bool
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	ctx := context.Background()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		store:     database.NewMemoryStore(),
		deliverer: &fakeDeliverer{},
		presence:  &fakePresence{},
		hook:      hook,
	}
	f.tracker = NewTracker(f.store, f.deliverer, opts.scope, logger)
	f.directory = NewDirectory(f.store, f.tracker, logger, opts.enforce)
	f.router = NewRouter(f.store, f.directory, f.tracker, f.deliverer, f.presence, validator.New(), logger, RouterOptions{
		MaxMessageLength: 20,
		Sanitize:         true,
	})

	f.buyer = &models.User{StudentID: "b1", Email: "buyer@campus.edu", Name: "Buyer", IsActive: true}
	f.seller = &models.User{StudentID: "s1", Email: "seller@campus.edu", Name: "Seller", Avatar: "s.png", IsActive: true}
	f.stranger = &models.User{StudentID: "x1", Email: "x@campus.edu", Name: "Stranger", IsActive: true}
	for _, u := range []*models.User{f.buyer, f.seller, f.stranger} {
		require.NoError(t, f.store.InsertUser(ctx, u))
	}
	f.item = &models.Item{Title: "bike-42", Price: 1200, Seller: f.seller.ID, Status: "available"}
	require.NoError(t, f.store.InsertItem(ctx, f.item))
	return f
}

func (f *fixture) room(t *testing.T) *models.RoomDescriptor {
	t.Helper()
	desc, err := f.directory.GetOrCreateRoom(context.Background(), f.buyer.ID, f.seller.ID, f.item.ID)
	require.NoError(t, err)
	return desc
}

func (f *fixture) send(t *testing.T, from *models.User, roomID primitive.ObjectID, body string) *models.NewMessagePayload {
	t.Helper()
	msg, err := f.router.SendMessage(context.Background(), from.Profile(), SendRequest{RoomID: roomID, Message: body})
	require.NoError(t, err)
	return msg
}

func (f *fixture) unread(t *testing.T, u *models.User) int64 {
	t.Helper()
	n, err := f.tracker.UnreadCount(context.Background(), u.ID)
	require.NoError(t, err)
	return n
}

func (f *fixture) messageCount(t *testing.T) int {
	t.Helper()
	msgs, err := f.store.GetMessagesBetween(context.Background(), f.buyer.ID, f.seller.ID, 0, 0)
	require.NoError(t, err)
	return len(msgs)
}

func newTestLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// steppingClock 每次呼叫前進 step，讓不同聊天室的訊息時間可以比較
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
