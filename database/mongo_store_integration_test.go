//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoStoreTestSuite struct {
	suite.Suite
	container *mongodb.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	store     *MongoStore
}

func TestMongoStoreTestSuite(t *testing.T) {
	suite.Run(t, &MongoStoreTestSuite{})
}

func (s *MongoStoreTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	s.Require().NoError(err, "can't start mongo container")
	s.container = container

	uri, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	s.client, err = ConnectMongoDB(ctx, uri, logger)
	s.Require().NoError(err)

	s.db = s.client.Database("campus_market_test")
	s.Require().NoError(EnsureIndexes(ctx, s.db))
	s.store = NewMongoStore(s.db)
}

func (s *MongoStoreTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(context.Background())
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *MongoStoreTestSuite) TearDownTest() {
	ctx := context.Background()
	for _, name := range []string{UsersCollection, ItemsCollection, ChatRoomsCollection, MessagesCollection} {
		_, err := s.db.Collection(name).DeleteMany(ctx, map[string]any{})
		require.NoError(s.T(), err, "can't teardown test")
	}
}

func (s *MongoStoreTestSuite) room(a, b, item primitive.ObjectID) *models.ChatRoom {
	now := time.Now().Truncate(time.Millisecond)
	return &models.ChatRoom{
		Participants: utils.SortedPair(a, b),
		PairKey:      utils.PairKey(a, b),
		Item:         item,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *MongoStoreTestSuite) Test_ChatRoomUniqueIndex() {
	ctx := context.Background()
	a, b, item := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	first := s.room(a, b, item)
	assert.NoError(s.T(), s.store.InsertChatRoom(ctx, first))
	assert.ErrorIs(s.T(), s.store.InsertChatRoom(ctx, s.room(b, a, item)), ErrDuplicateKey,
		"same pair and item should hit the unique index")

	found, err := s.store.FindChatRoomByPairKey(ctx, utils.PairKey(b, a), item)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found)
	assert.Equal(s.T(), first.ID, found.ID)

	noItem := s.room(a, b, primitive.NilObjectID)
	assert.NoError(s.T(), s.store.InsertChatRoom(ctx, noItem))
	found, err = s.store.FindChatRoomByPairKey(ctx, noItem.PairKey, primitive.NilObjectID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found)
	assert.Equal(s.T(), noItem.ID, found.ID)
}

func (s *MongoStoreTestSuite) Test_UserDuplicate() {
	ctx := context.Background()
	assert.NoError(s.T(), s.store.InsertUser(ctx, &models.User{StudentID: "1", Email: "a@campus.edu"}))
	assert.ErrorIs(s.T(), s.store.InsertUser(ctx, &models.User{StudentID: "2", Email: "a@campus.edu"}), ErrDuplicateKey)

	missing, err := s.store.FindUserByEmail(ctx, "nobody@campus.edu")
	assert.NoError(s.T(), err)
	assert.Nil(s.T(), missing)
}

func (s *MongoStoreTestSuite) Test_LastMessageConditionalUpdate() {
	ctx := context.Background()
	room := s.room(primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID())
	require.NoError(s.T(), s.store.InsertChatRoom(ctx, room))

	now := time.Now().Truncate(time.Millisecond)
	updated, err := s.store.UpdateChatRoomLastMessage(ctx, room.ID, models.LastMessage{ID: primitive.NewObjectID(), Message: "new", CreatedAt: now})
	require.NoError(s.T(), err)
	assert.True(s.T(), updated)

	updated, err = s.store.UpdateChatRoomLastMessage(ctx, room.ID, models.LastMessage{ID: primitive.NewObjectID(), Message: "old", CreatedAt: now.Add(-time.Second)})
	require.NoError(s.T(), err)
	assert.False(s.T(), updated, "stale preview should not overwrite")

	got, err := s.store.FindChatRoomByID(ctx, room.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.LastMessage)
	assert.Equal(s.T(), "new", got.LastMessage.Message)
}

func (s *MongoStoreTestSuite) Test_ReadStateAndListing() {
	ctx := context.Background()
	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	room := s.room(me, other, primitive.NewObjectID())
	require.NoError(s.T(), s.store.InsertChatRoom(ctx, room))

	base := time.Now().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(s.T(), s.store.InsertMessage(ctx, &models.ChatMessage{
			Sender: other, Receiver: me, Message: "hi", Type: models.MessageTypeText,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	n, err := s.store.CountUnread(ctx, ReadFilter{Receiver: me})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), n)

	page, err := s.store.GetMessagesBetween(ctx, me, other, 0, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), page, 2)
	assert.True(s.T(), page[0].CreatedAt.After(page[1].CreatedAt))

	marked, err := s.store.MarkMessagesRead(ctx, ReadFilter{Receiver: me, Sender: other})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), marked)

	rooms, err := s.store.GetUserChatRooms(ctx, me)
	require.NoError(s.T(), err)
	assert.Len(s.T(), rooms, 1)

	require.NoError(s.T(), s.store.SetChatRoomActive(ctx, room.ID, false))
	rooms, err = s.store.GetUserChatRooms(ctx, me)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), rooms)
}
