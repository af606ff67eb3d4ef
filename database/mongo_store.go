package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-market/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore 以 MongoDB 實作 Store
type MongoStore struct {
	db      *mongo.Database
	timeout time.Duration
}

// NewMongoStore 建立 MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, timeout: 5 * time.Second}
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *MongoStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

// findOne 解碼單一文件，找不到時回傳 false
func (s *MongoStore) findOne(ctx context.Context, coll string, filter any, out any) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	err := s.collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.collection(UsersCollection).InsertOne(ctx, user)
	return insertErr(err)
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	found, err := s.findOne(ctx, UsersCollection, bson.M{"_id": id}, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := s.findOne(ctx, UsersCollection, bson.M{"email": email}, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) FindUserByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	var user models.User
	found, err := s.findOne(ctx, UsersCollection, bson.M{"studentId": studentID}, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) InsertItem(ctx context.Context, item *models.Item) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.collection(ItemsCollection).InsertOne(ctx, item)
	return insertErr(err)
}

func (s *MongoStore) FindItemByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	var item models.Item
	found, err := s.findOne(ctx, ItemsCollection, bson.M{"_id": id}, &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

// InsertChatRoom 新增聊天室，唯一索引衝突時回傳 ErrDuplicateKey
func (s *MongoStore) InsertChatRoom(ctx context.Context, room *models.ChatRoom) error {
	if room.ID.IsZero() {
		room.ID = primitive.NewObjectID()
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.collection(ChatRoomsCollection).InsertOne(ctx, room)
	return insertErr(err)
}

func (s *MongoStore) FindChatRoomByID(ctx context.Context, id primitive.ObjectID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	found, err := s.findOne(ctx, ChatRoomsCollection, bson.M{"_id": id}, &room)
	if err != nil || !found {
		return nil, err
	}
	return &room, nil
}

// FindChatRoomByPairKey 依參與者鍵與商品查詢，不論是否啟用
func (s *MongoStore) FindChatRoomByPairKey(ctx context.Context, pairKey string, itemID primitive.ObjectID) (*models.ChatRoom, error) {
	filter := bson.M{"pairKey": pairKey}
	if itemID.IsZero() {
		filter["item"] = bson.M{"$exists": false}
	} else {
		filter["item"] = itemID
	}

	var room models.ChatRoom
	found, err := s.findOne(ctx, ChatRoomsCollection, filter, &room)
	if err != nil || !found {
		return nil, err
	}
	return &room, nil
}

func (s *MongoStore) SetChatRoomActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.collection(ChatRoomsCollection).UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"isActive": active, "updatedAt": time.Now()},
	})
	return err
}

// GetUserChatRooms 取得使用者所有啟用中的聊天室，依最後訊息時間排序
func (s *MongoStore) GetUserChatRooms(ctx context.Context, userID primitive.ObjectID) ([]models.ChatRoom, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{"participants": userID, "isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := s.collection(ChatRoomsCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []models.ChatRoom{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// UpdateChatRoomLastMessage 只在新訊息比目前快取更新時才覆寫，回傳是否有更新
func (s *MongoStore) UpdateChatRoomLastMessage(ctx context.Context, roomID primitive.ObjectID, last models.LastMessage) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{
		"_id": roomID,
		"$or": bson.A{
			bson.M{"lastMessageAt": bson.M{"$exists": false}},
			bson.M{"lastMessageAt": bson.M{"$lt": last.CreatedAt}},
		},
	}
	update := bson.M{"$set": bson.M{
		"lastMessage":   last,
		"lastMessageAt": last.CreatedAt,
		"updatedAt":     time.Now(),
	}}

	res, err := s.collection(ChatRoomsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoStore) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.collection(MessagesCollection).InsertOne(ctx, msg)
	return insertErr(err)
}

// GetMessagesBetween 取得兩人之間的訊息，由新到舊
func (s *MongoStore) GetMessagesBetween(ctx context.Context, a, b primitive.ObjectID, skip, limit int64) ([]models.ChatMessage, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"sender": a, "receiver": b},
		bson.M{"sender": b, "receiver": a},
	}}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.collection(MessagesCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func readFilter(f ReadFilter) bson.M {
	filter := bson.M{"receiver": f.Receiver, "isRead": false}
	if !f.Sender.IsZero() {
		filter["sender"] = f.Sender
	} else {
		filter["sender"] = bson.M{"$ne": f.Receiver}
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	return filter
}

// MarkMessagesRead 將符合條件的訊息標記為已讀，不會反向設回未讀
func (s *MongoStore) MarkMessagesRead(ctx context.Context, f ReadFilter) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.collection(MessagesCollection).UpdateMany(ctx, readFilter(f), bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) CountUnread(ctx context.Context, f ReadFilter) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return s.collection(MessagesCollection).CountDocuments(ctx, readFilter(f))
}
