package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"campus-market/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore 是行程內的 Store，唯一性規則與 MongoDB 索引相同。
// 用於 STORE=memory 的本地開發與測試
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]models.User
	items    map[primitive.ObjectID]models.Item
	rooms    map[primitive.ObjectID]models.ChatRoom
	roomKeys map[string]primitive.ObjectID
	messages []models.ChatMessage
}

// NewMemoryStore 建立空的 MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[primitive.ObjectID]models.User),
		items:    make(map[primitive.ObjectID]models.Item),
		rooms:    make(map[primitive.ObjectID]models.ChatRoom),
		roomKeys: make(map[string]primitive.ObjectID),
	}
}

func roomIndexKey(pairKey string, itemID primitive.ObjectID) string {
	return pairKey + "|" + itemID.Hex()
}

func copyRoom(r models.ChatRoom) *models.ChatRoom {
	r.Participants = append([]primitive.ObjectID(nil), r.Participants...)
	if r.LastMessage != nil {
		last := *r.LastMessage
		r.LastMessage = &last
	}
	if r.LastMessageAt != nil {
		at := *r.LastMessageAt
		r.LastMessageAt = &at
	}
	return &r
}

func (s *MemoryStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.StudentID == user.StudentID {
			return fmt.Errorf("%w: users email/studentId", ErrDuplicateKey)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindUserByStudentID(_ context.Context, studentID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.StudentID == studentID {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("%w: items _id", ErrDuplicateKey)
	}
	item.Images = append([]string(nil), item.Images...)
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) FindItemByID(_ context.Context, id primitive.ObjectID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *MemoryStore) InsertChatRoom(_ context.Context, room *models.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roomIndexKey(room.PairKey, room.Item)
	if _, ok := s.roomKeys[key]; ok {
		return fmt.Errorf("%w: chatrooms pairKey_1_item_1", ErrDuplicateKey)
	}
	if room.ID.IsZero() {
		room.ID = primitive.NewObjectID()
	}
	s.rooms[room.ID] = *copyRoom(*room)
	s.roomKeys[key] = room.ID
	return nil
}

func (s *MemoryStore) FindChatRoomByID(_ context.Context, id primitive.ObjectID) (*models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	return copyRoom(room), nil
}

func (s *MemoryStore) FindChatRoomByPairKey(_ context.Context, pairKey string, itemID primitive.ObjectID) (*models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.roomKeys[roomIndexKey(pairKey, itemID)]
	if !ok {
		return nil, nil
	}
	return copyRoom(s.rooms[id]), nil
}

func (s *MemoryStore) SetChatRoomActive(_ context.Context, id primitive.ObjectID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil
	}
	room.IsActive = active
	room.UpdatedAt = time.Now()
	s.rooms[id] = room
	return nil
}

func (s *MemoryStore) GetUserChatRooms(_ context.Context, userID primitive.ObjectID) ([]models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := []models.ChatRoom{}
	for _, r := range s.rooms {
		if r.IsActive && r.HasParticipant(userID) {
			rooms = append(rooms, *copyRoom(r))
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		a, b := rooms[i].LastMessageAt, rooms[j].LastMessageAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *MemoryStore) UpdateChatRoomLastMessage(_ context.Context, roomID primitive.ObjectID, last models.LastMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false, nil
	}
	if room.LastMessageAt != nil && !room.LastMessageAt.Before(last.CreatedAt) {
		return false, nil
	}
	at := last.CreatedAt
	room.LastMessage = &last
	room.LastMessageAt = &at
	room.UpdatedAt = time.Now()
	s.rooms[roomID] = room
	return true, nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MemoryStore) GetMessagesBetween(_ context.Context, a, b primitive.ObjectID, skip, limit int64) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.ChatMessage
	for _, m := range s.messages {
		if (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a) {
			matched = append(matched, m)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	out := []models.ChatMessage{}
	for i := skip; i < int64(len(matched)) && (limit <= 0 || int64(len(out)) < limit); i++ {
		out = append(out, matched[i])
	}
	return out, nil
}

func (f ReadFilter) matches(m *models.ChatMessage) bool {
	if m.IsRead || m.Receiver != f.Receiver {
		return false
	}
	if f.Sender.IsZero() {
		if m.Sender == f.Receiver {
			return false
		}
	} else if m.Sender != f.Sender {
		return false
	}
	if len(f.IDs) == 0 {
		return true
	}
	for _, id := range f.IDs {
		if id == m.ID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) MarkMessagesRead(_ context.Context, f ReadFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.messages {
		if f.matches(&s.messages[i]) {
			s.messages[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountUnread(_ context.Context, f ReadFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.messages {
		if f.matches(&s.messages[i]) {
			n++
		}
	}
	return n, nil
}
