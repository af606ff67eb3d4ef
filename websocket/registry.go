package websocket

import (
	"sync"

	"campus-market/backend/models"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const registryShards = 32

// Connection 是登記在 Registry 中的一條連線
type Connection interface {
	ID() uuid.UUID
	// Enqueue 不可阻塞，回傳 false 代表這條連線已經關閉或送不進去
	Enqueue(evt models.Event) bool
}

type member struct {
	conn   Connection
	userID primitive.ObjectID
}

type shard struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]map[uuid.UUID]Connection
	rooms map[primitive.ObjectID]map[uuid.UUID]member
}

// session 是單一連線的狀態。鎖的順序固定為 session.mu 再到 shard.mu
type session struct {
	mu     sync.Mutex
	conn   Connection
	userID primitive.ObjectID
	rooms  map[primitive.ObjectID]struct{}
	closed bool
}

type sessionShard struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// Registry 是行程內的連線索引：使用者 -> 連線、聊天室 -> 在場連線。
// 只用於推送，授權一律以持久層為準
type Registry struct {
	shards   [registryShards]shard
	sessions [registryShards]sessionShard
	logger   logrus.FieldLogger
}

func NewRegistry(logger logrus.FieldLogger) *Registry {
	r := &Registry{logger: logger}
	for i := range r.shards {
		r.shards[i].users = make(map[primitive.ObjectID]map[uuid.UUID]Connection)
		r.shards[i].rooms = make(map[primitive.ObjectID]map[uuid.UUID]member)
		r.sessions[i].sessions = make(map[uuid.UUID]*session)
	}
	return r
}

func (r *Registry) shardFor(id primitive.ObjectID) *shard {
	return &r.shards[xxhash.Sum64(id[:])%registryShards]
}

func (r *Registry) sessionShardFor(id uuid.UUID) *sessionShard {
	return &r.sessions[xxhash.Sum64(id[:])%registryShards]
}

func (r *Registry) session(id uuid.UUID) *session {
	ss := r.sessionShardFor(id)
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.sessions[id]
}

// Register 把連線加入使用者的推送集合。同一使用者可以有多條連線
func (r *Registry) Register(userID primitive.ObjectID, conn Connection) {
	s := &session{conn: conn, userID: userID, rooms: make(map[primitive.ObjectID]struct{})}
	// 先鎖住 session 再公開，並行的 Remove 會等到登記完成
	s.mu.Lock()
	defer s.mu.Unlock()

	ss := r.sessionShardFor(conn.ID())
	ss.mu.Lock()
	if _, exists := ss.sessions[conn.ID()]; exists {
		ss.mu.Unlock()
		return
	}
	ss.sessions[conn.ID()] = s
	ss.mu.Unlock()

	sh := r.shardFor(userID)
	sh.mu.Lock()
	conns, ok := sh.users[userID]
	if !ok {
		conns = make(map[uuid.UUID]Connection)
		sh.users[userID] = conns
	}
	conns[conn.ID()] = conn
	sh.mu.Unlock()

	r.logger.WithFields(logrus.Fields{"user_id": userID.Hex(), "conn_id": conn.ID()}).Debug("connection registered")
}

// Remove 在斷線時清除連線的所有登記，可重複呼叫
func (r *Registry) Remove(conn Connection) {
	ss := r.sessionShardFor(conn.ID())
	ss.mu.Lock()
	s, ok := ss.sessions[conn.ID()]
	delete(ss.sessions, conn.ID())
	ss.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	for roomID := range s.rooms {
		r.removeFromRoom(roomID, conn.ID())
	}
	s.rooms = nil

	sh := r.shardFor(s.userID)
	sh.mu.Lock()
	if conns, ok := sh.users[s.userID]; ok {
		delete(conns, conn.ID())
		if len(conns) == 0 {
			delete(sh.users, s.userID)
		}
	}
	sh.mu.Unlock()

	r.logger.WithFields(logrus.Fields{"user_id": s.userID.Hex(), "conn_id": conn.ID()}).Debug("connection removed")
}

// JoinRoom 把連線加入聊天室的在場集合。連線尚未登記或已關閉時回傳 false
func (r *Registry) JoinRoom(conn Connection, roomID primitive.ObjectID) bool {
	s := r.session(conn.ID())
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.rooms[roomID] = struct{}{}

	sh := r.shardFor(roomID)
	sh.mu.Lock()
	members, ok := sh.rooms[roomID]
	if !ok {
		members = make(map[uuid.UUID]member)
		sh.rooms[roomID] = members
	}
	members[conn.ID()] = member{conn: conn, userID: s.userID}
	sh.mu.Unlock()
	return true
}

// LeaveRoom 離開聊天室，回傳連線原本是否在房間內。沒加入過的房間是 no-op
func (r *Registry) LeaveRoom(conn Connection, roomID primitive.ObjectID) bool {
	s := r.session(conn.ID())
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok || s.closed {
		return false
	}
	delete(s.rooms, roomID)
	r.removeFromRoom(roomID, conn.ID())
	return true
}

func (r *Registry) removeFromRoom(roomID primitive.ObjectID, connID uuid.UUID) {
	sh := r.shardFor(roomID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if members, ok := sh.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(sh.rooms, roomID)
		}
	}
}

// DeliverToUser 推送給使用者所有的連線，沒有連線時不做任何事
func (r *Registry) DeliverToUser(userID primitive.ObjectID, evt models.Event) {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	targets := make([]Connection, 0, len(sh.users[userID]))
	for _, c := range sh.users[userID] {
		targets = append(targets, c)
	}
	sh.mu.RUnlock()

	r.deliver(targets, evt, logrus.Fields{"user_id": userID.Hex()})
}

// DeliverToRoom 推送給目前加入聊天室的所有連線
func (r *Registry) DeliverToRoom(roomID primitive.ObjectID, evt models.Event) {
	sh := r.shardFor(roomID)
	sh.mu.RLock()
	targets := make([]Connection, 0, len(sh.rooms[roomID]))
	for _, m := range sh.rooms[roomID] {
		targets = append(targets, m.conn)
	}
	sh.mu.RUnlock()

	r.deliver(targets, evt, logrus.Fields{"room_id": roomID.Hex()})
}

// deliver 在不持有任何鎖的情況下送出
func (r *Registry) deliver(targets []Connection, evt models.Event, fields logrus.Fields) int {
	sent := 0
	for _, c := range targets {
		if c.Enqueue(evt) {
			sent++
		} else {
			r.logger.WithFields(fields).WithField("conn_id", c.ID()).WithField("event", evt.Name).Warn("dropped event for closed or slow connection")
		}
	}
	return sent
}

// IsPresent 使用者是否有任何連線在聊天室內
func (r *Registry) IsPresent(roomID, userID primitive.ObjectID) bool {
	sh := r.shardFor(roomID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	for _, m := range sh.rooms[roomID] {
		if m.userID == userID {
			return true
		}
	}
	return false
}

// RoomSize 回傳聊天室目前在場的連線數
func (r *Registry) RoomSize(roomID primitive.ObjectID) int {
	sh := r.shardFor(roomID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.rooms[roomID])
}

// UserConnections 回傳使用者目前的連線數
func (r *Registry) UserConnections(userID primitive.ObjectID) int {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.users[userID])
}
