package chat

import (
	"campus-market/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deliverer 是盡力而為的推送：沒有在線連線就什麼都不做，不重試也不排隊
type Deliverer interface {
	DeliverToUser(userID primitive.ObjectID, evt models.Event)
	DeliverToRoom(roomID primitive.ObjectID, evt models.Event)
}

// Presence 回答使用者目前是否有連線加入了某個聊天室
type Presence interface {
	IsPresent(roomID, userID primitive.ObjectID) bool
}
