package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item 是二手商品，聊天室只讀取它
type Item struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title     string             `bson:"title" json:"title"`
	Price     float64            `bson:"price" json:"price"`
	Images    []string           `bson:"images" json:"images"`
	Seller    primitive.ObjectID `bson:"seller" json:"seller"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ItemSummary 是聊天室列表中顯示的商品摘要
type ItemSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Title  string             `json:"title"`
	Price  float64            `json:"price"`
	Images []string           `json:"images"`
}

// Summary 回傳商品摘要
func (i *Item) Summary() *ItemSummary {
	return &ItemSummary{ID: i.ID, Title: i.Title, Price: i.Price, Images: i.Images}
}
