package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterRequest 結構體用於處理註冊請求
type RegisterRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Name      string `json:"name" validate:"required"`
}

// LoginRequest 結構體用於處理登入請求
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ErrorResponse 結構體用於返回 JSON 格式的錯誤訊息
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse 是只有一段訊息的成功回應
type MessageResponse struct {
	Message string `json:"message"`
}

// User 結構體定義了使用者資料的欄位
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	StudentID  string             `bson:"studentId" json:"studentId"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"` // 儲存哈希後的密碼，JSON 輸出時忽略
	Name       string             `bson:"name" json:"name"`
	Avatar     string             `bson:"avatar" json:"avatar"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile 是聊天功能唯一會用到的使用者資訊
type PublicProfile struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Avatar string             `json:"avatar"`
}

// Profile 回傳使用者的公開資訊
func (u *User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// AuthResponse 是註冊與登入成功的回應
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}
