package utils

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserIDKey 是儲存在 context 中的使用者 ID 的鍵
type contextKey string

const UserIDKey contextKey = "userID"

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrMissingUserID   = errors.New("user ID not found in token claims")
	ErrInvalidUserID   = errors.New("invalid user ID format in token")
	ErrNoUserInContext = errors.New("user ID not found in context")
)

// WithUserID 將使用者 ID 放入 context
func WithUserID(ctx context.Context, userID primitive.ObjectID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext 從 context 中提取使用者 ID
func GetUserIDFromContext(ctx context.Context) (primitive.ObjectID, error) {
	userID, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, ErrNoUserInContext
	}
	return userID, nil
}

// GetUserIDFromToken 從 JWT token 中提取使用者 ID
func GetUserIDFromToken(tokenString string, jwtSecret string) (primitive.ObjectID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return primitive.NilObjectID, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return primitive.NilObjectID, ErrInvalidToken
	}

	userIDStr, ok := claims["userId"].(string)
	if !ok {
		return primitive.NilObjectID, ErrMissingUserID
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidUserID
	}

	return userID, nil
}

// GenerateJWT 為用戶生成 JWT Token
func GenerateJWT(userID primitive.ObjectID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID.Hex(), // 將 ObjectID 轉換為 Hex 字串儲存
		"exp":    now.Add(ttl).Unix(),
		"iat":    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.New("failed to sign token")
	}
	return tokenString, nil
}

// SortObjectIDs 對 primitive.ObjectID 切片進行排序 (按 Hex 字串)
func SortObjectIDs(ids []primitive.ObjectID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Hex() < ids[j].Hex()
	})
}

// PairKey 產生與順序無關的參與者鍵，(A,B) 與 (B,A) 得到相同結果
func PairKey(a, b primitive.ObjectID) string {
	ids := []primitive.ObjectID{a, b}
	SortObjectIDs(ids)
	return ids[0].Hex() + ":" + ids[1].Hex()
}

// SortedPair 回傳排序後的兩位參與者
func SortedPair(a, b primitive.ObjectID) []primitive.ObjectID {
	ids := []primitive.ObjectID{a, b}
	SortObjectIDs(ids)
	return ids
}
