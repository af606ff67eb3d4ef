package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/sirupsen/logrus"
)

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Message: message})
}

// JWTMiddleware 驗證 JWT Token 並將使用者 ID 放入 context
func JWTMiddleware(jwtSecret string, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Authorization header required")
				return
			}

			// Authorization: Bearer <token>
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				unauthorized(w, "Invalid Authorization header format")
				return
			}

			userID, err := utils.GetUserIDFromToken(parts[1], jwtSecret)
			if err != nil {
				logger.WithError(err).Debug("Invalid JWT token")
				unauthorized(w, "Invalid or expired token")
				return
			}

			// 將使用者 ID 存儲到請求的 context 中
			next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), userID)))
		})
	}
}
