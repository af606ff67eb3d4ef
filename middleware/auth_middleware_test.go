package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus-market/backend/utils"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJWTMiddleware(t *testing.T) {
	logger, _ := test.NewNullLogger()
	userID := primitive.NewObjectID()

	var seen primitive.ObjectID
	handler := JWTMiddleware("secret", logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := utils.GenerateJWT(userID, "secret", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateJWT(userID, "secret", -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + mustToken(t, userID, "other"), http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = primitive.NilObjectID
			req := httptest.NewRequest(http.MethodGet, "/api/chat/rooms", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, userID, seen, "context 中應該帶有使用者 ID")
			} else {
				assert.True(t, seen.IsZero(), "驗證失敗時不應該呼叫下一個 handler")
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

func mustToken(t *testing.T, id primitive.ObjectID, secret string) string {
	t.Helper()
	tok, err := utils.GenerateJWT(id, secret, time.Hour)
	require.NoError(t, err)
	return tok
}
