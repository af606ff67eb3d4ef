package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"campus-market/backend/chat"
	"campus-market/backend/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var errInvalidPayload = errors.New("invalid request payload")

// sendJSONError 統一發送 JSON 格式錯誤響應
func sendJSONError(w http.ResponseWriter, logger logrus.FieldLogger, message string, statusCode int) {
	writeJSON(w, logger, statusCode, models.ErrorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Warn("Failed to write response")
	}
}

// statusFor 將 chat 的錯誤分類對應到 HTTP 狀態碼
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, chat.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendChatError 回報 chat 層的錯誤，伺服器錯誤才記錄 Error
func sendChatError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("request failed")
	}
	sendJSONError(w, logger, chat.PublicMessage(err), status)
}

// decodeBody 解析 JSON body 並用 validator 檢查
func decodeBody(r *http.Request, validate *validator.Validate, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errInvalidPayload
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return errInvalidPayload
	}
	return nil
}
