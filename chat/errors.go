package chat

import (
	"errors"
	"fmt"
)

// 錯誤分類。呼叫端以 errors.Is 判斷類別，細節以 %w 包裝
var (
	ErrUnauthenticated = errors.New("not authenticated")

	ErrForbidden      = errors.New("forbidden")
	ErrNotParticipant = fmt.Errorf("%w: not a participant of this room", ErrForbidden)

	ErrNotFound     = errors.New("not found")
	ErrRoomNotFound = fmt.Errorf("%w: chat room", ErrNotFound)
	ErrItemNotFound = fmt.Errorf("%w: item", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = fmt.Errorf("%w: sending too fast", ErrValidation)
)

// ErrOperationFailed 用於持久層失敗，不對外暴露底層錯誤內容
var ErrOperationFailed = errors.New("operation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}

// PublicMessage 回傳可以送給客戶端的錯誤訊息
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return ErrOperationFailed.Error()
	}
}
