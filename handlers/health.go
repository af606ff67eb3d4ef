package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthCheck 回報依賴服務是否可用，例如 MongoDB 或 Redis 的 ping
type HealthCheck func(ctx context.Context) error

// Health 回傳 JSON 狀態，任何檢查失敗時回 503
func Health(checks map[string]HealthCheck, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{"status": "ok", "dependencies": deps, "time": time.Now().UTC()}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, logger, status, body)
	}
}
