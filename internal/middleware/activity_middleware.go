package middleware

import (
	"github.com/gin-gonic/gin"
)

// ActivityTracker фиксирует дневную активность пользователя
type ActivityTracker interface {
	TouchDaily(userID uint)
}

// TrackActivity отмечает день активности аутентифицированного пользователя.
// Вешается после RequireAuth; повторные запросы в тот же день
// отсекаются внутри трекера и в БД не ходят.
func TrackActivity(tracker ActivityTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := UserID(c); userID != 0 {
			tracker.TouchDaily(userID)
		}
		c.Next()
	}
}
