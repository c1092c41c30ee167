package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/examprep-api/internal/middleware"
	"github.com/yourusername/examprep-api/internal/service"
)

// LeaderboardHandler обрабатывает запросы дневного лидерборда
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler создает новый обработчик лидерборда
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetDaily возвращает топ дня и позицию запросившего пользователя.
// Необязательный query-параметр date=YYYY-MM-DD выбирает прошлый день;
// без него берется сегодня в канонической таймзоне сервиса, а не клиента.
func (h *LeaderboardHandler) GetDaily(c *gin.Context) {
	userID := middleware.UserID(c)

	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	board, err := h.leaderboardService.GetDaily(userID, date)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка построения лидерборда: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, board)
}
