package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/examprep-api/internal/middleware"
	"github.com/yourusername/examprep-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket-подключения к лидерборду
type WSHandler struct {
	hub *websocket.Hub
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleLeaderboard апгрейдит соединение и подписывает клиента
// на обновления дневного лидерборда. Токен передается
// query-параметром token и проверяется auth middleware до апгрейда.
func (h *WSHandler) HandleLeaderboard(c *gin.Context) {
	userID := middleware.UserID(c)

	if err := websocket.ServeWS(h.hub, c.Writer, c.Request, userID); err != nil {
		// Upgrade уже ответил клиенту сам, остается залогировать
		log.Printf("[WSHandler] Ошибка апгрейда соединения для пользователя #%d: %v", userID, err)
	}
}
