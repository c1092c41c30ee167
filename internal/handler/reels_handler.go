package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/examprep-api/internal/handler/dto"
	"github.com/yourusername/examprep-api/internal/middleware"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

// ReelsHandler обрабатывает запросы ленты коротких видео
type ReelsHandler struct {
	reelsService *service.ReelsService
}

// NewReelsHandler создает новый обработчик рилов
func NewReelsHandler(reelsService *service.ReelsService) *ReelsHandler {
	return &ReelsHandler{reelsService: reelsService}
}

// GetFeed возвращает порцию непросмотренных рилов.
// При исчерпании каталога лента сбрасывается и рилы идут по второму кругу.
func (h *ReelsHandler) GetFeed(c *gin.Context) {
	userID := middleware.UserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	reels, hasMore, err := h.reelsService.GetFeed(userID, limit)
	if err != nil {
		h.handleReelsError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewReelFeedResponse(reels, hasMore))
}

// GetReel возвращает один рил со статусом просмотра пользователя
func (h *ReelsHandler) GetReel(c *gin.Context) {
	userID := middleware.UserID(c)
	reelID := c.MustGet("reelID").(uint)

	reel, progress, err := h.reelsService.GetReelWithState(userID, reelID)
	if err != nil {
		h.handleReelsError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewReelWithStateResponse(reel, progress))
}

// MarkStarted отмечает начало просмотра рила. Идемпотентен.
func (h *ReelsHandler) MarkStarted(c *gin.Context) {
	userID := middleware.UserID(c)
	reelID := c.MustGet("reelID").(uint)

	if err := h.reelsService.MarkStarted(userID, reelID); err != nil {
		h.handleReelsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// MarkWatchedRequest представляет запрос на отметку досмотра рила
type MarkWatchedRequest struct {
	WatchDurationSeconds int `json:"watch_duration_seconds" binding:"omitempty,min=0"`
}

// MarkWatched отмечает рил досмотренным. Повторные вызовы — no-op.
func (h *ReelsHandler) MarkWatched(c *gin.Context) {
	userID := middleware.UserID(c)
	reelID := c.MustGet("reelID").(uint)

	var req MarkWatchedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reelsService.MarkWatched(userID, reelID, req.WatchDurationSeconds); err != nil {
		h.handleReelsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "watched"})
}

// ToggleHeart переключает лайк рила и возвращает новое состояние
func (h *ReelsHandler) ToggleHeart(c *gin.Context) {
	userID := middleware.UserID(c)
	reelID := c.MustGet("reelID").(uint)

	hearted, err := h.reelsService.ToggleHeart(userID, reelID)
	if err != nil {
		h.handleReelsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_hearted": hearted})
}

// handleReelsError преобразует ошибки ленты в HTTP-ответы
func (h *ReelsHandler) handleReelsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("[ReelsHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
