package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/examprep-api/internal/domain/repository"
	"github.com/yourusername/examprep-api/internal/handler/dto"
	"github.com/yourusername/examprep-api/internal/middleware"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

// AttemptHandler обрабатывает запросы прогрессии: карта уровней,
// попытки, ответы, бонусные видео и восстановление жизней
type AttemptHandler struct {
	attemptService *service.AttemptService
	rewardService  *service.RewardService
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(
	attemptService *service.AttemptService,
	rewardService *service.RewardService,
) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		rewardService:  rewardService,
	}
}

// ListLevels возвращает карту всех уровней с доступностью и лучшими результатами
func (h *AttemptHandler) ListLevels(c *gin.Context) {
	userID := middleware.UserID(c)

	levels, err := h.attemptService.ListLevels(userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

// StartAttempt начинает новую попытку прохождения уровня
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	userID := middleware.UserID(c)
	level := int(c.MustGet("level").(uint)) // Получаем из контекста

	attempt, questions, err := h.attemptService.StartAttempt(userID, level)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewStartAttemptResponse(attempt, questions))
}

// AnswerQuestionRequest представляет запрос на ответ на вопрос
type AnswerQuestionRequest struct {
	QuestionID       uint `json:"question_id" binding:"required"`
	ChosenOption     int  `json:"chosen_option" binding:"required,min=1,max=10"`
	TimeTakenSeconds int  `json:"time_taken_seconds" binding:"omitempty,min=0"`
}

// AnswerQuestion фиксирует ответ на вопрос в рамках попытки
func (h *AttemptHandler) AnswerQuestion(c *gin.Context) {
	userID := middleware.UserID(c)
	attemptID := c.MustGet("attemptID").(uint)

	var req AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.attemptService.AnswerQuestion(userID, attemptID, req.QuestionID, req.ChosenOption, req.TimeTakenSeconds)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AbandonAttempt помечает попытку как брошенную
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	userID := middleware.UserID(c)
	attemptID := c.MustGet("attemptID").(uint)

	if err := h.attemptService.AbandonAttempt(userID, attemptID); err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "abandoned"})
}

// GetActiveAttempt возвращает незавершенную попытку пользователя, если есть
func (h *AttemptHandler) GetActiveAttempt(c *gin.Context) {
	userID := middleware.UserID(c)

	attempt, err := h.attemptService.GetActiveAttempt(userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// GetAttempt возвращает попытку по ID
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	userID := middleware.UserID(c)
	attemptID := c.MustGet("attemptID").(uint)

	attempt, err := h.attemptService.GetAttempt(userID, attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// GetAttemptResponses возвращает ответы пользователя в рамках попытки
func (h *AttemptHandler) GetAttemptResponses(c *gin.Context) {
	userID := middleware.UserID(c)
	attemptID := c.MustGet("attemptID").(uint)

	responses, err := h.attemptService.GetAttemptResponses(userID, attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// ListAttempts возвращает историю попыток пользователя
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID := middleware.UserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	attempts, err := h.attemptService.ListAttempts(userID, limit, offset)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListAttemptsResponse(attempts, limit, offset))
}

// ListPromoVideos возвращает каталог активных промо-видео
func (h *AttemptHandler) ListPromoVideos(c *gin.Context) {
	videos, err := h.rewardService.GetActiveVideos()
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// VideoCompleteRequest представляет запрос на засчитывание бонусного видео
type VideoCompleteRequest struct {
	VideoID              uint `json:"video_id" binding:"required"`
	WatchDurationSeconds int  `json:"watch_duration_seconds" binding:"required,min=1"`
}

// CompleteVideo засчитывает просмотр промо-видео после завершения уровня
// и удваивает базовый XP попытки
func (h *AttemptHandler) CompleteVideo(c *gin.Context) {
	userID := middleware.UserID(c)
	attemptID := c.MustGet("attemptID").(uint)

	var req VideoCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.rewardService.CompleteVideo(userID, attemptID, req.VideoID, req.WatchDurationSeconds)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempt":   dto.NewAttemptResponse(attempt),
		"xp_earned": attempt.XPEarnedFinal,
	})
}

// RestoreLifelines восстанавливает жизни идущей попытки за просмотр видео
func (h *AttemptHandler) RestoreLifelines(c *gin.Context) {
	userID := middleware.UserID(c)
	attemptID := c.MustGet("attemptID").(uint)

	var req VideoCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.rewardService.RestoreLifelines(userID, attemptID, req.VideoID, req.WatchDurationSeconds)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempt":             dto.NewAttemptResponse(attempt),
		"lifelines_remaining": attempt.LifelinesRemaining,
	})
}

// handleAttemptError преобразует ошибки прогрессии в HTTP-ответы
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	var lockedErr *service.LevelLockedError
	var watchErr *service.InsufficientWatchTimeError

	switch {
	case errors.As(err, &lockedErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error":         lockedErr.Error(),
			"error_type":    "level_locked",
			"current_level": lockedErr.CurrentLevel,
		})
	case errors.As(err, &watchErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               watchErr.Error(),
			"error_type":          "insufficient_watch_time",
			"watched_percentage":  watchErr.WatchedPercentage,
			"required_percentage": watchErr.RequiredPercentage,
		})
	case errors.Is(err, service.ErrQuestionsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "no_questions"})
	case errors.Is(err, service.ErrQuizNotCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "quiz_not_completed"})
	case errors.Is(err, service.ErrVideoAlreadyWatched):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "video_already_watched"})
	case errors.Is(err, service.ErrAttemptFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "attempt_finished"})
	case errors.Is(err, repository.ErrDuplicateAnswer):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "duplicate_answer"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[AttemptHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
