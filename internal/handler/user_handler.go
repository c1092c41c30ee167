package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/examprep-api/internal/handler/dto"
	"github.com/yourusername/examprep-api/internal/middleware"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
	"github.com/yourusername/examprep-api/pkg/auth"
)

// UserHandler обрабатывает регистрацию, вход и профиль пользователя
type UserHandler struct {
	userService     *service.UserService
	referralService *service.ReferralService
	jwtService      *auth.JWTService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(
	userService *service.UserService,
	referralService *service.ReferralService,
	jwtService *auth.JWTService,
) *UserHandler {
	return &UserHandler{
		userService:     userService,
		referralService: referralService,
		jwtService:      jwtService,
	}
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Phone        string `json:"phone" binding:"required,min=10,max=20"`
	Name         string `json:"name" binding:"omitempty,max=100"`
	Locale       string `json:"locale" binding:"omitempty,oneof=ru kk en"`
	ReferralCode string `json:"referral_code" binding:"omitempty,len=5"`
}

// Register создает пользователя и выдает токен доступа.
// Подтверждение номера телефона (SMS) выполняет внешний сервис до этого вызова.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(req.Phone, req.Name, req.Locale, req.ReferralCode)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Phone)
	if err != nil {
		log.Printf("[UserHandler] Не удалось выпустить токен для пользователя #%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	})
}

// GetProfile возвращает агрегированный профиль текущего пользователя
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProfileResponse(profile))
}

// UpdateProfileRequest представляет запрос на обновление профиля
type UpdateProfileRequest struct {
	Name   string `json:"name" binding:"omitempty,max=100"`
	Locale string `json:"locale" binding:"omitempty,oneof=ru kk en"`
}

// UpdateProfile обновляет имя и локаль текущего пользователя
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(userID, req.Name, req.Locale)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// GetReferralStats возвращает реферальную статистику текущего пользователя
func (h *UserHandler) GetReferralStats(c *gin.Context) {
	userID := middleware.UserID(c)

	stats, err := h.referralService.GetStats(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	user, err := h.userService.GetByID(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":   user.ReferralCode,
		"referrals_count": stats.ReferralsCount,
		"xp_earned":       stats.XPEarned,
	})
}

// handleUserError преобразует ошибки пользовательских операций в HTTP-ответы
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidReferralCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_referral_code"})
	case errors.Is(err, service.ErrSelfReferralNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "self_referral"})
	case errors.Is(err, service.ErrAlreadyReferred):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "already_referred"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("[UserHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
