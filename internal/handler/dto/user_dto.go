package dto

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	"github.com/yourusername/examprep-api/internal/service"
)

// UserResponse представляет пользователя для клиента
type UserResponse struct {
	ID            uint      `json:"id"`
	Phone         string    `json:"phone"`
	Name          string    `json:"name"`
	Locale        string    `json:"locale"`
	XPTotal       int64     `json:"xp_total"`
	CurrentLevel  int       `json:"current_level"`
	ReferralCode  string    `json:"referral_code"`
	ReferredBy    *string   `json:"referred_by,omitempty"`
	VideosWatched int64     `json:"videos_watched"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Phone:         u.Phone,
		Name:          u.Name,
		Locale:        u.Locale,
		XPTotal:       u.XPTotal,
		CurrentLevel:  u.CurrentLevel,
		ReferralCode:  u.ReferralCode,
		ReferredBy:    u.ReferredBy,
		VideosWatched: u.VideosWatched,
		CreatedAt:     u.CreatedAt,
	}
}

// AuthResponse представляет ответ регистрации/входа: токен плюс пользователь
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// StreakResponse представляет серию ежедневной активности
type StreakResponse struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// ProfileResponse представляет агрегированный профиль пользователя
type ProfileResponse struct {
	User          *UserResponse             `json:"user"`
	Streak        StreakResponse            `json:"streak"`
	TodayXP       int64                     `json:"today_xp"`
	ReferralStats *repository.ReferralStats `json:"referral_stats"`
}

// NewProfileResponse создает DTO профиля
func NewProfileResponse(p *service.UserProfile) *ProfileResponse {
	resp := &ProfileResponse{
		User:          NewUserResponse(p.User),
		TodayXP:       p.TodayXP,
		ReferralStats: p.ReferralStats,
	}
	if p.Streak != nil {
		resp.Streak = StreakResponse{
			CurrentStreak: p.Streak.CurrentStreak,
			LongestStreak: p.Streak.LongestStreak,
		}
	}
	return resp
}
