package entity

import (
	"time"
)

// User представляет пользователя в системе
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Phone         string     `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Name          string     `gorm:"size:100;not null;default:''" json:"name"`
	Locale        string     `gorm:"size:5;not null;default:'ru'" json:"locale"` // "ru", "kk" или "en"
	XPTotal       int64      `gorm:"not null;default:0" json:"xp_total"`
	CurrentLevel  int        `gorm:"not null;default:1" json:"current_level"`
	ReferralCode  string     `gorm:"size:5;not null;uniqueIndex" json:"referral_code"`
	ReferredBy    *string    `gorm:"size:5" json:"referred_by,omitempty"`
	VideosWatched int64      `gorm:"not null;default:0" json:"videos_watched"`
	LastActiveAt  *time.Time `gorm:"type:timestamp" json:"last_active_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// CanAccessLevel проверяет, открыт ли уровень для пользователя.
// Уровни открываются последовательно: доступны все уровни до current_level включительно.
func (u *User) CanAccessLevel(level int) bool {
	return level >= 1 && level <= u.CurrentLevel
}
