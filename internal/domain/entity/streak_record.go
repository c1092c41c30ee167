package entity

import (
	"time"
)

// StreakRecord представляет серию последовательных дней активности пользователя.
// На пользователя приходится ровно одна запись; обновляется не чаще одного раза в день.
type StreakRecord struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentStreak    int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityDate *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (StreakRecord) TableName() string {
	return "streak_records"
}
