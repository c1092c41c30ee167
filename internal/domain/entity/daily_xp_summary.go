package entity

import (
	"time"
)

// DailyXPSummary представляет суточный агрегат XP пользователя.
// Ключ (user_id, activity_date); счетчики только растут, записи не удаляются.
type DailyXPSummary struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_daily_xp_user_date" json:"user_id"`
	ActivityDate    time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_xp_user_date;index" json:"activity_date"`
	TotalXPToday    int64     `gorm:"not null;default:0" json:"total_xp_today"`
	LevelsCompleted int       `gorm:"not null;default:0" json:"levels_completed"`
	VideosCompleted int       `gorm:"not null;default:0" json:"videos_completed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (DailyXPSummary) TableName() string {
	return "daily_xp_summaries"
}
