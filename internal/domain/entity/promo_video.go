package entity

import (
	"math"
	"time"
)

// Минимальная доля просмотра видео для засчитывания (бонусный XP и восстановление жизней)
const WatchThreshold = 0.80

// PromoVideo представляет промо-видео из каталога.
// Каталог read-only для движка: URL и длительность приходят из внешнего хранилища.
type PromoVideo struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null;default:''" json:"title"`
	URL             string    `gorm:"size:500;not null" json:"url"`
	DurationSeconds int       `gorm:"not null" json:"duration_seconds"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (PromoVideo) TableName() string {
	return "promo_videos"
}

// WatchedPercentage возвращает фактический процент просмотра
func (v *PromoVideo) WatchedPercentage(watchDurationSeconds int) float64 {
	if v.DurationSeconds <= 0 {
		return 0
	}
	pct := float64(watchDurationSeconds) / float64(v.DurationSeconds) * 100
	return math.Round(pct*100) / 100
}

// MeetsWatchThreshold проверяет, достаточно ли досмотрено видео
func (v *PromoVideo) MeetsWatchThreshold(watchDurationSeconds int) bool {
	if v.DurationSeconds <= 0 {
		return false
	}
	return float64(watchDurationSeconds)/float64(v.DurationSeconds) >= WatchThreshold
}
