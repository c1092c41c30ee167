package entity

import (
	"time"
)

// Константы статусов просмотра рила
const (
	ReelProgressStarted = "started"
	ReelProgressWatched = "watched"
)

// UserReelProgress представляет прогресс пользователя по одному рилу.
// Записи удаляются пачкой при сбросе цикла ленты; лайкнутые рилы
// пересоздаются со статусом started, чтобы сохранить лайк и не всплывать в ленте.
type UserReelProgress struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;uniqueIndex:idx_user_reel" json:"user_id"`
	ReelID               uint      `gorm:"not null;uniqueIndex:idx_user_reel;index" json:"reel_id"`
	Status               string    `gorm:"size:20;not null;default:'started'" json:"status"`
	IsHearted            bool      `gorm:"not null;default:false" json:"is_hearted"`
	WatchDurationSeconds int       `gorm:"not null;default:0" json:"watch_duration_seconds"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (UserReelProgress) TableName() string {
	return "user_reel_progress"
}

// IsWatched проверяет, досмотрен ли рил
func (p *UserReelProgress) IsWatched() bool {
	return p.Status == ReelProgressWatched
}
