package entity

import (
	"time"
)

// Reel представляет короткое видео ленты с агрегатными счетчиками.
// Счетчики мутируются только дельта-апдейтами на стороне БД.
type Reel struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Title                 string    `gorm:"size:200;not null;default:''" json:"title"`
	VideoURL              string    `gorm:"size:500;not null" json:"video_url"`
	ThumbnailURL          string    `gorm:"size:500;not null;default:''" json:"thumbnail_url,omitempty"`
	DurationSeconds       int       `gorm:"not null;default:0" json:"duration_seconds"`
	TotalViews            int64     `gorm:"not null;default:0" json:"total_views"`
	TotalCompletions      int64     `gorm:"not null;default:0" json:"total_completions"`
	TotalHearts           int64     `gorm:"not null;default:0" json:"total_hearts"`
	TotalWatchTimeSeconds int64     `gorm:"not null;default:0" json:"total_watch_time_seconds"`
	IsActive              bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Reel) TableName() string {
	return "reels"
}
