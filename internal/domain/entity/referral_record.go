package entity

import (
	"time"
)

// Константы статусов реферальной записи
const (
	ReferralStatusActive = "active"
)

// ReferralRecord представляет успешно примененный реферальный код.
// Уникальный индекс по referee_id гарантирует, что пользователь может быть
// приглашен не более одного раза за все время жизни аккаунта.
type ReferralRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReferrerID uint      `gorm:"not null;index" json:"referrer_id"`
	RefereeID  uint      `gorm:"not null;uniqueIndex" json:"referee_id"`
	CodeUsed   string    `gorm:"size:5;not null" json:"code_used"`
	XPGranted  int       `gorm:"not null;default:0" json:"xp_granted"`
	Status     string    `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (ReferralRecord) TableName() string {
	return "referral_records"
}
