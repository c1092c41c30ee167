package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// ReferralStats содержит агрегаты по приглашениям пользователя
type ReferralStats struct {
	ReferralsCount int64 `json:"referrals_count"`
	XPEarned       int64 `json:"xp_earned"`
}

// ReferralRepository определяет методы для работы с реферальными записями
type ReferralRepository interface {
	// ExistsForReferee проверяет, был ли пользователь уже приглашен.
	// Проверка — оптимизация; настоящей защитой служит уникальный индекс по referee_id.
	ExistsForReferee(refereeID uint) (bool, error)
	// Create вставляет запись; нарушение уникальности по referee_id
	// возвращается как ErrRefereeAlreadyReferred
	Create(tx *gorm.DB, record *entity.ReferralRecord) error
	GetStatsByReferrer(referrerID uint) (*ReferralStats, error)
}
