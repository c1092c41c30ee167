package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// ReferralRepo реализует repository.ReferralRepository
type ReferralRepo struct {
	db *gorm.DB
}

// NewReferralRepo создает новый репозиторий реферальных записей
func NewReferralRepo(db *gorm.DB) *ReferralRepo {
	return &ReferralRepo{db: db}
}

// ExistsForReferee проверяет, есть ли уже реферальная запись для приглашенного
func (r *ReferralRepo) ExistsForReferee(refereeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.ReferralRecord{}).
		Where("referee_id = ?", refereeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create вставляет реферальную запись.
// Уникальный индекс по referee_id — настоящая защита от двойного применения;
// его срабатывание возвращается как доменная ошибка.
func (r *ReferralRepo) Create(tx *gorm.DB, record *entity.ReferralRecord) error {
	if err := tx.Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrRefereeAlreadyReferred
		}
		return err
	}
	return nil
}

// GetStatsByReferrer возвращает агрегаты по приглашениям пользователя
func (r *ReferralRepo) GetStatsByReferrer(referrerID uint) (*repository.ReferralStats, error) {
	var stats repository.ReferralStats

	err := r.db.Model(&entity.ReferralRecord{}).
		Where("referrer_id = ?", referrerID).
		Select("COUNT(*) AS referrals_count, COALESCE(SUM(xp_granted), 0) AS xp_earned").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
