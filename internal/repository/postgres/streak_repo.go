package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// StreakRepo реализует repository.StreakRepository
type StreakRepo struct {
	db *gorm.DB
}

// NewStreakRepo создает новый репозиторий серий активности
func NewStreakRepo(db *gorm.DB) *StreakRepo {
	return &StreakRepo{db: db}
}

// GetByUser возвращает запись серии пользователя
func (r *StreakRepo) GetByUser(userID uint) (*entity.StreakRecord, error) {
	var record entity.StreakRecord
	err := r.db.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByUserForUpdate читает запись серии с блокировкой строки.
// Конкурентные обновления одного дня сериализуются на этой блокировке.
func (r *StreakRepo) GetByUserForUpdate(tx *gorm.DB, userID uint) (*entity.StreakRecord, error) {
	var record entity.StreakRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Create создает запись серии
func (r *StreakRepo) Create(tx *gorm.DB, record *entity.StreakRecord) error {
	return tx.Create(record).Error
}

// Update сохраняет обновленную запись серии
func (r *StreakRepo) Update(tx *gorm.DB, record *entity.StreakRecord) error {
	return tx.Save(record).Error
}
