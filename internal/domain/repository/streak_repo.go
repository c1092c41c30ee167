package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// StreakRepository определяет методы для работы с сериями активности
type StreakRepository interface {
	GetByUser(userID uint) (*entity.StreakRecord, error)
	// GetByUserForUpdate читает запись с блокировкой строки, чтобы два
	// конкурентных обновления одного дня не применились дважды
	GetByUserForUpdate(tx *gorm.DB, userID uint) (*entity.StreakRecord, error)
	Create(tx *gorm.DB, record *entity.StreakRecord) error
	Update(tx *gorm.DB, record *entity.StreakRecord) error
}
