package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByPhone(phone string) (*entity.User, error)
	GetByReferralCode(code string) (*entity.User, error)
	UpdateProfile(tx *gorm.DB, userID uint, updates map[string]interface{}) error
	// AddXP атомарно увеличивает xp_total на delta внутри переданной транзакции
	AddXP(tx *gorm.DB, userID uint, delta int64) error
	// PromoteLevel повышает current_level до newLevel, только если он строго выше текущего
	PromoteLevel(tx *gorm.DB, userID uint, newLevel int) error
	// IncrementVideosWatched атомарно увеличивает счетчик просмотренных видео
	IncrementVideosWatched(tx *gorm.DB, userID uint) error
	TouchLastActive(userID uint, at time.Time) error
}
