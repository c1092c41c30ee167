package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя
func (r *UserRepo) Create(user *entity.User) error {
	return r.db.Create(user).Error
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByPhone возвращает пользователя по номеру телефона
func (r *UserRepo) GetByPhone(phone string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("phone = ?", phone).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByReferralCode возвращает пользователя по реферальному коду
func (r *UserRepo) GetByReferralCode(code string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile обновляет профиль пользователя (имя, локаль)
// Игровые счетчики через этот метод не изменяются
func (r *UserRepo) UpdateProfile(tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	// Счетчики и уровень мутируются только атомарными дельтами
	delete(updates, "xp_total")
	delete(updates, "current_level")
	delete(updates, "videos_watched")

	updates["updated_at"] = time.Now()

	return tx.Model(&entity.User{}).Where("id = ?", userID).Updates(updates).Error
}

// AddXP атомарно увеличивает xp_total пользователя.
// Дельта выполняется на стороне БД, чтобы конкурентные начисления не терялись.
func (r *UserRepo) AddXP(tx *gorm.DB, userID uint, delta int64) error {
	return tx.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("xp_total", gorm.Expr("xp_total + ?", delta)).
		Error
}

// PromoteLevel повышает current_level до newLevel.
// Условие current_level < newLevel делает операцию монотонной: уровень никогда не понижается.
func (r *UserRepo) PromoteLevel(tx *gorm.DB, userID uint, newLevel int) error {
	return tx.Model(&entity.User{}).
		Where("id = ? AND current_level < ?", userID, newLevel).
		UpdateColumn("current_level", newLevel).
		Error
}

// IncrementVideosWatched атомарно увеличивает счетчик просмотренных видео
func (r *UserRepo) IncrementVideosWatched(tx *gorm.DB, userID uint) error {
	return tx.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("videos_watched", gorm.Expr("videos_watched + ?", 1)).
		Error
}

// TouchLastActive обновляет отметку последней активности пользователя
func (r *UserRepo) TouchLastActive(userID uint, at time.Time) error {
	return r.db.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_active_at", at).
		Error
}
