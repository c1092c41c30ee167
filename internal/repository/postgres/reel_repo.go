package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// ReelRepo реализует repository.ReelRepository
type ReelRepo struct {
	db *gorm.DB
}

// NewReelRepo создает новый репозиторий рилов
func NewReelRepo(db *gorm.DB) *ReelRepo {
	return &ReelRepo{db: db}
}

// GetByID возвращает рил по ID
func (r *ReelRepo) GetByID(id uint) (*entity.Reel, error) {
	var reel entity.Reel
	err := r.db.First(&reel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &reel, nil
}

// GetFeed возвращает активные рилы, которых нет в прогрессе пользователя,
// от новых к старым
func (r *ReelRepo) GetFeed(userID uint, limit int) ([]entity.Reel, error) {
	var reels []entity.Reel
	err := r.db.Where("is_active = true").
		Where("id NOT IN (SELECT reel_id FROM user_reel_progress WHERE user_id = ?)", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&reels).Error
	return reels, err
}

// CountActive возвращает количество активных рилов
func (r *ReelRepo) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&entity.Reel{}).Where("is_active = true").Count(&count).Error
	return count, err
}

// CountStartedActive считает начатые пользователем активные рилы, удерживая
// FOR UPDATE на его строках прогресса. Два конкурентных запроса ленты
// сериализуются здесь и не могут оба решить "каталог исчерпан".
func (r *ReelRepo) CountStartedActive(tx *gorm.DB, userID uint) (int64, error) {
	sql := `
	SELECT COUNT(*) FROM (
	    SELECT p.id
	    FROM user_reel_progress p
	    JOIN reels r ON r.id = p.reel_id
	    WHERE p.user_id = ? AND r.is_active = true
	    FOR UPDATE OF p
	) locked`

	var count int64
	err := tx.Raw(sql, userID).Scan(&count).Error
	return count, err
}

// GetHeartedActiveIDs возвращает ID лайкнутых пользователем активных рилов
func (r *ReelRepo) GetHeartedActiveIDs(tx *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	sql := `
	SELECT p.reel_id
	FROM user_reel_progress p
	JOIN reels r ON r.id = p.reel_id
	WHERE p.user_id = ? AND p.is_hearted = true AND r.is_active = true`

	err := tx.Raw(sql, userID).Scan(&ids).Error
	return ids, err
}

// DeleteProgressForActive удаляет прогресс пользователя по активным рилам
func (r *ReelRepo) DeleteProgressForActive(tx *gorm.DB, userID uint) error {
	return tx.Exec(
		"DELETE FROM user_reel_progress WHERE user_id = ? AND reel_id IN (SELECT id FROM reels WHERE is_active = true)",
		userID,
	).Error
}

// CreateProgressBatch вставляет пакет строк прогресса
func (r *ReelRepo) CreateProgressBatch(tx *gorm.DB, rows []entity.UserReelProgress) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// GetProgress возвращает прогресс пользователя по рилу
func (r *ReelRepo) GetProgress(userID, reelID uint) (*entity.UserReelProgress, error) {
	var progress entity.UserReelProgress
	err := r.db.Where("user_id = ? AND reel_id = ?", userID, reelID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// GetProgressForUpdate читает прогресс с блокировкой строки
func (r *ReelRepo) GetProgressForUpdate(tx *gorm.DB, userID, reelID uint) (*entity.UserReelProgress, error) {
	var progress entity.UserReelProgress
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND reel_id = ?", userID, reelID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// CreateProgress вставляет строку прогресса.
// Уникальный индекс (user_id, reel_id) отсекает дубликаты при гонке.
func (r *ReelRepo) CreateProgress(tx *gorm.DB, progress *entity.UserReelProgress) error {
	if err := tx.Create(progress).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrProgressExists
		}
		return err
	}
	return nil
}

// MarkWatched переводит прогресс из started в watched.
// Условие по статусу делает операцию идемпотентной: повтор вернет false.
func (r *ReelRepo) MarkWatched(tx *gorm.DB, userID, reelID uint, watchDurationSeconds int) (bool, error) {
	result := tx.Model(&entity.UserReelProgress{}).
		Where("user_id = ? AND reel_id = ? AND status = ?", userID, reelID, entity.ReelProgressStarted).
		Updates(map[string]interface{}{
			"status":                 entity.ReelProgressWatched,
			"watch_duration_seconds": watchDurationSeconds,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetHearted устанавливает флаг лайка для пары (user, reel)
func (r *ReelRepo) SetHearted(tx *gorm.DB, userID, reelID uint, hearted bool) error {
	return tx.Model(&entity.UserReelProgress{}).
		Where("user_id = ? AND reel_id = ?", userID, reelID).
		UpdateColumn("is_hearted", hearted).
		Error
}

// IncrementViews атомарно увеличивает total_views
func (r *ReelRepo) IncrementViews(tx *gorm.DB, reelID uint) error {
	return tx.Model(&entity.Reel{}).
		Where("id = ?", reelID).
		UpdateColumn("total_views", gorm.Expr("total_views + ?", 1)).
		Error
}

// IncrementCompletions атомарно увеличивает счетчики досмотра
func (r *ReelRepo) IncrementCompletions(tx *gorm.DB, reelID uint, watchSeconds int) error {
	return tx.Model(&entity.Reel{}).
		Where("id = ?", reelID).
		UpdateColumns(map[string]interface{}{
			"total_completions":        gorm.Expr("total_completions + ?", 1),
			"total_watch_time_seconds": gorm.Expr("total_watch_time_seconds + ?", watchSeconds),
		}).Error
}

// AdjustHearts изменяет total_hearts на delta с полом 0
func (r *ReelRepo) AdjustHearts(tx *gorm.DB, reelID uint, delta int) error {
	return tx.Model(&entity.Reel{}).
		Where("id = ?", reelID).
		UpdateColumn("total_hearts", gorm.Expr("GREATEST(total_hearts + ?, 0)", delta)).
		Error
}
