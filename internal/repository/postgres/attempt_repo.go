package postgres

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create создает новую попытку в рамках транзакции старта
func (r *AttemptRepo) Create(tx *gorm.DB, attempt *entity.LevelAttempt) error {
	return tx.Create(attempt).Error
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(id uint) (*entity.LevelAttempt, error) {
	var attempt entity.LevelAttempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetByIDForUpdate читает попытку с блокировкой строки (SELECT ... FOR UPDATE).
// Последующие мутации в той же транзакции защищены от конкурентных писателей.
func (r *AttemptRepo) GetByIDForUpdate(tx *gorm.DB, id uint) (*entity.LevelAttempt, error) {
	var attempt entity.LevelAttempt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetActive возвращает незавершенную попытку пользователя
func (r *AttemptRepo) GetActive(tx *gorm.DB, userID uint) (*entity.LevelAttempt, error) {
	var attempt entity.LevelAttempt
	err := tx.Where("user_id = ? AND completion_status = ?", userID, entity.AttemptStatusInProgress).
		Order("created_at DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// HasNonAbandonedAttempt проверяет наличие не-брошенной попытки на уровне.
// Определяет is_first_attempt при создании новой попытки.
func (r *AttemptRepo) HasNonAbandonedAttempt(tx *gorm.DB, userID uint, level int) (bool, error) {
	var count int64
	err := tx.Model(&entity.LevelAttempt{}).
		Where("user_id = ? AND level = ? AND completion_status <> ?", userID, level, entity.AttemptStatusAbandoned).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLevelBests возвращает агрегаты завершенных попыток пользователя по уровням
func (r *AttemptRepo) GetLevelBests(userID uint) ([]repository.LevelBest, error) {
	query := `
	SELECT level,
	       COUNT(*)                 AS attempts,
	       MAX(accuracy_percentage) AS best_accuracy,
	       MAX(xp_earned_final)     AS best_xp
	FROM level_attempts
	WHERE user_id = ? AND completion_status = ?
	GROUP BY level
	ORDER BY level`

	var bests []repository.LevelBest
	err := r.db.Raw(query, userID, entity.AttemptStatusCompleted).Scan(&bests).Error
	return bests, err
}

// ListByUser возвращает попытки пользователя с пагинацией
func (r *AttemptRepo) ListByUser(userID uint, limit, offset int) ([]entity.LevelAttempt, error) {
	var attempts []entity.LevelAttempt
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	return attempts, err
}

// SaveResponse сохраняет неизменяемый ответ на вопрос.
// Уникальный индекс (attempt_id, question_id) отсекает повторный ответ на тот же вопрос.
func (r *AttemptRepo) SaveResponse(tx *gorm.DB, response *entity.QuestionResponse) error {
	if err := tx.Create(response).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateAnswer
		}
		return err
	}
	return nil
}

// GetResponses возвращает все ответы попытки в порядке создания
func (r *AttemptRepo) GetResponses(attemptID uint) ([]entity.QuestionResponse, error) {
	var responses []entity.QuestionResponse
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("created_at").
		Find(&responses).Error
	return responses, err
}

// ApplyAnswerCounters одним UPDATE применяет ответ к счетчикам попытки.
// Точность пересчитывается от НОВЫХ значений счетчиков на стороне БД,
// а не от прочитанных ранее: это убирает гонку чтение-изменение-запись.
func (r *AttemptRepo) ApplyAnswerCounters(tx *gorm.DB, attemptID uint, isCorrect bool) (*repository.AnswerCounters, error) {
	correctDelta := 0
	if isCorrect {
		correctDelta = 1
	}

	query := `
	UPDATE level_attempts
	SET questions_attempted = questions_attempted + 1,
	    correct_answers     = correct_answers + ?,
	    accuracy_percentage = ROUND((correct_answers + ?) * 100.0 / (questions_attempted + 1), 2),
	    updated_at          = NOW()
	WHERE id = ? AND completion_status = ?
	RETURNING questions_attempted, correct_answers, accuracy_percentage`

	var counters repository.AnswerCounters
	err := tx.Raw(query, correctDelta, correctDelta, attemptID, entity.AttemptStatusInProgress).
		Row().
		Scan(&counters.QuestionsAttempted, &counters.CorrectAnswers, &counters.AccuracyPercentage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Нет строки в RETURNING — попытка уже в терминальном статусе
			return nil, repository.ErrAttemptFinished
		}
		return nil, err
	}

	return &counters, nil
}

// MarkCompleted переводит попытку из in_progress в completed и фиксирует базовый XP.
// Условие по статусу гарантирует, что переход выполняется ровно один раз.
func (r *AttemptRepo) MarkCompleted(tx *gorm.DB, attemptID uint, baseXP int) (bool, error) {
	result := tx.Model(&entity.LevelAttempt{}).
		Where("id = ? AND completion_status = ?", attemptID, entity.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"completion_status": entity.AttemptStatusCompleted,
			"xp_earned_base":    baseXP,
			"xp_earned_final":   baseXP,
			"completed_at":      time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkAbandoned переводит попытку из in_progress в abandoned
func (r *AttemptRepo) MarkAbandoned(tx *gorm.DB, attemptID uint, userID uint) (bool, error) {
	result := tx.Model(&entity.LevelAttempt{}).
		Where("id = ? AND user_id = ? AND completion_status = ?", attemptID, userID, entity.AttemptStatusInProgress).
		Update("completion_status", entity.AttemptStatusAbandoned)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeductLifeline атомарно списывает жизнь с полом 0 и увеличивает lifelines_used
func (r *AttemptRepo) DeductLifeline(tx *gorm.DB, attemptID uint) (int, int, error) {
	query := `
	UPDATE level_attempts
	SET lifelines_remaining = GREATEST(lifelines_remaining - 1, 0),
	    lifelines_used      = lifelines_used + 1,
	    updated_at          = NOW()
	WHERE id = ? AND completion_status = ?
	RETURNING lifelines_remaining, lifelines_used`

	var remaining, used int
	err := tx.Raw(query, attemptID, entity.AttemptStatusInProgress).
		Row().
		Scan(&remaining, &used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, repository.ErrAttemptFinished
		}
		return 0, 0, err
	}

	return remaining, used, nil
}

// RestoreLifelines восстанавливает жизни до указанного количества
func (r *AttemptRepo) RestoreLifelines(tx *gorm.DB, attemptID uint, count int) error {
	result := tx.Model(&entity.LevelAttempt{}).
		Where("id = ? AND completion_status = ?", attemptID, entity.AttemptStatusInProgress).
		UpdateColumn("lifelines_remaining", count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrAttemptFinished
	}
	return nil
}

// MarkVideoWatched помечает бонусное видео просмотренным и фиксирует итоговый XP.
// Условие video_watched = false делает операцию идемпотентной: повтор вернет false.
func (r *AttemptRepo) MarkVideoWatched(tx *gorm.DB, attemptID uint, finalXP int) (bool, error) {
	result := tx.Model(&entity.LevelAttempt{}).
		Where("id = ? AND completion_status = ? AND video_watched = false", attemptID, entity.AttemptStatusCompleted).
		Updates(map[string]interface{}{
			"video_watched":   true,
			"xp_earned_final": finalXP,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
