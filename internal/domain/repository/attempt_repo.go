package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// AnswerCounters содержит счетчики попытки после атомарного применения ответа
type AnswerCounters struct {
	QuestionsAttempted int
	CorrectAnswers     int
	AccuracyPercentage float64
}

// LevelBest — агрегат завершенных попыток пользователя по одному уровню
type LevelBest struct {
	Level        int     `json:"level"`
	Attempts     int     `json:"attempts"`
	BestAccuracy float64 `json:"best_accuracy"`
	BestXP       int     `json:"best_xp"`
}

// AttemptRepository определяет методы для работы с попытками прохождения уровней.
// Методы жизненного цикла принимают транзакцию: старт попытки выполняет
// бросание предыдущей, проверку первой попытки и вставку одним коммитом.
type AttemptRepository interface {
	Create(tx *gorm.DB, attempt *entity.LevelAttempt) error
	GetByID(id uint) (*entity.LevelAttempt, error)
	// GetByIDForUpdate читает попытку с блокировкой строки (SELECT ... FOR UPDATE)
	GetByIDForUpdate(tx *gorm.DB, id uint) (*entity.LevelAttempt, error)
	// GetActive возвращает незавершенную попытку пользователя, если она есть
	GetActive(tx *gorm.DB, userID uint) (*entity.LevelAttempt, error)
	// HasNonAbandonedAttempt проверяет наличие завершенной или идущей попытки на уровне.
	// Брошенные попытки не учитываются при определении is_first_attempt.
	HasNonAbandonedAttempt(tx *gorm.DB, userID uint, level int) (bool, error)
	ListByUser(userID uint, limit, offset int) ([]entity.LevelAttempt, error)
	// GetLevelBests возвращает агрегаты завершенных попыток по уровням
	GetLevelBests(userID uint) ([]LevelBest, error)

	// SaveResponse сохраняет неизменяемый ответ на вопрос.
	// Повторный ответ на тот же вопрос той же попытки возвращает ErrDuplicateAnswer.
	SaveResponse(tx *gorm.DB, response *entity.QuestionResponse) error
	GetResponses(attemptID uint) ([]entity.QuestionResponse, error)

	// ApplyAnswerCounters одним UPDATE применяет ответ к счетчикам попытки и
	// пересчитывает точность от новых значений. Возвращает ErrAttemptFinished,
	// если попытка уже в терминальном статусе.
	ApplyAnswerCounters(tx *gorm.DB, attemptID uint, isCorrect bool) (*AnswerCounters, error)

	// MarkCompleted переводит попытку из in_progress в completed и фиксирует базовый XP.
	// Возвращает false, если попытка уже была в терминальном статусе.
	MarkCompleted(tx *gorm.DB, attemptID uint, baseXP int) (bool, error)
	// MarkAbandoned переводит попытку из in_progress в abandoned.
	// Возвращает false, если попытка уже была в терминальном статусе.
	MarkAbandoned(tx *gorm.DB, attemptID uint, userID uint) (bool, error)

	// DeductLifeline атомарно списывает жизнь (с полом 0) и увеличивает lifelines_used
	DeductLifeline(tx *gorm.DB, attemptID uint) (remaining int, used int, err error)
	// RestoreLifelines восстанавливает жизни до указанного количества
	RestoreLifelines(tx *gorm.DB, attemptID uint, count int) error

	// MarkVideoWatched помечает бонусное видео просмотренным и фиксирует удвоенный XP.
	// Возвращает false, если видео уже было засчитано для этой попытки.
	MarkVideoWatched(tx *gorm.DB, attemptID uint, finalXP int) (bool, error)
}
