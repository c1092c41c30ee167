package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с каталогом вопросов
type QuestionRepository interface {
	GetByID(id uint) (*entity.Question, error)
	// GetByLevelAndLocale возвращает активные вопросы уровня для указанной локали
	GetByLevelAndLocale(level int, locale string, limit int) ([]entity.Question, error)
	// GetByLevel возвращает активные вопросы уровня без учета локали (последний ярус фолбэка)
	GetByLevel(level int, limit int) ([]entity.Question, error)
	CreateBatch(questions []entity.Question) error
}
