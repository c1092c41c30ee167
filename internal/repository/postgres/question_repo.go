package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByLevelAndLocale возвращает активные вопросы уровня для локали
func (r *QuestionRepo) GetByLevelAndLocale(level int, locale string, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("level = ? AND locale = ? AND is_active = true", level, locale).
		Order("id").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// GetByLevel возвращает активные вопросы уровня без фильтра по локали
func (r *QuestionRepo) GetByLevel(level int, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("level = ? AND is_active = true", level).
		Order("id").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// CreateBatch сохраняет пакет вопросов (используется импортером каталога)
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}
