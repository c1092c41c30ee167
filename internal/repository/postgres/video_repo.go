package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// VideoRepo реализует repository.VideoRepository
type VideoRepo struct {
	db *gorm.DB
}

// NewVideoRepo создает новый репозиторий промо-видео
func NewVideoRepo(db *gorm.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

// GetByID возвращает промо-видео по ID
func (r *VideoRepo) GetByID(id uint) (*entity.PromoVideo, error) {
	var video entity.PromoVideo
	err := r.db.First(&video, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// GetActive возвращает активные промо-видео
func (r *VideoRepo) GetActive() ([]entity.PromoVideo, error) {
	var videos []entity.PromoVideo
	err := r.db.Where("is_active = true").Order("id").Find(&videos).Error
	return videos, err
}
