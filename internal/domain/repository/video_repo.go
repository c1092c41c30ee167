package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// VideoRepository определяет методы для чтения каталога промо-видео.
// Каталог read-only: загрузкой видео занимается внешнее хранилище.
type VideoRepository interface {
	GetByID(id uint) (*entity.PromoVideo, error)
	GetActive() ([]entity.PromoVideo, error)
}
