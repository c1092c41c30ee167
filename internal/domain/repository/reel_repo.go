package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// ReelRepository определяет методы для работы с лентой рилов
type ReelRepository interface {
	GetByID(id uint) (*entity.Reel, error)
	// GetFeed возвращает активные рилы, которые пользователь еще не начинал,
	// от новых к старым
	GetFeed(userID uint, limit int) ([]entity.Reel, error)
	CountActive() (int64, error)
	// CountStartedActive считает начатые пользователем активные рилы,
	// удерживая блокировку его строк прогресса (FOR UPDATE) на время транзакции.
	// Блокировка защищает решение "каталог исчерпан — сбрасываем" от гонки
	// двух конкурентных запросов ленты.
	CountStartedActive(tx *gorm.DB, userID uint) (int64, error)
	// GetHeartedActiveIDs возвращает ID лайкнутых активных рилов пользователя
	GetHeartedActiveIDs(tx *gorm.DB, userID uint) ([]uint, error)
	// DeleteProgressForActive удаляет прогресс пользователя по активным рилам
	DeleteProgressForActive(tx *gorm.DB, userID uint) error
	CreateProgressBatch(tx *gorm.DB, rows []entity.UserReelProgress) error

	GetProgress(userID, reelID uint) (*entity.UserReelProgress, error)
	GetProgressForUpdate(tx *gorm.DB, userID, reelID uint) (*entity.UserReelProgress, error)
	// CreateProgress вставляет строку прогресса; дубликат по (user_id, reel_id)
	// возвращается как ErrProgressExists
	CreateProgress(tx *gorm.DB, progress *entity.UserReelProgress) error
	// MarkWatched переводит прогресс из started в watched и фиксирует длительность.
	// Возвращает false, если рил уже был досмотрен (идемпотентность).
	MarkWatched(tx *gorm.DB, userID, reelID uint, watchDurationSeconds int) (bool, error)
	SetHearted(tx *gorm.DB, userID, reelID uint, hearted bool) error

	// Атомарные дельта-апдейты агрегатных счетчиков рила
	IncrementViews(tx *gorm.DB, reelID uint) error
	IncrementCompletions(tx *gorm.DB, reelID uint, watchSeconds int) error
	// AdjustHearts изменяет total_hearts на delta с полом 0
	AdjustHearts(tx *gorm.DB, reelID uint, delta int) error
}
