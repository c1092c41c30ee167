package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Рилов в одной выдаче ленты по умолчанию
const defaultReelsFeedSize = 10

// ReelsService управляет лентой коротких видео: выдача, прогресс просмотра,
// лайки и циклический сброс каталога.
type ReelsService struct {
	reelRepo repository.ReelRepository
	userRepo repository.UserRepository
	db       *gorm.DB
}

// NewReelsService создает новый сервис ленты рилов
func NewReelsService(reelRepo repository.ReelRepository, userRepo repository.UserRepository, db *gorm.DB) *ReelsService {
	return &ReelsService{
		reelRepo: reelRepo,
		userRepo: userRepo,
		db:       db,
	}
}

// GetFeed возвращает очередную порцию непросмотренных рилов и флаг наличия
// следующей порции. Когда пользователь начал все активные рилы, каталог
// зацикливается: прогресс сбрасывается, но лайки переживают сброс —
// лайкнутые рилы пересоздаются как начатые и в ленту повторно не попадают.
func (s *ReelsService) GetFeed(userID uint, limit int) ([]entity.Reel, bool, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultReelsFeedSize
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE на строках прогресса: два конкурентных запроса ленты
		// не примут решение о сбросе одновременно
		started, err := s.reelRepo.CountStartedActive(tx, userID)
		if err != nil {
			return err
		}
		total, err := s.reelRepo.CountActive()
		if err != nil {
			return err
		}
		if total == 0 || started < total {
			return nil
		}

		heartedIDs, err := s.reelRepo.GetHeartedActiveIDs(tx, userID)
		if err != nil {
			return err
		}
		if err := s.reelRepo.DeleteProgressForActive(tx, userID); err != nil {
			return err
		}

		if len(heartedIDs) > 0 {
			rows := make([]entity.UserReelProgress, 0, len(heartedIDs))
			for _, reelID := range heartedIDs {
				rows = append(rows, entity.UserReelProgress{
					UserID:    userID,
					ReelID:    reelID,
					Status:    entity.ReelProgressStarted,
					IsHearted: true,
				})
			}
			if err := s.reelRepo.CreateProgressBatch(tx, rows); err != nil {
				return err
			}
		}

		log.Printf("[ReelsService] Лента пользователя %d зациклена: сброшено %d рилов, сохранено %d лайков",
			userID, total, len(heartedIDs))
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to cycle reels feed: %w", err)
	}

	// Запрашиваем на один рил больше: лишняя строка означает, что за этой
	// порцией есть следующая
	reels, err := s.reelRepo.GetFeed(userID, limit+1)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(reels) > limit
	if hasMore {
		reels = reels[:limit]
	}
	return reels, hasMore, nil
}

// MarkStarted фиксирует начало просмотра рила. Идемпотентно:
// повторный вызов не увеличивает счетчик просмотров.
func (s *ReelsService) MarkStarted(userID, reelID uint) error {
	reel, err := s.reelRepo.GetByID(reelID)
	if err != nil {
		return err
	}
	if !reel.IsActive {
		return apperrors.ErrNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		progress := &entity.UserReelProgress{
			UserID: userID,
			ReelID: reelID,
			Status: entity.ReelProgressStarted,
		}
		if err := s.reelRepo.CreateProgress(tx, progress); err != nil {
			if errors.Is(err, repository.ErrProgressExists) {
				return nil
			}
			return err
		}
		return s.reelRepo.IncrementViews(tx, reelID)
	})
}

// MarkWatched фиксирует досмотр рила. Идемпотентно: счетчики досмотра
// растут только при первом переходе started -> watched.
func (s *ReelsService) MarkWatched(userID, reelID uint, watchDurationSeconds int) error {
	if watchDurationSeconds < 0 {
		return fmt.Errorf("%w: watch duration cannot be negative", apperrors.ErrValidation)
	}
	if _, err := s.reelRepo.GetByID(reelID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		_, err := s.reelRepo.GetProgressForUpdate(tx, userID, reelID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			// Досмотр без события старта: создаем запись сразу просмотренной
			progress := &entity.UserReelProgress{
				UserID:               userID,
				ReelID:               reelID,
				Status:               entity.ReelProgressWatched,
				WatchDurationSeconds: watchDurationSeconds,
			}
			if err := s.reelRepo.CreateProgress(tx, progress); err != nil {
				if errors.Is(err, repository.ErrProgressExists) {
					return nil
				}
				return err
			}
			if err := s.reelRepo.IncrementViews(tx, reelID); err != nil {
				return err
			}
			if err := s.reelRepo.IncrementCompletions(tx, reelID, watchDurationSeconds); err != nil {
				return err
			}
			return s.userRepo.IncrementVideosWatched(tx, userID)
		}

		marked, err := s.reelRepo.MarkWatched(tx, userID, reelID, watchDurationSeconds)
		if err != nil {
			return err
		}
		if !marked {
			// Уже был досмотрен
			return nil
		}
		// Пожизненный счетчик растет только на первом переходе в watched
		if err := s.reelRepo.IncrementCompletions(tx, reelID, watchDurationSeconds); err != nil {
			return err
		}
		return s.userRepo.IncrementVideosWatched(tx, userID)
	})
}

// ToggleHeart переключает лайк рила и возвращает новое состояние.
// Агрегат total_hearts меняется атомарной дельтой с полом 0.
func (s *ReelsService) ToggleHeart(userID, reelID uint) (bool, error) {
	if _, err := s.reelRepo.GetByID(reelID); err != nil {
		return false, err
	}

	var hearted bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		progress, err := s.reelRepo.GetProgressForUpdate(tx, userID, reelID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			// Лайк до события старта: создаем начатую запись с лайком
			hearted = true
			newProgress := &entity.UserReelProgress{
				UserID:    userID,
				ReelID:    reelID,
				Status:    entity.ReelProgressStarted,
				IsHearted: true,
			}
			if err := s.reelRepo.CreateProgress(tx, newProgress); err != nil {
				return err
			}
			if err := s.reelRepo.IncrementViews(tx, reelID); err != nil {
				return err
			}
			return s.reelRepo.AdjustHearts(tx, reelID, 1)
		}

		hearted = !progress.IsHearted
		if err := s.reelRepo.SetHearted(tx, userID, reelID, hearted); err != nil {
			return err
		}
		delta := 1
		if !hearted {
			delta = -1
		}
		return s.reelRepo.AdjustHearts(tx, reelID, delta)
	})
	if err != nil {
		return false, err
	}
	return hearted, nil
}

// GetReel возвращает рил с его агрегатными счетчиками
func (s *ReelsService) GetReel(reelID uint) (*entity.Reel, error) {
	return s.reelRepo.GetByID(reelID)
}

// GetReelWithState возвращает рил и прогресс пользователя по нему.
// Прогресс nil, если пользователь с рилом еще не взаимодействовал.
func (s *ReelsService) GetReelWithState(userID, reelID uint) (*entity.Reel, *entity.UserReelProgress, error) {
	reel, err := s.reelRepo.GetByID(reelID)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.reelRepo.GetProgress(userID, reelID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return reel, nil, nil
		}
		return nil, nil, err
	}
	return reel, progress, nil
}
