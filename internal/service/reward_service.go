package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Notifier получает сигнал об изменении дневного лидерборда.
// Реализуется WebSocket-хабом; в тестах подменяется заглушкой.
type Notifier interface {
	LeaderboardChanged(date time.Time)
}

// RewardService начисляет XP и ведет суточные агрегаты.
// Все начисления проходят через ApplyXP, чтобы xp_total пользователя
// и дневная сводка менялись в одной транзакции.
type RewardService struct {
	userRepo    repository.UserRepository
	attemptRepo repository.AttemptRepository
	videoRepo   repository.VideoRepository
	dailyXPRepo repository.DailyXPRepository
	cacheRepo   repository.CacheRepository
	lifelines   *LifelineManager
	notifier    Notifier
	config      *EngineConfig
	db          *gorm.DB
}

// NewRewardService создает новый сервис наград
func NewRewardService(
	userRepo repository.UserRepository,
	attemptRepo repository.AttemptRepository,
	videoRepo repository.VideoRepository,
	dailyXPRepo repository.DailyXPRepository,
	cacheRepo repository.CacheRepository,
	lifelines *LifelineManager,
	notifier Notifier,
	config *EngineConfig,
	db *gorm.DB,
) *RewardService {
	return &RewardService{
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
		videoRepo:   videoRepo,
		dailyXPRepo: dailyXPRepo,
		cacheRepo:   cacheRepo,
		lifelines:   lifelines,
		notifier:    notifier,
		config:      config,
		db:          db,
	}
}

// ApplyXP начисляет пользователю XP внутри переданной транзакции:
// атомарная дельта к xp_total и upsert суточного агрегата за сегодня.
// Счетчики уровней и видео передаются как дельты (0 — не менять).
func (s *RewardService) ApplyXP(tx *gorm.DB, userID uint, xpDelta int64, levelsDelta, videosDelta int) error {
	if xpDelta > 0 {
		if err := s.userRepo.AddXP(tx, userID, xpDelta); err != nil {
			return fmt.Errorf("failed to add xp to user: %w", err)
		}
	}
	if err := s.dailyXPRepo.AddXP(tx, userID, s.config.Today(), xpDelta, levelsDelta, videosDelta); err != nil {
		return fmt.Errorf("failed to update daily xp summary: %w", err)
	}
	return nil
}

// CompleteVideo засчитывает просмотр бонусного видео для завершенной попытки
// и удваивает ее базовый XP. Операция одноразовая: повторный вызов вернет
// ErrVideoAlreadyWatched независимо от порядка конкурентных запросов.
func (s *RewardService) CompleteVideo(userID, attemptID, videoID uint, watchDurationSeconds int) (*entity.LevelAttempt, error) {
	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		return nil, err
	}

	var attempt *entity.LevelAttempt
	err = s.db.Transaction(func(tx *gorm.DB) error {
		attempt, err = s.attemptRepo.GetByIDForUpdate(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != userID {
			return apperrors.ErrForbidden
		}
		if !attempt.IsCompleted() {
			return ErrQuizNotCompleted
		}
		if attempt.VideoWatched {
			return ErrVideoAlreadyWatched
		}

		if !video.MeetsWatchThreshold(watchDurationSeconds) {
			return &InsufficientWatchTimeError{
				WatchedPercentage:  video.WatchedPercentage(watchDurationSeconds),
				RequiredPercentage: entity.WatchThreshold * 100,
			}
		}

		// Бонус равен базовому XP: итог ровно вдвое больше базы
		bonusXP := attempt.XPEarnedBase
		finalXP := attempt.XPEarnedBase * 2

		marked, err := s.attemptRepo.MarkVideoWatched(tx, attemptID, finalXP)
		if err != nil {
			return fmt.Errorf("failed to mark video watched: %w", err)
		}
		if !marked {
			return ErrVideoAlreadyWatched
		}

		if err := s.ApplyXP(tx, userID, int64(bonusXP), 0, 1); err != nil {
			return err
		}

		attempt.VideoWatched = true
		attempt.XPEarnedFinal = finalXP
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[RewardService] Пользователь %d удвоил XP попытки %d просмотром видео %d (итог: %d XP)",
		userID, attemptID, videoID, attempt.XPEarnedFinal)
	s.publishLeaderboardDirty()
	return attempt, nil
}

// RestoreLifelines восстанавливает жизни идущей попытки до полного запаса
// за просмотр видео. XP не начисляется. Работает только для попыток in_progress.
func (s *RewardService) RestoreLifelines(userID, attemptID, videoID uint, watchDurationSeconds int) (*entity.LevelAttempt, error) {
	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		return nil, err
	}

	var attempt *entity.LevelAttempt
	err = s.db.Transaction(func(tx *gorm.DB) error {
		attempt, err = s.attemptRepo.GetByIDForUpdate(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != userID {
			return apperrors.ErrForbidden
		}

		if !video.MeetsWatchThreshold(watchDurationSeconds) {
			return &InsufficientWatchTimeError{
				WatchedPercentage:  video.WatchedPercentage(watchDurationSeconds),
				RequiredPercentage: entity.WatchThreshold * 100,
			}
		}

		state, err := s.lifelines.Restore(tx, attempt)
		if err != nil {
			return err
		}
		attempt.LifelinesRemaining = state.Remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[RewardService] Пользователь %d восстановил жизни попытки %d до %d",
		userID, attemptID, attempt.LifelinesRemaining)
	return attempt, nil
}

// GetActiveVideos возвращает каталог активных промо-видео
func (s *RewardService) GetActiveVideos() ([]entity.PromoVideo, error) {
	return s.videoRepo.GetActive()
}

// publishLeaderboardDirty сбрасывает кеш дневного топа и будит подписчиков.
// Вызывается после коммита транзакций, меняющих дневной XP.
func (s *RewardService) publishLeaderboardDirty() {
	today := s.config.Today()
	if err := s.cacheRepo.Delete(dailyLeaderboardCacheKey(today)); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[RewardService] Ошибка сброса кеша лидерборда: %v", err)
	}
	if s.notifier != nil {
		s.notifier.LeaderboardChanged(today)
	}
}
