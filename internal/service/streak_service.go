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

// StreakService ведет серии последовательных дней активности.
// Днем активности считается день завершения уровня в каноническом
// часовом поясе сервиса, а не в поясе клиента.
type StreakService struct {
	streakRepo repository.StreakRepository
	cacheRepo  repository.CacheRepository
	config     *EngineConfig
	db         *gorm.DB
}

// NewStreakService создает новый сервис серий
func NewStreakService(
	streakRepo repository.StreakRepository,
	cacheRepo repository.CacheRepository,
	config *EngineConfig,
	db *gorm.DB,
) *StreakService {
	return &StreakService{
		streakRepo: streakRepo,
		cacheRepo:  cacheRepo,
		config:     config,
		db:         db,
	}
}

// TouchDaily фиксирует активность с дешевым коротким замыканием через Redis:
// первая фиксация за день идет в БД, остальные отсекаются по SetNX.
// При недоступном Redis просто идем в БД — там же no-op на повторе.
func (s *StreakService) TouchDaily(userID uint) {
	key := fmt.Sprintf("streak:touched:%d:%s", userID, s.config.Today().Format("2006-01-02"))
	set, err := s.cacheRepo.SetNX(key, 1, 26*time.Hour)
	if err == nil && !set {
		return
	}
	if _, err := s.UpdateOnActivity(userID); err != nil {
		log.Printf("[StreakService] Ошибка фиксации активности пользователя %d: %v", userID, err)
		// Снимаем отметку, чтобы следующий запрос повторил запись в БД
		if delErr := s.cacheRepo.Delete(key); delErr != nil {
			log.Printf("[StreakService] Ошибка снятия отметки активности: %v", delErr)
		}
	}
}

// UpdateOnActivity фиксирует активность пользователя за сегодня.
// Повторные вызовы в один день — no-op; пропуск хотя бы одного дня
// сбрасывает текущую серию до 1. Запись блокируется FOR UPDATE,
// поэтому два конкурентных завершения уровня не удлинят серию дважды.
func (s *StreakService) UpdateOnActivity(userID uint) (*entity.StreakRecord, error) {
	var record *entity.StreakRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		today := s.config.Today()

		existing, err := s.streakRepo.GetByUserForUpdate(tx, userID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			record = &entity.StreakRecord{
				UserID:           userID,
				CurrentStreak:    1,
				LongestStreak:    1,
				LastActivityDate: &today,
			}
			return s.streakRepo.Create(tx, record)
		}

		record = existing
		if record.LastActivityDate != nil {
			// Колонка DATE приходит от драйвера как полночь UTC. Конвертация
			// через часовой пояс сдвинула бы календарный день назад, поэтому
			// берем компоненты даты как есть и прикрепляем канонический пояс.
			last := *record.LastActivityDate
			lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, today.Location())
			switch {
			case lastDay.Equal(today):
				// Уже отмечено за сегодня
				return nil
			case lastDay.Equal(today.AddDate(0, 0, -1)):
				record.CurrentStreak++
			default:
				record.CurrentStreak = 1
			}
		} else {
			record.CurrentStreak = 1
		}

		if record.CurrentStreak > record.LongestStreak {
			record.LongestStreak = record.CurrentStreak
		}
		record.LastActivityDate = &today

		return s.streakRepo.Update(tx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	log.Printf("[StreakService] Серия пользователя %d: текущая %d, рекорд %d",
		userID, record.CurrentStreak, record.LongestStreak)
	return record, nil
}

// GetStreak возвращает серию пользователя. Если активности еще не было,
// возвращается нулевая запись, а не ошибка.
func (s *StreakService) GetStreak(userID uint) (*entity.StreakRecord, error) {
	record, err := s.streakRepo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &entity.StreakRecord{UserID: userID}, nil
		}
		return nil, err
	}
	return record, nil
}
