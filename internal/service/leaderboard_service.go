package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// UserRank описывает положение пользователя в дневном лидерборде.
// Ranked=false означает, что пользователь сегодня XP не зарабатывал.
type UserRank struct {
	Ranked       bool  `json:"ranked"`
	Rank         int64 `json:"rank,omitempty"`
	TotalXPToday int64 `json:"today_xp"`
}

// DailyLeaderboard — дневной топ плюс позиция запросившего пользователя
type DailyLeaderboard struct {
	Date string                      `json:"date"`
	Top  []repository.LeaderboardRow `json:"top"`
	Me   UserRank                    `json:"me"`
}

// LeaderboardService строит дневной лидерборд по суточным агрегатам XP.
// Топ кешируется в Redis с коротким TTL и сбрасывается при начислениях.
type LeaderboardService struct {
	dailyXPRepo repository.DailyXPRepository
	cacheRepo   repository.CacheRepository
	config      *EngineConfig
}

// NewLeaderboardService создает новый сервис лидерборда
func NewLeaderboardService(
	dailyXPRepo repository.DailyXPRepository,
	cacheRepo repository.CacheRepository,
	config *EngineConfig,
) *LeaderboardService {
	return &LeaderboardService{
		dailyXPRepo: dailyXPRepo,
		cacheRepo:   cacheRepo,
		config:      config,
	}
}

// GetDaily возвращает топ за указанный день и позицию пользователя.
// Нулевая дата означает сегодня. Лидерборд живет в каноническом часовом
// поясе: в полночь по нему начинается новый день и таблица пуста для всех.
func (s *LeaderboardService) GetDaily(userID uint, date time.Time) (*DailyLeaderboard, error) {
	if date.IsZero() {
		date = s.config.Today()
	} else {
		// Приводим к полуночи канонического пояса независимо от пояса запроса
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.config.Location())
	}

	top, err := s.getTop(date)
	if err != nil {
		return nil, err
	}

	board := &DailyLeaderboard{
		Date: date.Format("2006-01-02"),
		Top:  top,
	}

	rank, xp, err := s.dailyXPRepo.GetUserRank(userID, date)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		// В этот день без XP — вне рейтинга
	} else {
		board.Me = UserRank{Ranked: true, Rank: rank, TotalXPToday: xp}
	}

	return board, nil
}

// GetTop возвращает только топ за сегодня (для WebSocket-рассылки)
func (s *LeaderboardService) GetTop() ([]repository.LeaderboardRow, error) {
	return s.getTop(s.config.Today())
}

func (s *LeaderboardService) getTop(date time.Time) ([]repository.LeaderboardRow, error) {
	key := dailyLeaderboardCacheKey(date)

	var cached []repository.LeaderboardRow
	if err := s.cacheRepo.GetJSON(key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[LeaderboardService] Ошибка чтения кеша лидерборда: %v", err)
	}

	top, err := s.dailyXPRepo.GetLeaderboard(date, s.config.LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if err := s.cacheRepo.SetJSON(key, top, s.config.LeaderboardCacheTTL); err != nil {
		log.Printf("[LeaderboardService] Ошибка записи кеша лидерборда: %v", err)
	}
	return top, nil
}

// dailyLeaderboardCacheKey возвращает ключ кеша топа за дату
func dailyLeaderboardCacheKey(date time.Time) string {
	return fmt.Sprintf("leaderboard:daily:%s", date.Format("2006-01-02"))
}
