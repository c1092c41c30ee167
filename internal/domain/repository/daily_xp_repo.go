package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// LeaderboardRow представляет одну строку дневного лидерборда
type LeaderboardRow struct {
	Rank         int64  `json:"rank"`
	UserID       uint   `json:"user_id"`
	Name         string `json:"name"`
	TotalXPToday int64  `json:"today_xp"`
}

// DailyXPRepository определяет методы для работы с суточными агрегатами XP
type DailyXPRepository interface {
	// AddXP делает upsert суточного агрегата: вставка при отсутствии строки,
	// иначе дельта-апдейт total_xp_today и счетчиков — на стороне БД.
	AddXP(tx *gorm.DB, userID uint, date time.Time, xpDelta int64, levelsDelta, videosDelta int) error
	GetByUserAndDate(userID uint, date time.Time) (*entity.DailyXPSummary, error)
	// GetLeaderboard возвращает топ строк за дату с рангами.
	// Порядок детерминирован: total_xp_today DESC, updated_at ASC, user_id ASC —
	// при равном XP выше тот, кто раньше его набрал.
	GetLeaderboard(date time.Time, limit int) ([]LeaderboardRow, error)
	// GetUserRank возвращает ранг пользователя за дату: 1 + число пользователей
	// со строго большим XP. Если строки нет, возвращает (0, 0, ErrNotFound из пакета ошибок).
	GetUserRank(userID uint, date time.Time) (rank int64, xp int64, err error)
}
