package service

import (
	"log"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// Constants for default values
const (
	DefaultQuestionsPerLevel = entity.QuestionsPerLevel
	DefaultMaxLevel          = 100
	DefaultLifelinesPerQuiz  = 3
	DefaultReferralBonusXP   = 50
	DefaultLeaderboardSize   = 50
	DefaultTimezone          = "Asia/Almaty"
)

// EngineConfig содержит настройки движка прогрессии и наград
type EngineConfig struct {
	// Вопросов в одном уровне
	QuestionsPerLevel int
	// Максимальный уровень (выше открывать нечего)
	MaxLevel int
	// Жизней на одну попытку; восстановление за видео возвращает к этому числу
	LifelinesPerQuiz int
	// Разовый бонус XP за реферал, начисляется обеим сторонам
	ReferralBonusXP int
	// Локаль-фолбэк второго яруса при подборе вопросов
	DefaultLocale string
	// Канонический часовой пояс сервиса: все "сегодня"/"вчера" считаются в нем,
	// а не в часовом поясе клиента
	Timezone string
	// Размер дневного лидерборда
	LeaderboardSize int
	// TTL кеша топа лидерборда
	LeaderboardCacheTTL time.Duration

	location *time.Location
}

// DefaultEngineConfig возвращает конфигурацию по умолчанию
func DefaultEngineConfig() *EngineConfig {
	cfg := &EngineConfig{
		QuestionsPerLevel:   DefaultQuestionsPerLevel,
		MaxLevel:            DefaultMaxLevel,
		LifelinesPerQuiz:    DefaultLifelinesPerQuiz,
		ReferralBonusXP:     DefaultReferralBonusXP,
		DefaultLocale:       "ru",
		Timezone:            DefaultTimezone,
		LeaderboardSize:     DefaultLeaderboardSize,
		LeaderboardCacheTTL: 60 * time.Second,
	}
	return cfg
}

// Location возвращает канонический часовой пояс сервиса.
// При невалидной настройке используется UTC, чтобы не падать на каждом запросе.
func (c *EngineConfig) Location() *time.Location {
	if c.location == nil {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			log.Printf("[EngineConfig] Невалидный часовой пояс '%s', используется UTC: %v", c.Timezone, err)
			loc = time.UTC
		}
		c.location = loc
	}
	return c.location
}

// Today возвращает текущую календарную дату в каноническом поясе (время 00:00:00)
func (c *EngineConfig) Today() time.Time {
	now := time.Now().In(c.Location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location())
}
