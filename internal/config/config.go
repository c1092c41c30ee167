package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/yourusername/examprep-api/internal/service"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Engine   EngineConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	// Используется, если Mode="single" и Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: Максимальное количество попыток переподключения (-1 - бесконечно). По умолчанию 0 (без ретраев).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: Минимальный интервал между попытками (в миллисекундах). По умолчанию 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: Максимальный интервал между попытками (в миллисекундах). По умолчанию 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// EngineConfig содержит настройки игрового движка.
// Нулевые значения заменяются дефолтами при сборке service.EngineConfig.
type EngineConfig struct {
	QuestionsPerLevel      int    `mapstructure:"questions_per_level"`
	MaxLevel               int    `mapstructure:"max_level"`
	LifelinesPerQuiz       int    `mapstructure:"lifelines_per_quiz"`
	ReferralBonusXP        int    `mapstructure:"referral_bonus_xp"`
	DefaultLocale          string `mapstructure:"default_locale"`
	Timezone               string `mapstructure:"timezone"`
	LeaderboardSize        int    `mapstructure:"leaderboard_size"`
	LeaderboardCacheTTLSec int    `mapstructure:"leaderboard_cache_ttl_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ToEngineConfig собирает конфигурацию движка поверх дефолтов:
// заданные в файле/окружении значения перекрывают умолчания
func (e *EngineConfig) ToEngineConfig() *service.EngineConfig {
	cfg := service.DefaultEngineConfig()
	if e.QuestionsPerLevel > 0 {
		cfg.QuestionsPerLevel = e.QuestionsPerLevel
	}
	if e.MaxLevel > 0 {
		cfg.MaxLevel = e.MaxLevel
	}
	if e.LifelinesPerQuiz > 0 {
		cfg.LifelinesPerQuiz = e.LifelinesPerQuiz
	}
	if e.ReferralBonusXP > 0 {
		cfg.ReferralBonusXP = e.ReferralBonusXP
	}
	if e.DefaultLocale != "" {
		cfg.DefaultLocale = e.DefaultLocale
	}
	if e.Timezone != "" {
		cfg.Timezone = e.Timezone
	}
	if e.LeaderboardSize > 0 {
		cfg.LeaderboardSize = e.LeaderboardSize
	}
	if e.LeaderboardCacheTTLSec > 0 {
		cfg.LeaderboardCacheTTL = time.Duration(e.LeaderboardCacheTTLSec) * time.Second
	}
	return cfg
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS") // Для массива строк
	vip.BindEnv("redis.addr", "REDIS_ADDR")   // Для одиночной строки
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	// Привязка для секции Engine
	vip.BindEnv("engine.max_level", "ENGINE_MAX_LEVEL")
	vip.BindEnv("engine.default_locale", "ENGINE_DEFAULT_LOCALE")
	vip.BindEnv("engine.timezone", "ENGINE_TIMEZONE")
	vip.BindEnv("engine.leaderboard_size", "ENGINE_LEADERBOARD_SIZE")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// 2. Устанавливаем путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// 3. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Port: %s", cfg.Database.Port)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Engine Timezone: %s", cfg.Engine.Timezone)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}

	return &cfg, nil
}
