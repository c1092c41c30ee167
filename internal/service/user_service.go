package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Поддерживаемые локали интерфейса и каталога вопросов
var supportedLocales = map[string]bool{
	"ru": true,
	"kk": true,
	"en": true,
}

// UserProfile — агрегированный профиль для экрана "я"
type UserProfile struct {
	User          *entity.User              `json:"user"`
	Streak        *entity.StreakRecord      `json:"streak"`
	TodayXP       int64                     `json:"today_xp"`
	ReferralStats *repository.ReferralStats `json:"referral_stats"`
}

// UserService управляет аккаунтами и агрегированным профилем
type UserService struct {
	userRepo    repository.UserRepository
	dailyXPRepo repository.DailyXPRepository
	streakSvc   *StreakService
	referralSvc *ReferralService
	config      *EngineConfig
	db          *gorm.DB
}

// NewUserService создает новый сервис пользователей
func NewUserService(
	userRepo repository.UserRepository,
	dailyXPRepo repository.DailyXPRepository,
	streakSvc *StreakService,
	referralSvc *ReferralService,
	config *EngineConfig,
	db *gorm.DB,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		dailyXPRepo: dailyXPRepo,
		streakSvc:   streakSvc,
		referralSvc: referralSvc,
		config:      config,
		db:          db,
	}
}

// Register создает аккаунт по номеру телефона: генерирует уникальный
// реферальный код и применяет код пригласившего, если он передан.
// Невалидный чужой код отклоняет регистрацию целиком, до создания строки.
func (s *UserService) Register(phone, name, locale, referralCode string) (*entity.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", apperrors.ErrValidation)
	}
	if locale == "" {
		locale = s.config.DefaultLocale
	}
	if !supportedLocales[locale] {
		return nil, fmt.Errorf("%w: unsupported locale %q", apperrors.ErrValidation, locale)
	}

	if _, err := s.userRepo.GetByPhone(phone); err == nil {
		return nil, fmt.Errorf("%w: phone already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// Код пригласившего проверяем до создания аккаунта: ошибка здесь
	// не должна оставлять полусозданного пользователя
	referralCode = strings.TrimSpace(referralCode)
	if referralCode != "" {
		if _, err := s.referralSvc.ResolveReferrer(0, referralCode); err != nil {
			return nil, err
		}
	}

	ownCode, err := s.referralSvc.GenerateUniqueCode()
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Phone:        phone,
		Name:         strings.TrimSpace(name),
		Locale:       locale,
		CurrentLevel: 1,
		ReferralCode: ownCode,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if referralCode != "" {
		if err := s.referralSvc.Apply(user.ID, referralCode); err != nil {
			// Аккаунт уже создан; бонус не начислен — логируем и не роняем регистрацию
			log.Printf("[UserService] Ошибка применения реферального кода %s для пользователя %d: %v",
				referralCode, user.ID, err)
		} else {
			user.ReferredBy = &referralCode
		}
	}

	log.Printf("[UserService] Зарегистрирован пользователь %d (код %s)", user.ID, ownCode)
	return user, nil
}

// GetProfile собирает агрегированный профиль: XP, уровень, серия,
// сегодняшний XP и реферальная статистика.
func (s *UserService) GetProfile(userID uint) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	streak, err := s.streakSvc.GetStreak(userID)
	if err != nil {
		return nil, err
	}

	var todayXP int64
	summary, err := s.dailyXPRepo.GetByUserAndDate(userID, s.config.Today())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	} else {
		todayXP = summary.TotalXPToday
	}

	stats, err := s.referralSvc.GetStats(userID)
	if err != nil {
		return nil, err
	}

	return &UserProfile{
		User:          user,
		Streak:        streak,
		TodayXP:       todayXP,
		ReferralStats: stats,
	}, nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile обновляет имя и локаль пользователя
func (s *UserService) UpdateProfile(userID uint, name, locale string) (*entity.User, error) {
	updates := map[string]interface{}{}
	if name = strings.TrimSpace(name); name != "" {
		updates["name"] = name
	}
	if locale != "" {
		if !supportedLocales[locale] {
			return nil, fmt.Errorf("%w: unsupported locale %q", apperrors.ErrValidation, locale)
		}
		updates["locale"] = locale
	}
	if len(updates) > 0 {
		if err := s.userRepo.UpdateProfile(s.db, userID, updates); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(userID)
}
