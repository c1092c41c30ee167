package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Попыток подобрать свободный реферальный код
const referralCodeAttempts = 5

// ReferralService управляет реферальными кодами и разовыми бонусами.
// Инвариант "один реферал на пользователя за все время" держит уникальный
// индекс по referee_id, предварительные проверки — только быстрый отказ.
type ReferralService struct {
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
	rewardSvc    *RewardService
	config       *EngineConfig
	db           *gorm.DB
}

// NewReferralService создает новый реферальный сервис
func NewReferralService(
	userRepo repository.UserRepository,
	referralRepo repository.ReferralRepository,
	rewardSvc *RewardService,
	config *EngineConfig,
	db *gorm.DB,
) *ReferralService {
	return &ReferralService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		rewardSvc:    rewardSvc,
		config:       config,
		db:           db,
	}
}

// GenerateUniqueCode подбирает свободный 5-значный цифровой код.
// Коллизии маловероятны, но проверяем и пробуем заново.
func (s *ReferralService) GenerateUniqueCode() (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := randomDigits(5)
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}
		_, err = s.userRepo.GetByReferralCode(code)
		if errors.Is(err, apperrors.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("failed to generate unique referral code")
}

// ResolveReferrer возвращает владельца кода и валидирует применимость кода
// к пользователю refereeID без записи в БД. Используется для быстрого отказа
// до создания аккаунта.
func (s *ReferralService) ResolveReferrer(refereeID uint, code string) (*entity.User, error) {
	referrer, err := s.userRepo.GetByReferralCode(strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, err
	}
	if referrer.ID == refereeID {
		return nil, ErrSelfReferralNotAllowed
	}
	return referrer, nil
}

// Apply применяет реферальный код: создает запись и начисляет разовый бонус
// обеим сторонам в одной транзакции. Пустой код — no-op.
// Гонку двух одновременных применений разрешает уникальный индекс:
// проигравшая транзакция откатывается целиком вместе с начислениями.
func (s *ReferralService) Apply(refereeID uint, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	referrer, err := s.ResolveReferrer(refereeID, code)
	if err != nil {
		return err
	}

	// Быстрый отказ; настоящая защита — уникальный индекс по referee_id
	exists, err := s.referralRepo.ExistsForReferee(refereeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyReferred
	}

	bonus := s.config.ReferralBonusXP
	err = s.db.Transaction(func(tx *gorm.DB) error {
		record := &entity.ReferralRecord{
			ReferrerID: referrer.ID,
			RefereeID:  refereeID,
			CodeUsed:   code,
			XPGranted:  bonus,
			Status:     entity.ReferralStatusActive,
		}
		if err := s.referralRepo.Create(tx, record); err != nil {
			if errors.Is(err, repository.ErrRefereeAlreadyReferred) {
				return ErrAlreadyReferred
			}
			return err
		}

		if err := s.rewardSvc.ApplyXP(tx, referrer.ID, int64(bonus), 0, 0); err != nil {
			return err
		}
		if err := s.rewardSvc.ApplyXP(tx, refereeID, int64(bonus), 0, 0); err != nil {
			return err
		}

		// Денормализованная пометка на самом пользователе — тем же коммитом,
		// что и запись о реферале с начислениями
		return s.userRepo.UpdateProfile(tx, refereeID, map[string]interface{}{"referred_by": code})
	})
	if err != nil {
		return err
	}

	log.Printf("[ReferralService] Пользователь %d приглашен пользователем %d по коду %s (+%d XP обоим)",
		refereeID, referrer.ID, code, bonus)
	s.rewardSvc.publishLeaderboardDirty()
	return nil
}

// GetStats возвращает реферальную статистику пользователя
func (s *ReferralService) GetStats(referrerID uint) (*repository.ReferralStats, error) {
	return s.referralRepo.GetStatsByReferrer(referrerID)
}

// randomDigits возвращает строку из n криптослучайных цифр
func randomDigits(n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
