package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// LifelineState — снимок жизней попытки после операции
type LifelineState struct {
	Remaining int `json:"remaining"`
	Used      int `json:"used"`
	// OfferRestore подсказывает клиенту показать предложение восстановить
	// жизни за просмотр видео
	OfferRestore bool `json:"offer_restore"`
}

// LifelineManager управляет жизнями попытки. Жизни не блокируют прохождение:
// попытка продолжается и при нуле, ноль лишь включает предложение восстановления.
type LifelineManager struct {
	attemptRepo repository.AttemptRepository
	config      *EngineConfig
}

// NewLifelineManager создает новый менеджер жизней
func NewLifelineManager(attemptRepo repository.AttemptRepository, config *EngineConfig) *LifelineManager {
	return &LifelineManager{
		attemptRepo: attemptRepo,
		config:      config,
	}
}

// Deduct списывает жизнь за неверный ответ внутри транзакции вызывающего.
// Списание атомарное с полом 0: конкурентные ответы не уведут счетчик в минус.
func (m *LifelineManager) Deduct(tx *gorm.DB, attemptID uint) (*LifelineState, error) {
	remaining, used, err := m.attemptRepo.DeductLifeline(tx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptFinished) {
			return nil, ErrAttemptFinished
		}
		return nil, fmt.Errorf("failed to deduct lifeline: %w", err)
	}
	return &LifelineState{
		Remaining:    remaining,
		Used:         used,
		OfferRestore: remaining == 0,
	}, nil
}

// Restore восстанавливает жизни до полного запаса за досмотренное видео.
// XP за восстановление не начисляется. Вызывается внутри транзакции,
// валидация порога просмотра — на вызывающем.
func (m *LifelineManager) Restore(tx *gorm.DB, attempt *entity.LevelAttempt) (*LifelineState, error) {
	if !attempt.IsInProgress() {
		return nil, ErrAttemptFinished
	}
	if err := m.attemptRepo.RestoreLifelines(tx, attempt.ID, m.config.LifelinesPerQuiz); err != nil {
		return nil, fmt.Errorf("failed to restore lifelines: %w", err)
	}
	log.Printf("[LifelineManager] Жизни попытки %d восстановлены до %d", attempt.ID, m.config.LifelinesPerQuiz)
	return &LifelineState{
		Remaining: m.config.LifelinesPerQuiz,
		Used:      attempt.LifelinesUsed,
	}, nil
}
