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

// AnswerResult содержит итог обработки одного ответа
type AnswerResult struct {
	IsCorrect          bool   `json:"is_correct"`
	CorrectOption      int    `json:"correct_option"`
	Explanation        string `json:"explanation,omitempty"`
	LifelinesRemaining int    `json:"lifelines_remaining"`
	OfferRestore       bool   `json:"offer_restore"`
	QuestionsAttempted int    `json:"questions_attempted"`
	CorrectAnswers     int    `json:"correct_answers"`

	// Поля ниже заполняются только при завершении попытки десятым ответом
	Completed          bool                 `json:"completed"`
	Attempt            *entity.LevelAttempt `json:"attempt,omitempty"`
	XPEarned           int                  `json:"xp_earned,omitempty"`
	UnlockedLevel      int                  `json:"unlocked_level,omitempty"`
	VideoBonusEligible bool                 `json:"video_bonus_eligible,omitempty"`
}

// AttemptService управляет жизненным циклом попыток прохождения уровней:
// старт, ответы, завершение, брошенные попытки.
type AttemptService struct {
	userRepo     repository.UserRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	rewardSvc    *RewardService
	streakSvc    *StreakService
	lifelines    *LifelineManager
	config       *EngineConfig
	db           *gorm.DB
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	rewardSvc *RewardService,
	streakSvc *StreakService,
	lifelines *LifelineManager,
	config *EngineConfig,
	db *gorm.DB,
) *AttemptService {
	return &AttemptService{
		userRepo:     userRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		rewardSvc:    rewardSvc,
		streakSvc:    streakSvc,
		lifelines:    lifelines,
		config:       config,
		db:           db,
	}
}

// StartAttempt начинает новую попытку прохождения уровня.
// Если у пользователя есть незавершенная попытка, она помечается брошенной:
// активной может быть не больше одной попытки.
func (s *AttemptService) StartAttempt(userID uint, level int) (*entity.LevelAttempt, []entity.Question, error) {
	if level < 1 || level > s.config.MaxLevel {
		return nil, nil, fmt.Errorf("%w: level must be between 1 and %d", apperrors.ErrValidation, s.config.MaxLevel)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}
	if !user.CanAccessLevel(level) {
		return nil, nil, &LevelLockedError{RequestedLevel: level, CurrentLevel: user.CurrentLevel}
	}

	questions, err := s.pickQuestions(level, user.Locale)
	if err != nil {
		return nil, nil, err
	}

	// Бросание предыдущей попытки, проверка первой попытки и вставка новой
	// идут одним коммитом: если вставка не прошла (например, конкурентный
	// старт успел раньше), предыдущая попытка остается активной.
	var attempt *entity.LevelAttempt
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if active, err := s.attemptRepo.GetActive(tx, userID); err == nil {
			if _, err := s.attemptRepo.MarkAbandoned(tx, active.ID, userID); err != nil {
				return fmt.Errorf("failed to abandon previous attempt: %w", err)
			}
			log.Printf("[AttemptService] Попытка %d пользователя %d брошена из-за старта новой", active.ID, userID)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		// Первая попытка — если на уровне еще нет завершенных или идущих попыток.
		// Брошенные не в счет: за них XP не начислялся.
		hasAttempt, err := s.attemptRepo.HasNonAbandonedAttempt(tx, userID, level)
		if err != nil {
			return err
		}

		attempt = &entity.LevelAttempt{
			UserID:             userID,
			Level:              level,
			IsFirstAttempt:     !hasAttempt,
			LifelinesRemaining: s.config.LifelinesPerQuiz,
			CompletionStatus:   entity.AttemptStatusInProgress,
		}
		if err := s.attemptRepo.Create(tx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.TouchLastActive(userID, s.config.Today()); err != nil {
		log.Printf("[AttemptService] Ошибка обновления last_active_at пользователя %d: %v", userID, err)
	}

	log.Printf("[AttemptService] Пользователь %d начал уровень %d (попытка %d, первая: %v)",
		userID, level, attempt.ID, attempt.IsFirstAttempt)
	return attempt, questions, nil
}

// pickQuestions подбирает вопросы уровня по ярусам локалей:
// локаль пользователя -> локаль по умолчанию -> любая локаль.
func (s *AttemptService) pickQuestions(level int, locale string) ([]entity.Question, error) {
	questions, err := s.questionRepo.GetByLevelAndLocale(level, locale, s.config.QuestionsPerLevel)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 && locale != s.config.DefaultLocale {
		questions, err = s.questionRepo.GetByLevelAndLocale(level, s.config.DefaultLocale, s.config.QuestionsPerLevel)
		if err != nil {
			return nil, err
		}
	}
	if len(questions) == 0 {
		questions, err = s.questionRepo.GetByLevel(level, s.config.QuestionsPerLevel)
		if err != nil {
			return nil, err
		}
	}
	if len(questions) == 0 {
		return nil, ErrQuestionsNotFound
	}
	return questions, nil
}

// AnswerQuestion обрабатывает ответ на вопрос попытки в одной транзакции:
// сохраняет неизменяемый ответ, атомарно двигает счетчики, списывает жизнь
// за ошибку и завершает попытку, когда отвечен последний вопрос.
// Десятый ответ завершает попытку ровно один раз при любой конкуренции.
func (s *AttemptService) AnswerQuestion(userID, attemptID, questionID uint, chosenOption, timeTakenSeconds int) (*AnswerResult, error) {
	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}
	if !question.IsValidOption(chosenOption) {
		return nil, fmt.Errorf("%w: option must be between 1 and %d", apperrors.ErrValidation, question.OptionsCount())
	}

	var result *AnswerResult
	var completed bool

	err = s.db.Transaction(func(tx *gorm.DB) error {
		attempt, err := s.attemptRepo.GetByIDForUpdate(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != userID {
			return apperrors.ErrForbidden
		}
		if attempt.IsTerminal() {
			return ErrAttemptFinished
		}
		if question.Level != attempt.Level {
			return fmt.Errorf("%w: question does not belong to this level", apperrors.ErrValidation)
		}

		isCorrect := question.IsCorrect(chosenOption)

		response := &entity.QuestionResponse{
			AttemptID:        attemptID,
			QuestionID:       questionID,
			ChosenOption:     chosenOption,
			IsCorrect:        isCorrect,
			TimeTakenSeconds: timeTakenSeconds,
		}
		if err := s.attemptRepo.SaveResponse(tx, response); err != nil {
			return err
		}

		counters, err := s.attemptRepo.ApplyAnswerCounters(tx, attemptID, isCorrect)
		if err != nil {
			if errors.Is(err, repository.ErrAttemptFinished) {
				return ErrAttemptFinished
			}
			return err
		}

		remaining := attempt.LifelinesRemaining
		offerRestore := false
		if !isCorrect {
			state, err := s.lifelines.Deduct(tx, attemptID)
			if err != nil {
				return err
			}
			remaining = state.Remaining
			offerRestore = state.OfferRestore
		}

		result = &AnswerResult{
			IsCorrect:          isCorrect,
			CorrectOption:      question.CorrectOption,
			Explanation:        question.Explanation,
			LifelinesRemaining: remaining,
			OfferRestore:       offerRestore,
			QuestionsAttempted: counters.QuestionsAttempted,
			CorrectAnswers:     counters.CorrectAnswers,
		}

		if counters.QuestionsAttempted >= s.config.QuestionsPerLevel {
			return s.completeAttempt(tx, attempt, counters, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	completed = result.Completed
	if completed {
		// Завершение уровня — дневная активность: серия и лидерборд
		if _, err := s.streakSvc.UpdateOnActivity(userID); err != nil {
			log.Printf("[AttemptService] Ошибка обновления серии пользователя %d: %v", userID, err)
		}
		s.rewardSvc.publishLeaderboardDirty()
	}
	return result, nil
}

// completeAttempt переводит попытку в completed, начисляет базовый XP
// и открывает следующий уровень, если попытка проходит порог.
// Вызывается внутри транзакции ответа.
func (s *AttemptService) completeAttempt(tx *gorm.DB, attempt *entity.LevelAttempt, counters *repository.AnswerCounters, result *AnswerResult) error {
	baseXP := counters.CorrectAnswers * attempt.XPPerCorrect()

	marked, err := s.attemptRepo.MarkCompleted(tx, attempt.ID, baseXP)
	if err != nil {
		return fmt.Errorf("failed to complete attempt: %w", err)
	}
	if !marked {
		// Конкурентный запрос уже завершил попытку — XP начислен там
		return ErrAttemptFinished
	}

	if err := s.rewardSvc.ApplyXP(tx, attempt.UserID, int64(baseXP), 1, 0); err != nil {
		return err
	}

	result.Completed = true
	result.XPEarned = baseXP
	result.VideoBonusEligible = baseXP > 0

	// Разблокировка: первая попытка с точностью не ниже порога открывает
	// следующий уровень. PromoteLevel монотонен: уровень никогда не понижается.
	accuracySnapshot := *attempt
	accuracySnapshot.AccuracyPercentage = counters.AccuracyPercentage
	nextLevel := attempt.Level + 1
	if accuracySnapshot.QualifiesForUnlock() && nextLevel <= s.config.MaxLevel {
		if err := s.userRepo.PromoteLevel(tx, attempt.UserID, nextLevel); err != nil {
			return fmt.Errorf("failed to promote level: %w", err)
		}
		result.UnlockedLevel = nextLevel
	}

	completedCopy := *attempt
	completedCopy.QuestionsAttempted = counters.QuestionsAttempted
	completedCopy.CorrectAnswers = counters.CorrectAnswers
	completedCopy.AccuracyPercentage = counters.AccuracyPercentage
	completedCopy.XPEarnedBase = baseXP
	completedCopy.XPEarnedFinal = baseXP
	completedCopy.CompletionStatus = entity.AttemptStatusCompleted
	result.Attempt = &completedCopy

	log.Printf("[AttemptService] Пользователь %d завершил уровень %d: %d/%d верно, точность %.2f%%, +%d XP",
		attempt.UserID, attempt.Level, counters.CorrectAnswers, counters.QuestionsAttempted,
		counters.AccuracyPercentage, baseXP)
	return nil
}

// AbandonAttempt явно бросает идущую попытку пользователя
func (s *AttemptService) AbandonAttempt(userID, attemptID uint) error {
	marked, err := s.attemptRepo.MarkAbandoned(s.db, attemptID, userID)
	if err != nil {
		return err
	}
	if !marked {
		return ErrAttemptFinished
	}
	log.Printf("[AttemptService] Пользователь %d бросил попытку %d", userID, attemptID)
	return nil
}

// GetActiveAttempt возвращает незавершенную попытку пользователя
func (s *AttemptService) GetActiveAttempt(userID uint) (*entity.LevelAttempt, error) {
	return s.attemptRepo.GetActive(s.db, userID)
}

// GetAttempt возвращает попытку с проверкой владения
func (s *AttemptService) GetAttempt(userID, attemptID uint) (*entity.LevelAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return attempt, nil
}

// GetAttemptResponses возвращает ответы попытки с проверкой владения
func (s *AttemptService) GetAttemptResponses(userID, attemptID uint) ([]entity.QuestionResponse, error) {
	if _, err := s.GetAttempt(userID, attemptID); err != nil {
		return nil, err
	}
	return s.attemptRepo.GetResponses(attemptID)
}

// LevelSummary — состояние одного уровня для карты прогресса
type LevelSummary struct {
	Level        int     `json:"level"`
	Unlocked     bool    `json:"unlocked"`
	Completed    bool    `json:"completed"`
	Attempts     int     `json:"attempts"`
	BestAccuracy float64 `json:"best_accuracy,omitempty"`
	BestXP       int     `json:"best_xp,omitempty"`
}

// ListLevels возвращает карту всех уровней с флагами доступности
// и лучшими результатами пользователя
func (s *AttemptService) ListLevels(userID uint) ([]LevelSummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	bests, err := s.attemptRepo.GetLevelBests(userID)
	if err != nil {
		return nil, err
	}

	bestByLevel := make(map[int]repository.LevelBest, len(bests))
	for _, b := range bests {
		bestByLevel[b.Level] = b
	}

	levels := make([]LevelSummary, 0, s.config.MaxLevel)
	for level := 1; level <= s.config.MaxLevel; level++ {
		summary := LevelSummary{
			Level:    level,
			Unlocked: user.CanAccessLevel(level),
		}
		if best, ok := bestByLevel[level]; ok {
			summary.Completed = true
			summary.Attempts = best.Attempts
			summary.BestAccuracy = best.BestAccuracy
			summary.BestXP = best.BestXP
		}
		levels = append(levels, summary)
	}
	return levels, nil
}

// ListAttempts возвращает историю попыток пользователя
func (s *AttemptService) ListAttempts(userID uint, limit, offset int) ([]entity.LevelAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.attemptRepo.ListByUser(userID, limit, offset)
}
