package entity

import (
	"math"
	"time"
)

// Константы статусов попытки прохождения уровня
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
	AttemptStatusAbandoned  = "abandoned"
)

// Количество вопросов в одном уровне
const QuestionsPerLevel = 10

// XP за правильный ответ: первая попытка / повторная
const (
	XPPerCorrectFirstAttempt  = 5
	XPPerCorrectRepeatAttempt = 1
)

// Минимальная точность (в процентах) для открытия следующего уровня
const UnlockAccuracyThreshold = 30.0

// LevelAttempt представляет одну попытку прохождения уровня (10 вопросов)
type LevelAttempt struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;index:idx_attempts_user_level" json:"user_id"`
	Level              int        `gorm:"not null;index:idx_attempts_user_level" json:"level"`
	IsFirstAttempt     bool       `gorm:"not null;default:false" json:"is_first_attempt"`
	LifelinesRemaining int        `gorm:"not null;default:3" json:"lifelines_remaining"`
	LifelinesUsed      int        `gorm:"not null;default:0" json:"lifelines_used"`
	QuestionsAttempted int        `gorm:"not null;default:0" json:"questions_attempted"`
	CorrectAnswers     int        `gorm:"not null;default:0" json:"correct_answers"`
	AccuracyPercentage float64    `gorm:"not null;default:0" json:"accuracy_percentage"`
	XPEarnedBase       int        `gorm:"not null;default:0" json:"xp_earned_base"`
	XPEarnedFinal      int        `gorm:"not null;default:0" json:"xp_earned_final"`
	VideoWatched       bool       `gorm:"not null;default:false" json:"video_watched"`
	CompletionStatus   string     `gorm:"size:20;not null;default:'in_progress';index" json:"completion_status"`
	CompletedAt        *time.Time `gorm:"type:timestamp" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LevelAttempt) TableName() string {
	return "level_attempts"
}

// IsInProgress проверяет, идет ли попытка
func (a *LevelAttempt) IsInProgress() bool {
	return a.CompletionStatus == AttemptStatusInProgress
}

// IsCompleted проверяет, завершена ли попытка
func (a *LevelAttempt) IsCompleted() bool {
	return a.CompletionStatus == AttemptStatusCompleted
}

// IsTerminal проверяет, находится ли попытка в терминальном статусе.
// Из терминального статуса переходы запрещены.
func (a *LevelAttempt) IsTerminal() bool {
	return a.CompletionStatus == AttemptStatusCompleted || a.CompletionStatus == AttemptStatusAbandoned
}

// XPPerCorrect возвращает ставку XP за правильный ответ для этой попытки.
// Ставка фиксируется флагом is_first_attempt при создании попытки.
func (a *LevelAttempt) XPPerCorrect() int {
	if a.IsFirstAttempt {
		return XPPerCorrectFirstAttempt
	}
	return XPPerCorrectRepeatAttempt
}

// BaseXP вычисляет базовый XP по итоговому числу правильных ответов
func (a *LevelAttempt) BaseXP() int {
	return a.CorrectAnswers * a.XPPerCorrect()
}

// QualifiesForUnlock проверяет, открывает ли попытка следующий уровень.
// Требования: первая попытка и точность не ниже порога.
func (a *LevelAttempt) QualifiesForUnlock() bool {
	return a.IsFirstAttempt && a.AccuracyPercentage >= UnlockAccuracyThreshold
}

// CalculateAccuracy вычисляет точность в процентах с округлением до 2 знаков
func CalculateAccuracy(correctAnswers, questionsAttempted int) float64 {
	if questionsAttempted == 0 {
		return 0
	}
	accuracy := float64(correctAnswers) / float64(questionsAttempted) * 100
	return math.Round(accuracy*100) / 100
}
