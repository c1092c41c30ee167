package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelAttempt_XPPerCorrect(t *testing.T) {
	// Arrange
	first := &LevelAttempt{IsFirstAttempt: true}
	repeat := &LevelAttempt{IsFirstAttempt: false}

	// Act & Assert
	assert.Equal(t, 5, first.XPPerCorrect(), "Первая попытка должна давать 5 XP за правильный ответ")
	assert.Equal(t, 1, repeat.XPPerCorrect(), "Повторная попытка должна давать 1 XP за правильный ответ")
}

func TestLevelAttempt_BaseXP(t *testing.T) {
	// Arrange: первая попытка, 8 из 10 правильных
	attempt := &LevelAttempt{
		IsFirstAttempt: true,
		CorrectAnswers: 8,
	}

	// Act & Assert: 8 * 5 = 40
	assert.Equal(t, 40, attempt.BaseXP())

	// Повторная попытка с тем же результатом: 8 * 1 = 8
	attempt.IsFirstAttempt = false
	assert.Equal(t, 8, attempt.BaseXP())
}

func TestLevelAttempt_IsTerminal(t *testing.T) {
	// Arrange & Act & Assert
	assert.False(t, (&LevelAttempt{CompletionStatus: AttemptStatusInProgress}).IsTerminal())
	assert.True(t, (&LevelAttempt{CompletionStatus: AttemptStatusCompleted}).IsTerminal())
	assert.True(t, (&LevelAttempt{CompletionStatus: AttemptStatusAbandoned}).IsTerminal())
}

func TestLevelAttempt_QualifiesForUnlock(t *testing.T) {
	// Первая попытка с точностью выше порога — открывает уровень
	assert.True(t, (&LevelAttempt{IsFirstAttempt: true, AccuracyPercentage: 30.0}).QualifiesForUnlock(),
		"Точность ровно 30%% должна открывать уровень")
	assert.True(t, (&LevelAttempt{IsFirstAttempt: true, AccuracyPercentage: 80.0}).QualifiesForUnlock())

	// Недостаточная точность
	assert.False(t, (&LevelAttempt{IsFirstAttempt: true, AccuracyPercentage: 29.99}).QualifiesForUnlock())

	// Повторная попытка никогда не открывает уровень
	assert.False(t, (&LevelAttempt{IsFirstAttempt: false, AccuracyPercentage: 100.0}).QualifiesForUnlock())
}

func TestCalculateAccuracy(t *testing.T) {
	// Деление на ноль — 0
	assert.Equal(t, 0.0, CalculateAccuracy(0, 0))

	// Ровные значения
	assert.Equal(t, 100.0, CalculateAccuracy(10, 10))
	assert.Equal(t, 50.0, CalculateAccuracy(5, 10))

	// Округление до двух знаков: 2/3 = 66.67
	assert.Equal(t, 66.67, CalculateAccuracy(2, 3))

	// 1/7 = 14.29
	assert.Equal(t, 14.29, CalculateAccuracy(1, 7))
}
