package service

import (
	"errors"
	"fmt"
)

// Доменные ошибки движка прогрессии и наград
var (
	// ErrQuestionsNotFound означает, что для уровня нет вопросов ни в одном ярусе локалей.
	ErrQuestionsNotFound = errors.New("no questions available for this level")
	// ErrQuizNotCompleted означает попытку засчитать видео до завершения всех 10 вопросов.
	ErrQuizNotCompleted = errors.New("quiz is not completed yet")
	// ErrVideoAlreadyWatched означает повторное засчитывание бонусного видео для попытки.
	ErrVideoAlreadyWatched = errors.New("bonus video already watched for this attempt")
	// ErrAttemptFinished означает мутацию попытки в терминальном статусе.
	ErrAttemptFinished = errors.New("attempt is already finished")
	// ErrInvalidReferralCode означает, что код не принадлежит ни одному пользователю.
	ErrInvalidReferralCode = errors.New("referral code does not exist")
	// ErrSelfReferralNotAllowed означает попытку применить собственный код.
	ErrSelfReferralNotAllowed = errors.New("self referral is not allowed")
	// ErrAlreadyReferred означает, что пользователь уже был приглашен ранее.
	ErrAlreadyReferred = errors.New("user has already been referred")
)

// LevelLockedError возвращается при старте уровня выше открытого потолка.
// Несет уровень, который пользователю еще предстоит пройти.
type LevelLockedError struct {
	RequestedLevel int
	CurrentLevel   int
}

func (e *LevelLockedError) Error() string {
	return fmt.Sprintf("level %d is locked: complete level %d first", e.RequestedLevel, e.CurrentLevel)
}

// InsufficientWatchTimeError возвращается, когда видео досмотрено менее чем на порог.
// Несет фактический и требуемый проценты просмотра для ответа клиенту.
type InsufficientWatchTimeError struct {
	WatchedPercentage  float64
	RequiredPercentage float64
}

func (e *InsufficientWatchTimeError) Error() string {
	return fmt.Sprintf("insufficient watch time: watched %.2f%%, required %.2f%%",
		e.WatchedPercentage, e.RequiredPercentage)
}
