package repository

import "errors"

var (
	// ErrAttemptFinished означает, что попытка уже в терминальном статусе
	// и дальнейшие мутации запрещены.
	ErrAttemptFinished = errors.New("attempt is already finished")
	// ErrDuplicateAnswer означает повторный ответ на тот же вопрос в рамках попытки.
	ErrDuplicateAnswer = errors.New("question already answered in this attempt")
	// ErrRefereeAlreadyReferred означает, что для приглашенного уже существует
	// реферальная запись (сработал уникальный индекс по referee_id).
	ErrRefereeAlreadyReferred = errors.New("user already has a referral record")
	// ErrProgressExists означает, что строка прогресса (user, reel) уже существует.
	ErrProgressExists = errors.New("reel progress already exists")
)
