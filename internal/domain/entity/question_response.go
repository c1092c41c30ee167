package entity

import (
	"time"
)

// QuestionResponse представляет ответ пользователя на один вопрос попытки.
// Запись неизменяемая: создается один раз на пару (попытка, вопрос) и никогда не обновляется.
type QuestionResponse struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AttemptID        uint      `gorm:"not null;index;uniqueIndex:idx_attempt_question" json:"attempt_id"`
	QuestionID       uint      `gorm:"not null;uniqueIndex:idx_attempt_question" json:"question_id"`
	ChosenOption     int       `gorm:"not null" json:"chosen_option"` // 1..4
	IsCorrect        bool      `gorm:"not null" json:"is_correct"`
	TimeTakenSeconds int       `gorm:"not null;default:0" json:"time_taken_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (QuestionResponse) TableName() string {
	return "question_responses"
}
