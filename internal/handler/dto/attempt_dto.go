package dto

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/handler/helper"
)

// QuestionView представляет вопрос в выдаче старта уровня.
// Правильный вариант и объяснение скрыты: они приходят только
// в ответе на answer.
type QuestionView struct {
	ID       uint                    `json:"id"`
	Level    int                     `json:"level"`
	Text     string                  `json:"text"`
	Options  []helper.QuestionOption `json:"options"`
	ImageURL string                  `json:"image_url,omitempty"`
}

// NewQuestionView создает DTO вопроса без правильного варианта
func NewQuestionView(q *entity.Question) QuestionView {
	return QuestionView{
		ID:       q.ID,
		Level:    q.Level,
		Text:     q.Text,
		Options:  helper.ConvertOptionsToObjects(q.Options),
		ImageURL: q.ImageURL,
	}
}

// AttemptResponse представляет попытку прохождения уровня для клиента
type AttemptResponse struct {
	ID                 uint       `json:"id"`
	Level              int        `json:"level"`
	IsFirstAttempt     bool       `json:"is_first_attempt"`
	LifelinesRemaining int        `json:"lifelines_remaining"`
	LifelinesUsed      int        `json:"lifelines_used"`
	QuestionsAttempted int        `json:"questions_attempted"`
	CorrectAnswers     int        `json:"correct_answers"`
	AccuracyPercentage float64    `json:"accuracy_percentage"`
	XPEarnedBase       int        `json:"xp_earned_base"`
	XPEarnedFinal      int        `json:"xp_earned_final"`
	VideoWatched       bool       `json:"video_watched"`
	CompletionStatus   string     `json:"completion_status"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewAttemptResponse создает DTO попытки
func NewAttemptResponse(a *entity.LevelAttempt) *AttemptResponse {
	return &AttemptResponse{
		ID:                 a.ID,
		Level:              a.Level,
		IsFirstAttempt:     a.IsFirstAttempt,
		LifelinesRemaining: a.LifelinesRemaining,
		LifelinesUsed:      a.LifelinesUsed,
		QuestionsAttempted: a.QuestionsAttempted,
		CorrectAnswers:     a.CorrectAnswers,
		AccuracyPercentage: a.AccuracyPercentage,
		XPEarnedBase:       a.XPEarnedBase,
		XPEarnedFinal:      a.XPEarnedFinal,
		VideoWatched:       a.VideoWatched,
		CompletionStatus:   a.CompletionStatus,
		CompletedAt:        a.CompletedAt,
		CreatedAt:          a.CreatedAt,
	}
}

// StartAttemptResponse представляет ответ на старт уровня:
// созданная попытка плюс пачка вопросов
type StartAttemptResponse struct {
	Attempt   *AttemptResponse `json:"attempt"`
	Questions []QuestionView   `json:"questions"`
}

// NewStartAttemptResponse создает DTO старта уровня
func NewStartAttemptResponse(attempt *entity.LevelAttempt, questions []entity.Question) *StartAttemptResponse {
	views := make([]QuestionView, 0, len(questions))
	for i := range questions {
		views = append(views, NewQuestionView(&questions[i]))
	}
	return &StartAttemptResponse{
		Attempt:   NewAttemptResponse(attempt),
		Questions: views,
	}
}

// ListAttemptsResponse представляет страницу истории попыток
type ListAttemptsResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// NewListAttemptsResponse создает DTO страницы истории
func NewListAttemptsResponse(attempts []entity.LevelAttempt, limit, offset int) *ListAttemptsResponse {
	items := make([]*AttemptResponse, 0, len(attempts))
	for i := range attempts {
		items = append(items, NewAttemptResponse(&attempts[i]))
	}
	return &ListAttemptsResponse{Attempts: items, Limit: limit, Offset: offset}
}
