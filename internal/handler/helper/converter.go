package helper

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id и text.
// ID использует 1-based нумерацию — так же нумеруется chosen_option в ответах.
func ConvertOptionsToObjects(options entity.StringArray) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		converted[i] = QuestionOption{ID: i + 1, Text: opt}
	}
	return converted
}
