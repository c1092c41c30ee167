package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if o == nil || len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос уровня
type Question struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Level         int         `gorm:"not null;index:idx_questions_level_locale" json:"level"`
	Locale        string      `gorm:"size:5;not null;default:'ru';index:idx_questions_level_locale" json:"locale"`
	Text          string      `gorm:"size:1000;not null" json:"text"`
	Options       StringArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectOption int         `gorm:"not null" json:"-"` // Номер правильного варианта (1..4), скрыт от клиента
	Explanation   string      `gorm:"size:2000;not null;default:''" json:"explanation,omitempty"`
	ImageURL      string      `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	IsActive      bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// IsValidOption проверяет, является ли выбранный вариант допустимым.
// Варианты нумеруются с 1.
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 1 && selectedOption <= len(q.Options)
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
