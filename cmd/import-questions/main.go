package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/examprep-api/internal/config"
	"github.com/yourusername/examprep-api/internal/domain/entity"
	pgRepo "github.com/yourusername/examprep-api/internal/repository/postgres"
	"github.com/yourusername/examprep-api/pkg/database"
)

// Ожидаемые колонки листа (первая строка — заголовок):
// level | locale | text | option_1 | option_2 | option_3 | option_4 | correct_option | explanation | image_url
const minColumns = 8

// Утилита импорта каталога вопросов из xlsx.
// Использование: go run ./cmd/import-questions -file questions.xlsx [-sheet Sheet1]
func main() {
	filePath := flag.String("file", "", "путь к xlsx-файлу с вопросами")
	sheetName := flag.String("sheet", "", "имя листа (по умолчанию — первый лист)")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("укажите -file с путем к xlsx-файлу")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	questions, err := parseQuestions(*filePath, *sheetName)
	if err != nil {
		log.Fatalf("Ошибка разбора файла: %v", err)
	}
	if len(questions) == 0 {
		log.Fatal("В файле не найдено ни одного вопроса")
	}

	questionRepo := pgRepo.NewQuestionRepo(db)
	if err := questionRepo.CreateBatch(questions); err != nil {
		log.Fatalf("Ошибка вставки вопросов: %v", err)
	}

	log.Printf("Импортировано вопросов: %d", len(questions))
}

// parseQuestions читает лист xlsx и собирает вопросы, пропуская строку заголовка
func parseQuestions(filePath, sheetName string) ([]entity.Question, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать лист '%s': %w", sheetName, err)
	}

	questions := make([]entity.Question, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // Заголовок
		}
		if len(row) < minColumns {
			log.Printf("Строка %d: меньше %d колонок, пропускаем", i+1, minColumns)
			continue
		}

		q, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", i+1, err)
		}
		questions = append(questions, *q)
	}

	return questions, nil
}

func parseRow(row []string) (*entity.Question, error) {
	level, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil || level < 1 {
		return nil, fmt.Errorf("некорректный level '%s'", row[0])
	}

	locale := strings.TrimSpace(row[1])
	if locale == "" {
		locale = "ru"
	}

	text := strings.TrimSpace(row[2])
	if text == "" {
		return nil, fmt.Errorf("пустой текст вопроса")
	}

	options := entity.StringArray{}
	for _, cell := range row[3:7] {
		if opt := strings.TrimSpace(cell); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("нужно минимум 2 варианта ответа, найдено %d", len(options))
	}

	correctOption, err := strconv.Atoi(strings.TrimSpace(row[7]))
	if err != nil || correctOption < 1 || correctOption > len(options) {
		return nil, fmt.Errorf("некорректный correct_option '%s' (1..%d)", row[7], len(options))
	}

	q := &entity.Question{
		Level:         level,
		Locale:        locale,
		Text:          text,
		Options:       options,
		CorrectOption: correctOption,
		IsActive:      true,
	}
	if len(row) > 8 {
		q.Explanation = strings.TrimSpace(row[8])
	}
	if len(row) > 9 {
		q.ImageURL = strings.TrimSpace(row[9])
	}
	return q, nil
}
