package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// ============================================================================
// Общие моки репозиториев для тестов сервисов.
// Транзакции гоняем через настоящий gorm поверх in-memory sqlite:
// репозитории замоканы, от БД нужна только механика Begin/Commit/Rollback.
// ============================================================================

// newTestDB создает in-memory БД для прогона транзакций
func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Не удалось открыть тестовую БД")
	return db
}

// testEngineConfig возвращает конфигурацию движка для тестов
func testEngineConfig() *EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.Timezone = "UTC"
	return cfg
}

// MockUserRepo реализует repository.UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByPhone(phone string) (*entity.User, error) {
	args := m.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByReferralCode(code string) (*entity.User, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) UpdateProfile(tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	args := m.Called(tx, userID, updates)
	return args.Error(0)
}

func (m *MockUserRepo) AddXP(tx *gorm.DB, userID uint, delta int64) error {
	args := m.Called(tx, userID, delta)
	return args.Error(0)
}

func (m *MockUserRepo) PromoteLevel(tx *gorm.DB, userID uint, newLevel int) error {
	args := m.Called(tx, userID, newLevel)
	return args.Error(0)
}

func (m *MockUserRepo) IncrementVideosWatched(tx *gorm.DB, userID uint) error {
	args := m.Called(tx, userID)
	return args.Error(0)
}

func (m *MockUserRepo) TouchLastActive(userID uint, at time.Time) error {
	args := m.Called(userID, at)
	return args.Error(0)
}

// MockQuestionRepo реализует repository.QuestionRepository
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetByLevelAndLocale(level int, locale string, limit int) ([]entity.Question, error) {
	args := m.Called(level, locale, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetByLevel(level int, limit int) ([]entity.Question, error) {
	args := m.Called(level, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

// MockAttemptRepo реализует repository.AttemptRepository
type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(tx *gorm.DB, attempt *entity.LevelAttempt) error {
	args := m.Called(tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepo) GetByID(id uint) (*entity.LevelAttempt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LevelAttempt), args.Error(1)
}

func (m *MockAttemptRepo) GetByIDForUpdate(tx *gorm.DB, id uint) (*entity.LevelAttempt, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LevelAttempt), args.Error(1)
}

func (m *MockAttemptRepo) GetActive(tx *gorm.DB, userID uint) (*entity.LevelAttempt, error) {
	args := m.Called(tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LevelAttempt), args.Error(1)
}

func (m *MockAttemptRepo) HasNonAbandonedAttempt(tx *gorm.DB, userID uint, level int) (bool, error) {
	args := m.Called(tx, userID, level)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepo) ListByUser(userID uint, limit, offset int) ([]entity.LevelAttempt, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LevelAttempt), args.Error(1)
}

func (m *MockAttemptRepo) GetLevelBests(userID uint) ([]repository.LevelBest, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LevelBest), args.Error(1)
}

func (m *MockAttemptRepo) SaveResponse(tx *gorm.DB, response *entity.QuestionResponse) error {
	args := m.Called(tx, response)
	return args.Error(0)
}

func (m *MockAttemptRepo) GetResponses(attemptID uint) ([]entity.QuestionResponse, error) {
	args := m.Called(attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuestionResponse), args.Error(1)
}

func (m *MockAttemptRepo) ApplyAnswerCounters(tx *gorm.DB, attemptID uint, isCorrect bool) (*repository.AnswerCounters, error) {
	args := m.Called(tx, attemptID, isCorrect)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AnswerCounters), args.Error(1)
}

func (m *MockAttemptRepo) MarkCompleted(tx *gorm.DB, attemptID uint, baseXP int) (bool, error) {
	args := m.Called(tx, attemptID, baseXP)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepo) MarkAbandoned(tx *gorm.DB, attemptID uint, userID uint) (bool, error) {
	args := m.Called(tx, attemptID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepo) DeductLifeline(tx *gorm.DB, attemptID uint) (int, int, error) {
	args := m.Called(tx, attemptID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockAttemptRepo) RestoreLifelines(tx *gorm.DB, attemptID uint, count int) error {
	args := m.Called(tx, attemptID, count)
	return args.Error(0)
}

func (m *MockAttemptRepo) MarkVideoWatched(tx *gorm.DB, attemptID uint, finalXP int) (bool, error) {
	args := m.Called(tx, attemptID, finalXP)
	return args.Bool(0), args.Error(1)
}

// MockDailyXPRepo реализует repository.DailyXPRepository
type MockDailyXPRepo struct {
	mock.Mock
}

func (m *MockDailyXPRepo) AddXP(tx *gorm.DB, userID uint, date time.Time, xpDelta int64, levelsDelta, videosDelta int) error {
	args := m.Called(tx, userID, date, xpDelta, levelsDelta, videosDelta)
	return args.Error(0)
}

func (m *MockDailyXPRepo) GetByUserAndDate(userID uint, date time.Time) (*entity.DailyXPSummary, error) {
	args := m.Called(userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyXPSummary), args.Error(1)
}

func (m *MockDailyXPRepo) GetLeaderboard(date time.Time, limit int) ([]repository.LeaderboardRow, error) {
	args := m.Called(date, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LeaderboardRow), args.Error(1)
}

func (m *MockDailyXPRepo) GetUserRank(userID uint, date time.Time) (int64, int64, error) {
	args := m.Called(userID, date)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockStreakRepo реализует repository.StreakRepository
type MockStreakRepo struct {
	mock.Mock
}

func (m *MockStreakRepo) GetByUser(userID uint) (*entity.StreakRecord, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.StreakRecord), args.Error(1)
}

func (m *MockStreakRepo) GetByUserForUpdate(tx *gorm.DB, userID uint) (*entity.StreakRecord, error) {
	args := m.Called(tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.StreakRecord), args.Error(1)
}

func (m *MockStreakRepo) Create(tx *gorm.DB, record *entity.StreakRecord) error {
	args := m.Called(tx, record)
	return args.Error(0)
}

func (m *MockStreakRepo) Update(tx *gorm.DB, record *entity.StreakRecord) error {
	args := m.Called(tx, record)
	return args.Error(0)
}

// MockReferralRepo реализует repository.ReferralRepository
type MockReferralRepo struct {
	mock.Mock
}

func (m *MockReferralRepo) ExistsForReferee(refereeID uint) (bool, error) {
	args := m.Called(refereeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferralRepo) Create(tx *gorm.DB, record *entity.ReferralRecord) error {
	args := m.Called(tx, record)
	return args.Error(0)
}

func (m *MockReferralRepo) GetStatsByReferrer(referrerID uint) (*repository.ReferralStats, error) {
	args := m.Called(referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReferralStats), args.Error(1)
}

// MockReelRepo реализует repository.ReelRepository
type MockReelRepo struct {
	mock.Mock
}

func (m *MockReelRepo) GetByID(id uint) (*entity.Reel, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reel), args.Error(1)
}

func (m *MockReelRepo) GetFeed(userID uint, limit int) ([]entity.Reel, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Reel), args.Error(1)
}

func (m *MockReelRepo) CountActive() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReelRepo) CountStartedActive(tx *gorm.DB, userID uint) (int64, error) {
	args := m.Called(tx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReelRepo) GetHeartedActiveIDs(tx *gorm.DB, userID uint) ([]uint, error) {
	args := m.Called(tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockReelRepo) DeleteProgressForActive(tx *gorm.DB, userID uint) error {
	args := m.Called(tx, userID)
	return args.Error(0)
}

func (m *MockReelRepo) CreateProgressBatch(tx *gorm.DB, rows []entity.UserReelProgress) error {
	args := m.Called(tx, rows)
	return args.Error(0)
}

func (m *MockReelRepo) GetProgress(userID, reelID uint) (*entity.UserReelProgress, error) {
	args := m.Called(userID, reelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserReelProgress), args.Error(1)
}

func (m *MockReelRepo) GetProgressForUpdate(tx *gorm.DB, userID, reelID uint) (*entity.UserReelProgress, error) {
	args := m.Called(tx, userID, reelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserReelProgress), args.Error(1)
}

func (m *MockReelRepo) CreateProgress(tx *gorm.DB, progress *entity.UserReelProgress) error {
	args := m.Called(tx, progress)
	return args.Error(0)
}

func (m *MockReelRepo) MarkWatched(tx *gorm.DB, userID, reelID uint, watchDurationSeconds int) (bool, error) {
	args := m.Called(tx, userID, reelID, watchDurationSeconds)
	return args.Bool(0), args.Error(1)
}

func (m *MockReelRepo) SetHearted(tx *gorm.DB, userID, reelID uint, hearted bool) error {
	args := m.Called(tx, userID, reelID, hearted)
	return args.Error(0)
}

func (m *MockReelRepo) IncrementViews(tx *gorm.DB, reelID uint) error {
	args := m.Called(tx, reelID)
	return args.Error(0)
}

func (m *MockReelRepo) IncrementCompletions(tx *gorm.DB, reelID uint, watchSeconds int) error {
	args := m.Called(tx, reelID, watchSeconds)
	return args.Error(0)
}

func (m *MockReelRepo) AdjustHearts(tx *gorm.DB, reelID uint, delta int) error {
	args := m.Called(tx, reelID, delta)
	return args.Error(0)
}

// MockVideoRepo реализует repository.VideoRepository
type MockVideoRepo struct {
	mock.Mock
}

func (m *MockVideoRepo) GetByID(id uint) (*entity.PromoVideo, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PromoVideo), args.Error(1)
}

func (m *MockVideoRepo) GetActive() ([]entity.PromoVideo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PromoVideo), args.Error(1)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// MockNotifier реализует Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) LeaderboardChanged(date time.Time) {
	m.Called(date)
}
