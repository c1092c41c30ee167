package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

func newStreakFixture(t *testing.T) (*StreakService, *MockStreakRepo, *MockCacheRepo, *EngineConfig) {
	streakRepo := new(MockStreakRepo)
	cacheRepo := new(MockCacheRepo)
	cfg := testEngineConfig()
	svc := NewStreakService(streakRepo, cacheRepo, cfg, newTestDB(t))
	return svc, streakRepo, cacheRepo, cfg
}

func TestUpdateOnActivity_FirstEverActivity(t *testing.T) {
	svc, streakRepo, _, _ := newStreakFixture(t)
	streakRepo.On("GetByUserForUpdate", mock.Anything, uint(1)).Return(nil, apperrors.ErrNotFound)
	streakRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.StreakRecord) bool {
		return r.UserID == 1 && r.CurrentStreak == 1 && r.LongestStreak == 1
	})).Return(nil)

	record, err := svc.UpdateOnActivity(1)

	require.NoError(t, err)
	assert.Equal(t, 1, record.CurrentStreak)
	assert.Equal(t, 1, record.LongestStreak)
	streakRepo.AssertExpectations(t)
}

func TestUpdateOnActivity_SameDayIsNoOp(t *testing.T) {
	svc, streakRepo, _, cfg := newStreakFixture(t)
	today := cfg.Today()
	streakRepo.On("GetByUserForUpdate", mock.Anything, uint(1)).
		Return(&entity.StreakRecord{UserID: 1, CurrentStreak: 4, LongestStreak: 9, LastActivityDate: &today}, nil)

	record, err := svc.UpdateOnActivity(1)

	require.NoError(t, err)
	assert.Equal(t, 4, record.CurrentStreak)
	streakRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateOnActivity_YesterdayExtendsStreak(t *testing.T) {
	svc, streakRepo, _, cfg := newStreakFixture(t)
	yesterday := cfg.Today().AddDate(0, 0, -1)
	streakRepo.On("GetByUserForUpdate", mock.Anything, uint(1)).
		Return(&entity.StreakRecord{UserID: 1, CurrentStreak: 4, LongestStreak: 4, LastActivityDate: &yesterday}, nil)
	streakRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.UpdateOnActivity(1)

	require.NoError(t, err)
	assert.Equal(t, 5, record.CurrentStreak)
	// Рекорд подтянулся за текущей серией
	assert.Equal(t, 5, record.LongestStreak)
}

func TestUpdateOnActivity_GapResetsToOne(t *testing.T) {
	svc, streakRepo, _, cfg := newStreakFixture(t)
	threeDaysAgo := cfg.Today().AddDate(0, 0, -3)
	streakRepo.On("GetByUserForUpdate", mock.Anything, uint(1)).
		Return(&entity.StreakRecord{UserID: 1, CurrentStreak: 7, LongestStreak: 12, LastActivityDate: &threeDaysAgo}, nil)
	streakRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.UpdateOnActivity(1)

	require.NoError(t, err)
	assert.Equal(t, 1, record.CurrentStreak)
	// Рекорд пропуском не сбрасывается
	assert.Equal(t, 12, record.LongestStreak)
}

func TestUpdateOnActivity_UTCStoredDateSameDayIsNoOp(t *testing.T) {
	// DATE-колонка приходит от драйвера полуночью UTC. Для канонического
	// пояса западнее UTC конвертация через пояс сдвинула бы дату на вчера
	// и повторная активность в тот же день удлинила бы серию.
	streakRepo := new(MockStreakRepo)
	cacheRepo := new(MockCacheRepo)
	cfg := DefaultEngineConfig()
	cfg.Timezone = "America/Sao_Paulo"
	svc := NewStreakService(streakRepo, cacheRepo, cfg, newTestDB(t))

	today := cfg.Today()
	stored := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	streakRepo.On("GetByUserForUpdate", mock.Anything, uint(1)).
		Return(&entity.StreakRecord{UserID: 1, CurrentStreak: 6, LongestStreak: 6, LastActivityDate: &stored}, nil)

	record, err := svc.UpdateOnActivity(1)

	require.NoError(t, err)
	assert.Equal(t, 6, record.CurrentStreak)
	streakRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTouchDaily_SecondTouchShortCircuits(t *testing.T) {
	svc, streakRepo, cacheRepo, _ := newStreakFixture(t)
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	svc.TouchDaily(1)

	streakRepo.AssertNotCalled(t, "GetByUserForUpdate", mock.Anything, mock.Anything)
}

func TestTouchDaily_FirstTouchHitsDatabase(t *testing.T) {
	svc, streakRepo, cacheRepo, cfg := newStreakFixture(t)
	today := cfg.Today()
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	streakRepo.On("GetByUserForUpdate", mock.Anything, uint(1)).
		Return(&entity.StreakRecord{UserID: 1, CurrentStreak: 2, LongestStreak: 2, LastActivityDate: &today}, nil)

	svc.TouchDaily(1)

	streakRepo.AssertCalled(t, "GetByUserForUpdate", mock.Anything, uint(1))
}

func TestGetStreak_MissingRecordReturnsZero(t *testing.T) {
	svc, streakRepo, _, _ := newStreakFixture(t)
	streakRepo.On("GetByUser", uint(1)).Return(nil, apperrors.ErrNotFound)

	record, err := svc.GetStreak(1)

	require.NoError(t, err)
	assert.Zero(t, record.CurrentStreak)
	assert.Zero(t, record.LongestStreak)
}
