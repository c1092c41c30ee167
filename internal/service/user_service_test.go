package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

type userFixture struct {
	svc          *UserService
	userRepo     *MockUserRepo
	dailyXPRepo  *MockDailyXPRepo
	streakRepo   *MockStreakRepo
	referralRepo *MockReferralRepo
	cacheRepo    *MockCacheRepo
}

func newUserFixture(t *testing.T) *userFixture {
	f := &userFixture{
		userRepo:     new(MockUserRepo),
		dailyXPRepo:  new(MockDailyXPRepo),
		streakRepo:   new(MockStreakRepo),
		referralRepo: new(MockReferralRepo),
		cacheRepo:    new(MockCacheRepo),
	}
	db := newTestDB(t)
	cfg := testEngineConfig()
	attemptRepo := new(MockAttemptRepo)
	lifelines := NewLifelineManager(attemptRepo, cfg)
	rewardSvc := NewRewardService(
		f.userRepo, attemptRepo, new(MockVideoRepo), f.dailyXPRepo,
		f.cacheRepo, lifelines, new(MockNotifier), cfg, db,
	)
	streakSvc := NewStreakService(f.streakRepo, f.cacheRepo, cfg, db)
	referralSvc := NewReferralService(f.userRepo, f.referralRepo, rewardSvc, cfg, db)
	f.svc = NewUserService(f.userRepo, f.dailyXPRepo, streakSvc, referralSvc, cfg, db)
	return f
}

func TestRegister_GeneratesUniqueCode(t *testing.T) {
	f := newUserFixture(t)
	f.userRepo.On("GetByPhone", "+77001234567").Return(nil, apperrors.ErrNotFound)
	f.userRepo.On("GetByReferralCode", mock.Anything).Return(nil, apperrors.ErrNotFound)
	f.userRepo.On("Create", mock.MatchedBy(func(u *entity.User) bool {
		return u.Phone == "+77001234567" && len(u.ReferralCode) == 5 && u.CurrentLevel == 1
	})).Return(nil)

	user, err := f.svc.Register("+77001234567", "Алия", "kk", "")

	require.NoError(t, err)
	assert.Equal(t, "kk", user.Locale)
	assert.Len(t, user.ReferralCode, 5)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	f := newUserFixture(t)
	f.userRepo.On("GetByPhone", "+77001234567").Return(&entity.User{ID: 1}, nil)

	_, err := f.svc.Register("+77001234567", "Алия", "ru", "")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	f.userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegister_InvalidReferralCodeRejectsBeforeCreate(t *testing.T) {
	f := newUserFixture(t)
	f.userRepo.On("GetByPhone", "+77001234567").Return(nil, apperrors.ErrNotFound)
	f.userRepo.On("GetByReferralCode", "00000").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.Register("+77001234567", "Алия", "ru", "00000")

	assert.ErrorIs(t, err, ErrInvalidReferralCode)
	f.userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegister_UnsupportedLocale(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register("+77001234567", "Алия", "fr", "")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetProfile_AggregatesSources(t *testing.T) {
	f := newUserFixture(t)
	f.userRepo.On("GetByID", uint(1)).Return(&entity.User{ID: 1, XPTotal: 500, CurrentLevel: 7}, nil)
	f.streakRepo.On("GetByUser", uint(1)).Return(&entity.StreakRecord{UserID: 1, CurrentStreak: 3, LongestStreak: 9}, nil)
	f.dailyXPRepo.On("GetByUserAndDate", uint(1), mock.Anything).
		Return(&entity.DailyXPSummary{UserID: 1, TotalXPToday: 45}, nil)
	f.referralRepo.On("GetStatsByReferrer", uint(1)).
		Return(&repository.ReferralStats{ReferralsCount: 2, XPEarned: 100}, nil)

	profile, err := f.svc.GetProfile(1)

	require.NoError(t, err)
	assert.Equal(t, int64(500), profile.User.XPTotal)
	assert.Equal(t, 3, profile.Streak.CurrentStreak)
	assert.Equal(t, int64(45), profile.TodayXP)
	assert.Equal(t, int64(2), profile.ReferralStats.ReferralsCount)
}

func TestUpdateProfile_RejectsUnsupportedLocale(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.UpdateProfile(1, "", "de")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}
