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

func newReelsFixture(t *testing.T) (*ReelsService, *MockReelRepo, *MockUserRepo) {
	reelRepo := new(MockReelRepo)
	userRepo := new(MockUserRepo)
	svc := NewReelsService(reelRepo, userRepo, newTestDB(t))
	return svc, reelRepo, userRepo
}

// ============================================================================
// GetFeed и циклический сброс
// ============================================================================

func TestGetFeed_NoResetWhileCatalogRemains(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("CountStartedActive", mock.Anything, uint(1)).Return(int64(3), nil)
	reelRepo.On("CountActive").Return(int64(10), nil)
	reelRepo.On("GetFeed", uint(1), 11).Return([]entity.Reel{{ID: 4}, {ID: 5}}, nil)

	feed, hasMore, err := svc.GetFeed(1, 10)

	require.NoError(t, err)
	assert.Len(t, feed, 2)
	assert.False(t, hasMore)
	reelRepo.AssertNotCalled(t, "DeleteProgressForActive", mock.Anything, mock.Anything)
}

func TestGetFeed_ExhaustedCatalogResetsPreservingHearts(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("CountStartedActive", mock.Anything, uint(1)).Return(int64(10), nil)
	reelRepo.On("CountActive").Return(int64(10), nil)
	reelRepo.On("GetHeartedActiveIDs", mock.Anything, uint(1)).Return([]uint{3, 7}, nil)
	reelRepo.On("DeleteProgressForActive", mock.Anything, uint(1)).Return(nil)
	reelRepo.On("CreateProgressBatch", mock.Anything, mock.MatchedBy(func(rows []entity.UserReelProgress) bool {
		if len(rows) != 2 {
			return false
		}
		for _, row := range rows {
			if !row.IsHearted || row.Status != entity.ReelProgressStarted {
				return false
			}
		}
		return true
	})).Return(nil)
	reelRepo.On("GetFeed", uint(1), 11).Return([]entity.Reel{{ID: 1}}, nil)

	feed, hasMore, err := svc.GetFeed(1, 10)

	require.NoError(t, err)
	assert.Len(t, feed, 1)
	assert.False(t, hasMore)
	reelRepo.AssertExpectations(t)
}

func TestGetFeed_EmptyCatalogNeverResets(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("CountStartedActive", mock.Anything, uint(1)).Return(int64(0), nil)
	reelRepo.On("CountActive").Return(int64(0), nil)
	reelRepo.On("GetFeed", uint(1), 11).Return([]entity.Reel{}, nil)

	feed, hasMore, err := svc.GetFeed(1, 10)

	require.NoError(t, err)
	assert.Empty(t, feed)
	assert.False(t, hasMore)
	reelRepo.AssertNotCalled(t, "DeleteProgressForActive", mock.Anything, mock.Anything)
}

func TestGetFeed_ExtraRowSignalsMore(t *testing.T) {
	// Запрашивается на один рил больше лимита: лишняя строка не попадает
	// в выдачу, но поднимает флаг has_more
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("CountStartedActive", mock.Anything, uint(1)).Return(int64(0), nil)
	reelRepo.On("CountActive").Return(int64(10), nil)
	reelRepo.On("GetFeed", uint(1), 3).Return([]entity.Reel{{ID: 1}, {ID: 2}, {ID: 3}}, nil)

	feed, hasMore, err := svc.GetFeed(1, 2)

	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, uint(1), feed[0].ID)
	assert.Equal(t, uint(2), feed[1].ID)
	assert.True(t, hasMore)
}

// ============================================================================
// MarkStarted / MarkWatched
// ============================================================================

func TestMarkStarted_FirstTimeCountsView(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("CreateProgress", mock.Anything, mock.Anything).Return(nil)
	reelRepo.On("IncrementViews", mock.Anything, uint(5)).Return(nil)

	err := svc.MarkStarted(1, 5)

	require.NoError(t, err)
	reelRepo.AssertExpectations(t)
}

func TestMarkStarted_RepeatIsIdempotent(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("CreateProgress", mock.Anything, mock.Anything).Return(repository.ErrProgressExists)

	err := svc.MarkStarted(1, 5)

	require.NoError(t, err)
	reelRepo.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestMarkStarted_InactiveReel(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: false}, nil)

	err := svc.MarkStarted(1, 5)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkWatched_FirstTransitionCountsCompletion(t *testing.T) {
	svc, reelRepo, userRepo := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("GetProgressForUpdate", mock.Anything, uint(1), uint(5)).
		Return(&entity.UserReelProgress{UserID: 1, ReelID: 5, Status: entity.ReelProgressStarted}, nil)
	reelRepo.On("MarkWatched", mock.Anything, uint(1), uint(5), 42).Return(true, nil)
	reelRepo.On("IncrementCompletions", mock.Anything, uint(5), 42).Return(nil)
	userRepo.On("IncrementVideosWatched", mock.Anything, uint(1)).Return(nil)

	err := svc.MarkWatched(1, 5, 42)

	require.NoError(t, err)
	reelRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestMarkWatched_RepeatDoesNotDoubleCount(t *testing.T) {
	svc, reelRepo, userRepo := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("GetProgressForUpdate", mock.Anything, uint(1), uint(5)).
		Return(&entity.UserReelProgress{UserID: 1, ReelID: 5, Status: entity.ReelProgressWatched}, nil)
	reelRepo.On("MarkWatched", mock.Anything, uint(1), uint(5), 42).Return(false, nil)

	err := svc.MarkWatched(1, 5, 42)

	require.NoError(t, err)
	reelRepo.AssertNotCalled(t, "IncrementCompletions", mock.Anything, mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "IncrementVideosWatched", mock.Anything, mock.Anything)
}

func TestMarkWatched_WithoutStartCreatesWatchedRow(t *testing.T) {
	svc, reelRepo, userRepo := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("GetProgressForUpdate", mock.Anything, uint(1), uint(5)).Return(nil, apperrors.ErrNotFound)
	reelRepo.On("CreateProgress", mock.Anything, mock.MatchedBy(func(p *entity.UserReelProgress) bool {
		return p.Status == entity.ReelProgressWatched && p.WatchDurationSeconds == 42
	})).Return(nil)
	reelRepo.On("IncrementViews", mock.Anything, uint(5)).Return(nil)
	reelRepo.On("IncrementCompletions", mock.Anything, uint(5), 42).Return(nil)
	userRepo.On("IncrementVideosWatched", mock.Anything, uint(1)).Return(nil)

	err := svc.MarkWatched(1, 5, 42)

	require.NoError(t, err)
	reelRepo.AssertExpectations(t)
}

// ============================================================================
// ToggleHeart
// ============================================================================

func TestToggleHeart_FlipOn(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("GetProgressForUpdate", mock.Anything, uint(1), uint(5)).
		Return(&entity.UserReelProgress{UserID: 1, ReelID: 5, IsHearted: false}, nil)
	reelRepo.On("SetHearted", mock.Anything, uint(1), uint(5), true).Return(nil)
	reelRepo.On("AdjustHearts", mock.Anything, uint(5), 1).Return(nil)

	hearted, err := svc.ToggleHeart(1, 5)

	require.NoError(t, err)
	assert.True(t, hearted)
}

func TestToggleHeart_FlipOff(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("GetProgressForUpdate", mock.Anything, uint(1), uint(5)).
		Return(&entity.UserReelProgress{UserID: 1, ReelID: 5, IsHearted: true}, nil)
	reelRepo.On("SetHearted", mock.Anything, uint(1), uint(5), false).Return(nil)
	reelRepo.On("AdjustHearts", mock.Anything, uint(5), -1).Return(nil)

	hearted, err := svc.ToggleHeart(1, 5)

	require.NoError(t, err)
	assert.False(t, hearted)
}

func TestToggleHeart_FirstInteractionCreatesRow(t *testing.T) {
	svc, reelRepo, _ := newReelsFixture(t)
	reelRepo.On("GetByID", uint(5)).Return(&entity.Reel{ID: 5, IsActive: true}, nil)
	reelRepo.On("GetProgressForUpdate", mock.Anything, uint(1), uint(5)).Return(nil, apperrors.ErrNotFound)
	reelRepo.On("CreateProgress", mock.Anything, mock.MatchedBy(func(p *entity.UserReelProgress) bool {
		return p.IsHearted && p.Status == entity.ReelProgressStarted
	})).Return(nil)
	reelRepo.On("IncrementViews", mock.Anything, uint(5)).Return(nil)
	reelRepo.On("AdjustHearts", mock.Anything, uint(5), 1).Return(nil)

	hearted, err := svc.ToggleHeart(1, 5)

	require.NoError(t, err)
	assert.True(t, hearted)
}
