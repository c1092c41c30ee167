package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// DailyXPRepo реализует repository.DailyXPRepository
type DailyXPRepo struct {
	db *gorm.DB
}

// NewDailyXPRepo создает новый репозиторий суточных агрегатов XP
func NewDailyXPRepo(db *gorm.DB) *DailyXPRepo {
	return &DailyXPRepo{db: db}
}

// AddXP делает upsert суточного агрегата.
// ON CONFLICT выполняет дельта-апдейт на стороне БД, поэтому два конкурентных
// начисления за один день не перетирают друг друга.
func (r *DailyXPRepo) AddXP(tx *gorm.DB, userID uint, date time.Time, xpDelta int64, levelsDelta, videosDelta int) error {
	summary := entity.DailyXPSummary{
		UserID:          userID,
		ActivityDate:    date,
		TotalXPToday:    xpDelta,
		LevelsCompleted: levelsDelta,
		VideosCompleted: videosDelta,
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_xp_today":   gorm.Expr("daily_xp_summaries.total_xp_today + ?", xpDelta),
			"levels_completed": gorm.Expr("daily_xp_summaries.levels_completed + ?", levelsDelta),
			"videos_completed": gorm.Expr("daily_xp_summaries.videos_completed + ?", videosDelta),
			"updated_at":       time.Now(),
		}),
	}).Create(&summary).Error
}

// GetByUserAndDate возвращает суточный агрегат пользователя за дату
func (r *DailyXPRepo) GetByUserAndDate(userID uint, date time.Time) (*entity.DailyXPSummary, error) {
	var summary entity.DailyXPSummary
	err := r.db.Where("user_id = ? AND activity_date = ?", userID, date.Format("2006-01-02")).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// GetLeaderboard возвращает топ пользователей по XP за дату с рангами.
// Ранг считается оконной функцией; при равном XP ранги совпадают,
// а порядок строк детерминирован: кто раньше набрал XP, тот выше.
func (r *DailyXPRepo) GetLeaderboard(date time.Time, limit int) ([]repository.LeaderboardRow, error) {
	var rows []repository.LeaderboardRow

	sql := `
	SELECT RANK() OVER (ORDER BY s.total_xp_today DESC) AS rank,
	       s.user_id,
	       u.name,
	       s.total_xp_today
	FROM daily_xp_summaries s
	JOIN users u ON u.id = s.user_id
	WHERE s.activity_date = ?
	ORDER BY s.total_xp_today DESC, s.updated_at ASC, s.user_id ASC
	LIMIT ?`

	err := r.db.Raw(sql, date.Format("2006-01-02"), limit).Scan(&rows).Error
	return rows, err
}

// GetUserRank возвращает ранг пользователя за дату: 1 + число пользователей
// со строго большим XP. Пользователь без агрегата за дату — ErrNotFound.
func (r *DailyXPRepo) GetUserRank(userID uint, date time.Time) (int64, int64, error) {
	summary, err := r.GetByUserAndDate(userID, date)
	if err != nil {
		return 0, 0, err
	}

	var greater int64
	err = r.db.Model(&entity.DailyXPSummary{}).
		Where("activity_date = ? AND total_xp_today > ?", date.Format("2006-01-02"), summary.TotalXPToday).
		Count(&greater).Error
	if err != nil {
		return 0, 0, err
	}

	return greater + 1, summary.TotalXPToday, nil
}
