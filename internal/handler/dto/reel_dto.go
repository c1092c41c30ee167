package dto

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// ReelResponse представляет рил для клиента
type ReelResponse struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	VideoURL         string    `json:"video_url"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	DurationSeconds  int       `json:"duration_seconds"`
	TotalViews       int64     `json:"total_views"`
	TotalCompletions int64     `json:"total_completions"`
	TotalHearts      int64     `json:"total_hearts"`
	CreatedAt        time.Time `json:"created_at"`

	// Поля состояния заполняются, когда известен прогресс пользователя
	Status    string `json:"status,omitempty"`
	IsHearted bool   `json:"is_hearted"`
}

// NewReelResponse создает DTO рила без пользовательского состояния
func NewReelResponse(r *entity.Reel) *ReelResponse {
	return &ReelResponse{
		ID:               r.ID,
		Title:            r.Title,
		VideoURL:         r.VideoURL,
		ThumbnailURL:     r.ThumbnailURL,
		DurationSeconds:  r.DurationSeconds,
		TotalViews:       r.TotalViews,
		TotalCompletions: r.TotalCompletions,
		TotalHearts:      r.TotalHearts,
		CreatedAt:        r.CreatedAt,
	}
}

// NewReelWithStateResponse создает DTO рила со статусом просмотра и лайком
func NewReelWithStateResponse(r *entity.Reel, progress *entity.UserReelProgress) *ReelResponse {
	resp := NewReelResponse(r)
	if progress != nil {
		resp.Status = progress.Status
		resp.IsHearted = progress.IsHearted
	}
	return resp
}

// ReelFeedResponse представляет порцию ленты рилов
type ReelFeedResponse struct {
	Reels   []*ReelResponse `json:"reels"`
	Count   int             `json:"count"`
	HasMore bool            `json:"has_more"`
}

// NewReelFeedResponse создает DTO ленты
func NewReelFeedResponse(reels []entity.Reel, hasMore bool) *ReelFeedResponse {
	items := make([]*ReelResponse, 0, len(reels))
	for i := range reels {
		items = append(items, NewReelResponse(&reels[i]))
	}
	return &ReelFeedResponse{Reels: items, Count: len(items), HasMore: hasMore}
}
