package models

import (
	"time"
)

type Feedback struct {
	ID          string    `bson:"_id" json:"id"`
	FormID      string    `bson:"form_id" json:"form_id"`
	PackageName string    `bson:"package_name" json:"package_name"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Rating      *int      `bson:"rating,omitempty" json:"rating,omitempty"`
	Message     string    `bson:"message,omitempty" json:"message,omitempty"`
	AppVersion  string    `bson:"app_version,omitempty" json:"app_version,omitempty"`
	DeviceInfo  string    `bson:"device_info,omitempty" json:"device_info,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// SubmitFeedbackRequest คือ body ของ POST /feedback
type SubmitFeedbackRequest struct {
	FormID      string `json:"form_id" validate:"required"`
	PackageName string `json:"package_name" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
	Rating      *int   `json:"rating,omitempty" example:"5"`
	Message     string `json:"message,omitempty" example:"Love the new dark mode"`
	AppVersion  string `json:"app_version,omitempty" example:"2.4.1"`
	DeviceInfo  string `json:"device_info,omitempty" example:"Pixel 8, Android 15"`
}

// FeedbackStats สรุปคะแนนของ feedback ใน package (หรือ form เดียว)
type FeedbackStats struct {
	Count           int64         `json:"count"`
	AverageRating   float64       `json:"average_rating"`
	RatingBreakdown map[int]int64 `json:"rating_breakdown"`
}

type AverageRating struct {
	AverageRating float64 `json:"average_rating"`
}

// DeleteResult is returned by the feedback delete endpoints.
type DeleteResult struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

// RatingSummary is the raw aggregation behind FeedbackStats.
type RatingSummary struct {
	Total     int64
	Rated     int64
	Sum       int64
	Breakdown map[int]int64
}

// Stats turns the summary into the public stats shape. Every rating value
// from 1 to 5 is present in the breakdown.
func (s RatingSummary) Stats() FeedbackStats {
	breakdown := make(map[int]int64, 5)
	for i := 1; i <= 5; i++ {
		breakdown[i] = s.Breakdown[i]
	}
	var avg float64
	if s.Rated > 0 {
		avg = float64(s.Sum) / float64(s.Rated)
	}
	return FeedbackStats{
		Count:           s.Total,
		AverageRating:   avg,
		RatingBreakdown: breakdown,
	}
}
