package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is an analyzed image shared at a location.
type Post struct {
	PostID       uuid.UUID `json:"post_id"`
	UserID       uuid.UUID `json:"user_id"`
	ImgID        uuid.UUID `json:"img_id"`
	UserQuestion string    `json:"user_question"`
	ObjectLabel  string    `json:"object_label"`
	AIAnswer     string    `json:"ai_answer"`
	AIQuestion   string    `json:"ai_question"`
	Location     string    `json:"location"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Date         time.Time `json:"date"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreatePostRequest is accepted as JSON or form data.
type CreatePostRequest struct {
	UserID       string   `json:"user_id" form:"user_id"`
	ImgID        string   `json:"img_id" form:"img_id"`
	UserQuestion string   `json:"user_question" form:"user_question"`
	ObjectLabel  string   `json:"object_label" form:"object_label"`
	AIAnswer     string   `json:"ai_answer" form:"ai_answer"`
	AIQuestion   string   `json:"ai_question" form:"ai_question"`
	Latitude     *float64 `json:"latitude" form:"latitude"`
	Longitude    *float64 `json:"longitude" form:"longitude"`
}
