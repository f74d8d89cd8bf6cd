package models

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type AnalyzeResponse struct {
	AIResponse *StructuredAnalysis `json:"ai_response"`
}

// ImageAnalyzeResponse is returned after an upload has been stored and analyzed.
type ImageAnalyzeResponse struct {
	ImgID      string              `json:"img_id"`
	AIResponse *StructuredAnalysis `json:"ai_response"`
	Location   *string             `json:"location"`
}

type ImageResponse struct {
	Image *ImageRecord `json:"image"`
}

type PostResponse struct {
	Post *Post `json:"post"`
}

type PostListResponse struct {
	Posts  []*Post `json:"posts"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type RecentPostsResponse struct {
	Posts  []*Post   `json:"posts"`
	Before time.Time `json:"before"`
	Now    time.Time `json:"now"`
}

type SearchResponse struct {
	Posts []*Post `json:"posts"`
}

type DeleteResponse struct {
	Status string `json:"status"`
	ImgID  string `json:"img_id,omitempty"`
	PostID string `json:"post_id,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
