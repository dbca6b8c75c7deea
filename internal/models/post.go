package models

// Post is a social-media post. Posts are immutable once a dataset is built.
type Post struct {
	PostID     int64  `json:"post_id" validate:"gt=0"`
	UserID     int64  `json:"user_id" validate:"gte=0"`
	Username   string `json:"username" validate:"required"`
	Caption    string `json:"caption"`
	PostDate   string `json:"post_date" validate:"required"`
	LikesCount int    `json:"likes_count" validate:"gte=0"`
}

// Comment is a comment on a post. CommentText may be empty; it is treated as
// the empty string everywhere. IsSuspiciousActual is the optional ground-truth
// label carried by generated datasets.
type Comment struct {
	CommentID          int64  `json:"comment_id" validate:"gt=0"`
	PostID             int64  `json:"post_id" validate:"gt=0"`
	UserID             int64  `json:"user_id" validate:"gte=0"`
	Username           string `json:"username" validate:"required"`
	CommentText        string `json:"comment_text"`
	CommentDate        string `json:"comment_date"`
	IsSuspiciousActual *bool  `json:"is_suspicious_actual,omitempty"`
}
