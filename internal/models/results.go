package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/argusia/argus/internal/constants"
)

// PatternList is an ordered list of matched catalog literals. It is stored
// as a JSON array.
type PatternList []string

// Value implements the driver.Valuer interface for PatternList.
func (p PatternList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for PatternList.
func (p *PatternList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PatternList", value)
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal pattern list: %w", err)
	}
	*p = out
	return nil
}

// RiskLevel buckets a probability into high, medium or low.
func RiskLevel(probability float64) string {
	switch {
	case probability > constants.RiskHighThreshold:
		return constants.RiskHigh
	case probability > constants.RiskMediumThreshold:
		return constants.RiskMedium
	default:
		return constants.RiskLow
	}
}

// SuspiciousComment is a comment the classifier labeled suspicious.
type SuspiciousComment struct {
	AnalysisID       string      `json:"analysis_id" db:"analysis_id"`
	CommentID        int64       `json:"comment_id" db:"comment_id"`
	PostID           int64       `json:"post_id" db:"post_id"`
	Username         string      `json:"username" db:"username"`
	CommentText      string      `json:"comment_text" db:"comment_text"`
	Probability      float64     `json:"probability" db:"probability"`
	DetectedPatterns PatternList `json:"detected_patterns" db:"detected_patterns"`
}

// TableName returns the database table name for the SuspiciousComment model.
func (c *SuspiciousComment) TableName() string {
	return constants.TableSuspiciousComments
}

// RiskLevel returns the risk bucket of the comment.
func (c *SuspiciousComment) RiskLevel() string {
	return RiskLevel(c.Probability)
}

// UserBehavior summarizes the comments of one author.
type UserBehavior struct {
	AnalysisID      string `json:"analysis_id,omitempty" db:"analysis_id"`
	Username        string `json:"username" db:"username"`
	UserID          int64  `json:"user_id" db:"user_id"`
	SuspiciousCount int    `json:"suspicious_count" db:"suspicious_count"`
	TotalCount      int    `json:"total_count" db:"total_count"`

	// SuspicionScore is SuspiciousCount/TotalCount × 100.
	SuspicionScore float64 `json:"suspicion_score" db:"suspicion_score"`

	// Patterns is the union of patterns of the author's suspicious comments,
	// in first-seen order.
	Patterns PatternList `json:"patterns" db:"patterns"`

	// Rank is the 1-based position in the ranking.
	Rank int `json:"rank" db:"ranking"`
}

// TableName returns the database table name for the UserBehavior model.
func (u *UserBehavior) TableName() string {
	return constants.TableUserBehaviors
}

// PostAnalysis summarizes the comments received by one post.
type PostAnalysis struct {
	AnalysisID      string `json:"analysis_id,omitempty" db:"analysis_id"`
	PostID          int64  `json:"post_id" db:"post_id"`
	Caption         string `json:"caption" db:"caption"`
	Username        string `json:"username" db:"username"`
	SuspiciousCount int    `json:"suspicious_count" db:"suspicious_count"`
	TotalCount      int    `json:"total_count" db:"total_count"`

	// SuspicionRatio is SuspiciousCount/TotalCount × 100, 0 for posts without comments.
	SuspicionRatio float64 `json:"suspicion_ratio" db:"suspicion_ratio"`

	// Rank is the 1-based position in the ranking.
	Rank int `json:"rank" db:"ranking"`
}

// TableName returns the database table name for the PostAnalysis model.
func (p *PostAnalysis) TableName() string {
	return constants.TablePostAnalyses
}

// AnalysisResults groups the rows an analysis persists.
type AnalysisResults struct {
	Comments []SuspiciousComment
	Users    []UserBehavior
	Posts    []PostAnalysis
}
