package dataset

import (
	"fmt"

	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// Tables is a dataset's posts and comments.
type Tables struct {
	Posts    []models.Post    `json:"posts"`
	Comments []models.Comment `json:"comments"`
}

// Validate checks every row and rejects empty comment tables and duplicate
// comment ids. Comments referencing unknown posts are allowed.
func (t *Tables) Validate() error {
	if len(t.Comments) == 0 {
		return utils.NewValidationError("comments", "dataset has no comments")
	}

	for i := range t.Posts {
		if err := utils.ValidateStruct(&t.Posts[i]); err != nil {
			return rowError("posts", i, err)
		}
	}

	seen := make(map[int64]bool, len(t.Comments))
	for i := range t.Comments {
		c := &t.Comments[i]
		if err := utils.ValidateStruct(c); err != nil {
			return rowError("comments", i, err)
		}
		if seen[c.CommentID] {
			return utils.NewValidationError("comment_id",
				fmt.Sprintf("duplicate comment_id %d at row %d", c.CommentID, i+1))
		}
		seen[c.CommentID] = true
	}

	return nil
}

// HasGroundTruth reports whether every comment carries is_suspicious_actual.
func (t *Tables) HasGroundTruth() bool {
	if len(t.Comments) == 0 {
		return false
	}
	for _, c := range t.Comments {
		if c.IsSuspiciousActual == nil {
			return false
		}
	}
	return true
}

// GroundTruthLabels returns the ground-truth labels as 0/1, or nil when the
// dataset has none.
func (t *Tables) GroundTruthLabels() []int {
	if !t.HasGroundTruth() {
		return nil
	}
	labels := make([]int, len(t.Comments))
	for i, c := range t.Comments {
		if *c.IsSuspiciousActual {
			labels[i] = 1
		}
	}
	return labels
}

// ActualSuspicious counts comments labeled suspicious by ground truth. The
// second value is false when the dataset has no ground truth.
func (t *Tables) ActualSuspicious() (int, bool) {
	labels := t.GroundTruthLabels()
	if labels == nil {
		return 0, false
	}
	n := 0
	for _, l := range labels {
		n += l
	}
	return n, true
}

// CommentTexts returns the comment texts in table order.
func (t *Tables) CommentTexts() []string {
	texts := make([]string, len(t.Comments))
	for i, c := range t.Comments {
		texts[i] = c.CommentText
	}
	return texts
}

func rowError(table string, row int, err error) error {
	if appErr, ok := err.(*utils.AppError); ok {
		msg := fmt.Sprintf("%s row %d: %s", table, row+1, appErr.Error())
		return utils.NewValidationErrorWithDetails(msg, map[string]string{"row": fmt.Sprint(row + 1)})
	}
	return utils.NewValidationError(table, fmt.Sprintf("row %d: %v", row+1, err))
}
