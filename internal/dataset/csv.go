package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// Column sets of the dataset CSV files.
var (
	PostColumns            = []string{"post_id", "user_id", "username", "caption", "post_date", "likes_count"}
	CommentColumns         = []string{"comment_id", "post_id", "user_id", "username", "comment_text", "comment_date", "is_suspicious_actual"}
	requiredPostColumns    = []string{"post_id", "user_id", "username", "caption", "post_date"}
	requiredCommentColumns = []string{"comment_id", "post_id", "user_id", "username", "comment_text"}
)

// csvTable is a parsed CSV file keyed by header name.
type csvTable struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readTable(name string, r io.Reader, required []string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, utils.NewValidationError(name, "file is empty")
	}
	if err != nil {
		return nil, utils.NewValidationError(name, fmt.Sprintf("invalid CSV: %v", err))
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		columns[h] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, utils.NewValidationError(name,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, utils.NewValidationError(name, fmt.Sprintf("invalid CSV: %v", err))
	}

	return &csvTable{name: name, columns: columns, rows: rows}, nil
}

func (t *csvTable) value(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *csvTable) integer(row []string, line int, col string) (int64, error) {
	v := strings.TrimSpace(t.value(row, col))
	if v == "" {
		return 0, nil
	}
	// Accept "12.0" as written by some spreadsheet exports.
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int64(f)) {
		return int64(f), nil
	}
	return 0, utils.NewValidationError(col, fmt.Sprintf("%s line %d: %q is not an integer", t.name, line, v))
}

// ReadPosts parses a posts CSV. likes_count is optional.
func ReadPosts(r io.Reader) ([]models.Post, error) {
	t, err := readTable("posts", r, requiredPostColumns)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		postID, err := t.integer(row, line, "post_id")
		if err != nil {
			return nil, err
		}
		userID, err := t.integer(row, line, "user_id")
		if err != nil {
			return nil, err
		}
		likes, err := t.integer(row, line, "likes_count")
		if err != nil {
			return nil, err
		}
		posts = append(posts, models.Post{
			PostID:     postID,
			UserID:     userID,
			Username:   t.value(row, "username"),
			Caption:    t.value(row, "caption"),
			PostDate:   t.value(row, "post_date"),
			LikesCount: int(likes),
		})
	}
	return posts, nil
}

// ReadComments parses a comments CSV. comment_date and is_suspicious_actual
// are optional; an empty label cell leaves the label unset.
func ReadComments(r io.Reader) ([]models.Comment, error) {
	t, err := readTable("comments", r, requiredCommentColumns)
	if err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		commentID, err := t.integer(row, line, "comment_id")
		if err != nil {
			return nil, err
		}
		postID, err := t.integer(row, line, "post_id")
		if err != nil {
			return nil, err
		}
		userID, err := t.integer(row, line, "user_id")
		if err != nil {
			return nil, err
		}

		c := models.Comment{
			CommentID:   commentID,
			PostID:      postID,
			UserID:      userID,
			Username:    t.value(row, "username"),
			CommentText: t.value(row, "comment_text"),
			CommentDate: t.value(row, "comment_date"),
		}

		if v := strings.TrimSpace(t.value(row, "is_suspicious_actual")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, utils.NewValidationError("is_suspicious_actual",
					fmt.Sprintf("comments line %d: %q is not a boolean", line, v))
			}
			c.IsSuspiciousActual = &b
		}

		comments = append(comments, c)
	}
	return comments, nil
}

// WritePosts writes posts as CSV with a header row.
func WritePosts(w io.Writer, posts []models.Post) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(PostColumns); err != nil {
		return err
	}
	for _, p := range posts {
		if err := writer.Write([]string{
			strconv.FormatInt(p.PostID, 10),
			strconv.FormatInt(p.UserID, 10),
			p.Username,
			p.Caption,
			p.PostDate,
			strconv.Itoa(p.LikesCount),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteComments writes comments as CSV with a header row.
func WriteComments(w io.Writer, comments []models.Comment) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CommentColumns); err != nil {
		return err
	}
	for _, c := range comments {
		label := ""
		if c.IsSuspiciousActual != nil {
			label = strconv.FormatBool(*c.IsSuspiciousActual)
		}
		if err := writer.Write([]string{
			strconv.FormatInt(c.CommentID, 10),
			strconv.FormatInt(c.PostID, 10),
			strconv.FormatInt(c.UserID, 10),
			c.Username,
			c.CommentText,
			c.CommentDate,
			label,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
