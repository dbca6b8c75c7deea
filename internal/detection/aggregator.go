package detection

import (
	"fmt"
	"sort"

	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// AggregateUsers groups comments by username and ranks authors by the share of
// their comments predicted suspicious. labels and patterns are aligned with
// comments. Ties keep first-seen order.
func AggregateUsers(comments []models.Comment, labels []int, patterns [][]string) ([]models.UserBehavior, error) {
	if len(labels) != len(comments) || len(patterns) != len(comments) {
		return nil, fmt.Errorf("aggregate users: %d comments, %d labels, %d pattern lists",
			len(comments), len(labels), len(patterns))
	}

	index := make(map[string]int)
	var users []models.UserBehavior
	seen := make([]map[string]bool, 0)

	for i, c := range comments {
		pos, ok := index[c.Username]
		if !ok {
			pos = len(users)
			index[c.Username] = pos
			users = append(users, models.UserBehavior{
				Username: c.Username,
				UserID:   c.UserID,
				Patterns: models.PatternList{},
			})
			seen = append(seen, make(map[string]bool))
		}

		u := &users[pos]
		u.TotalCount++
		if labels[i] != 1 {
			continue
		}
		u.SuspiciousCount++
		for _, p := range patterns[i] {
			if !seen[pos][p] {
				seen[pos][p] = true
				u.Patterns = append(u.Patterns, p)
			}
		}
	}

	for i := range users {
		users[i].SuspicionScore = utils.Percentage(users[i].SuspiciousCount, users[i].TotalCount)
	}

	sort.SliceStable(users, func(a, b int) bool {
		return users[a].SuspicionScore > users[b].SuspicionScore
	})
	for i := range users {
		users[i].Rank = i + 1
	}

	return users, nil
}

// AggregatePosts ranks posts by the share of their comments predicted
// suspicious. Every post appears once; posts without comments get ratio 0 and
// sort after every post that has comments. Comments that reference an unknown
// post are skipped and counted in the second return value.
func AggregatePosts(posts []models.Post, comments []models.Comment, labels []int) ([]models.PostAnalysis, int, error) {
	if len(labels) != len(comments) {
		return nil, 0, fmt.Errorf("aggregate posts: %d comments, %d labels", len(comments), len(labels))
	}

	index := make(map[int64]int, len(posts))
	out := make([]models.PostAnalysis, 0, len(posts))
	for _, p := range posts {
		if _, dup := index[p.PostID]; dup {
			continue
		}
		index[p.PostID] = len(out)
		out = append(out, models.PostAnalysis{
			PostID:   p.PostID,
			Caption:  p.Caption,
			Username: p.Username,
		})
	}

	skipped := 0
	for i, c := range comments {
		pos, ok := index[c.PostID]
		if !ok {
			skipped++
			continue
		}
		out[pos].TotalCount++
		if labels[i] == 1 {
			out[pos].SuspiciousCount++
		}
	}

	for i := range out {
		out[i].SuspicionRatio = utils.Percentage(out[i].SuspiciousCount, out[i].TotalCount)
	}

	sort.SliceStable(out, func(a, b int) bool {
		ea, eb := out[a].TotalCount == 0, out[b].TotalCount == 0
		if ea != eb {
			return eb
		}
		return out[a].SuspicionRatio > out[b].SuspicionRatio
	})
	for i := range out {
		out[i].Rank = i + 1
	}

	return out, skipped, nil
}
