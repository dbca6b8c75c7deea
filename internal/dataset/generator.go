// Package dataset builds, encodes and buffers the post and comment tables an
// analysis runs over. Generated datasets carry ground-truth labels; uploaded
// ones usually do not.
package dataset

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// Generator produces synthetic datasets. Every call to Generate uses its own
// random source seeded from the generator, so equal inputs give equal output.
type Generator struct {
	seed int64
	now  func() time.Time
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{seed: seed, now: time.Now}
}

// WithClock replaces the clock used for post and comment dates.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// author is a synthetic comment author.
type author struct {
	username   string
	userID     int64
	propensity float64
}

// ValidateParams checks generator parameters without generating anything.
func ValidateParams(postsCount, commentsCount int, ratio float64) error {
	if postsCount <= 0 || postsCount > constants.MaxGeneratedPosts {
		return utils.NewValidationError("posts_count",
			fmt.Sprintf("must be between 1 and %d", constants.MaxGeneratedPosts))
	}
	if commentsCount <= 0 || commentsCount > constants.MaxGeneratedComments {
		return utils.NewValidationError("comments_count",
			fmt.Sprintf("must be between 1 and %d", constants.MaxGeneratedComments))
	}
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return utils.NewValidationError("suspicious_ratio", "must be between 0 and 1")
	}
	return nil
}

// Generate builds postsCount posts and commentsCount comments, of which
// exactly floor(commentsCount × ratio) are suspicious. It returns the tables
// and the number of suspicious comments.
func (g *Generator) Generate(postsCount, commentsCount int, ratio float64) (*Tables, int, error) {
	if err := ValidateParams(postsCount, commentsCount, ratio); err != nil {
		return nil, 0, err
	}

	r := rand.New(rand.NewSource(g.seed))
	now := g.now()

	posts := make([]models.Post, postsCount)
	for i := range posts {
		userID := int64(constants.GeneratorMinUserID +
			r.Intn(constants.GeneratorMaxUserID-constants.GeneratorMinUserID+1))
		posts[i] = models.Post{
			PostID:     int64(i + 1),
			UserID:     userID,
			Username:   fmt.Sprintf("user_%d", userID),
			Caption:    captions[r.Intn(len(captions))],
			PostDate:   randomDate(r, now),
			LikesCount: r.Intn(constants.GeneratorMaxLikes + 1),
		}
	}

	high := makeAuthors(r, highRiskUsers, highRiskMinPropensity, highRiskMaxPropensity)
	normalNames := make([]string, constants.NormalUserCount)
	for i := range normalNames {
		normalNames[i] = fmt.Sprintf("normal_user_%d", i+1)
	}
	normal := makeAuthors(r, normalNames, normalMinPropensity, normalMaxPropensity)
	pHigh := highPoolProbability(ratio, meanPropensity(high), meanPropensity(normal))

	quota := int(math.Floor(float64(commentsCount)*ratio + 1e-9))
	suspicious := 0

	comments := make([]models.Comment, commentsCount)
	for i := range comments {
		remainingSlots := commentsCount - i
		remainingQuota := quota - suspicious

		var a author
		var isSuspicious bool
		switch {
		case remainingQuota > 0 && remainingQuota >= remainingSlots:
			a = high[r.Intn(len(high))]
			isSuspicious = true
		case remainingQuota > 0:
			if r.Float64() < pHigh {
				a = high[r.Intn(len(high))]
			} else {
				a = normal[r.Intn(len(normal))]
			}
			isSuspicious = r.Float64() < a.propensity
		default:
			a = normal[r.Intn(len(normal))]
		}

		var text string
		if isSuspicious {
			text = suspiciousText(r)
			suspicious++
		} else {
			text = normalTemplates[r.Intn(len(normalTemplates))]
		}

		label := isSuspicious
		comments[i] = models.Comment{
			CommentID:          int64(i + 1),
			PostID:             int64(1 + r.Intn(postsCount)),
			UserID:             a.userID,
			Username:           a.username,
			CommentText:        text,
			CommentDate:        randomDate(r, now),
			IsSuspiciousActual: &label,
		}
	}

	return &Tables{Posts: posts, Comments: comments}, suspicious, nil
}

// AuthorID maps a username to its stable synthetic user id.
func AuthorID(username string) int64 {
	h := fnv.New32a()
	h.Write([]byte(username))
	return int64(h.Sum32() % 1000)
}

func makeAuthors(r *rand.Rand, names []string, lo, hi float64) []author {
	out := make([]author, len(names))
	for i, name := range names {
		out[i] = author{
			username:   name,
			userID:     AuthorID(name),
			propensity: lo + r.Float64()*(hi-lo),
		}
	}
	return out
}

func meanPropensity(authors []author) float64 {
	sum := 0.0
	for _, a := range authors {
		sum += a.propensity
	}
	return sum / float64(len(authors))
}

// highPoolProbability solves q·meanHigh + (1-q)·meanNormal = ratio for q.
func highPoolProbability(ratio, meanHigh, meanNormal float64) float64 {
	if meanHigh <= meanNormal {
		return 0
	}
	q := (ratio - meanNormal) / (meanHigh - meanNormal)
	return math.Max(0, math.Min(1, q))
}

func suspiciousText(r *rand.Rand) string {
	text := suspiciousTemplates[r.Intn(len(suspiciousTemplates))]
	if r.Intn(2) == 0 {
		text += suffixes[r.Intn(len(suffixes))]
	}
	return text
}

// randomDate returns a day within the generator's date window before now.
func randomDate(r *rand.Rand, now time.Time) string {
	window := int64(constants.GeneratorDateWindowDays * 24 * time.Hour / time.Second)
	offset := time.Duration(r.Int63n(window+1)) * time.Second
	return now.Add(-offset).Format(time.DateOnly)
}
