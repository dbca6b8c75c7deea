package dataset_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

func TestCSV_RoundTrip(t *testing.T) {
	tables, _, err := newGenerator(5).Generate(10, 40, 0.25)
	require.NoError(t, err)

	var posts, comments bytes.Buffer
	require.NoError(t, dataset.WritePosts(&posts, tables.Posts))
	require.NoError(t, dataset.WriteComments(&comments, tables.Comments))

	gotPosts, err := dataset.ReadPosts(&posts)
	require.NoError(t, err)
	gotComments, err := dataset.ReadComments(&comments)
	require.NoError(t, err)

	assert.Equal(t, tables.Posts, gotPosts)
	assert.Equal(t, tables.Comments, gotComments)
}

func TestReadComments_OptionalColumns(t *testing.T) {
	input := "comment_id,post_id,user_id,username,comment_text\n" +
		"1,1,10,ana,\"Que legal! 😊\"\n" +
		"2,1,11,bob,\n"

	comments, err := dataset.ReadComments(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "Que legal! 😊", comments[0].CommentText)
	assert.Equal(t, "", comments[1].CommentText)
	assert.Nil(t, comments[0].IsSuspiciousActual)

	tables := &dataset.Tables{Comments: comments}
	assert.False(t, tables.HasGroundTruth())
	_, ok := tables.ActualSuspicious()
	assert.False(t, ok)
}

func TestReadComments_PythonBooleans(t *testing.T) {
	input := "comment_id,post_id,user_id,username,comment_text,is_suspicious_actual\n" +
		"1,1,10,ana,x,True\n" +
		"2,1,10,ana,y,False\n"

	comments, err := dataset.ReadComments(strings.NewReader(input))
	require.NoError(t, err)

	tables := &dataset.Tables{Comments: comments}
	assert.Equal(t, []int{1, 0}, tables.GroundTruthLabels())
}

func TestReadPosts_MissingColumns(t *testing.T) {
	_, err := dataset.ReadPosts(strings.NewReader("post_id,username\n1,a\n"))
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
	assert.Contains(t, err.Error(), "user_id")
	assert.Contains(t, err.Error(), "post_date")
}

func TestReadPosts_Errors(t *testing.T) {
	_, err := dataset.ReadPosts(strings.NewReader(""))
	assert.True(t, utils.IsValidationError(err))

	_, err = dataset.ReadPosts(strings.NewReader("post_id,user_id,username,caption,post_date\nabc,1,a,b,2024-01-01\n"))
	assert.True(t, utils.IsValidationError(err))
}

func TestReadPosts_AcceptsFloatIDsAndBOM(t *testing.T) {
	input := "\ufeffpost_id,user_id,username,caption,post_date\n3.0,120,user_120,Oi,2024-01-01\n"

	posts, err := dataset.ReadPosts(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(3), posts[0].PostID)
	assert.Equal(t, 0, posts[0].LikesCount)
}

func TestTables_Validate(t *testing.T) {
	ok := true
	valid := &dataset.Tables{
		Posts:    []models.Post{{PostID: 1, UserID: 1, Username: "a", PostDate: "2024-01-01"}},
		Comments: []models.Comment{{CommentID: 1, PostID: 1, Username: "b", IsSuspiciousActual: &ok}},
	}
	assert.NoError(t, valid.Validate())

	empty := &dataset.Tables{Posts: valid.Posts}
	assert.True(t, utils.IsValidationError(empty.Validate()))

	dup := &dataset.Tables{Comments: []models.Comment{
		{CommentID: 1, PostID: 1, Username: "a"},
		{CommentID: 1, PostID: 2, Username: "b"},
	}}
	assert.True(t, utils.IsValidationError(dup.Validate()))

	badPost := &dataset.Tables{
		Posts:    []models.Post{{PostID: 0, Username: "a", PostDate: "x"}},
		Comments: valid.Comments,
	}
	assert.True(t, utils.IsValidationError(badPost.Validate()))
}
