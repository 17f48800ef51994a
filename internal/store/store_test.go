package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blog/internal/db"
	"blog/internal/models"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func createTestStore(t *testing.T) (*Store, *gorm.DB) {
	d := db.CreateTempDB(t)
	return New(d), d
}

func createUser(t *testing.T, d *gorm.DB, username string) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, d.Create(u).Error)
	return u
}

func insertPost(t *testing.T, d *gorm.DB, author *models.User, text string, at time.Time) *models.Post {
	p := &models.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	require.NoError(t, d.Omit(clause.Associations).Create(p).Error)
	return p
}

func TestListPostsOrder(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	author := createUser(t, d, "leo")
	base := time.Date(2022, 7, 23, 12, 0, 0, 0, time.UTC)

	oldest := insertPost(t, d, author, "oldest", base)
	tieA := insertPost(t, d, author, "tie a", base.Add(time.Hour))
	tieB := insertPost(t, d, author, "tie b", base.Add(time.Hour))
	newest := insertPost(t, d, author, "newest", base.Add(2*time.Hour))

	posts, err := s.ListPosts(ctx, PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 4)

	var ids []int64
	for _, p := range posts {
		ids = append(ids, p.ID)
		assert.Equal(t, "leo", p.Author.Username)
	}
	assert.Equal(t, []int64{newest.ID, tieB.ID, tieA.ID, oldest.ID}, ids)
}

func TestListPostsFilters(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")
	ann := createUser(t, d, "ann")
	g, err := s.CreateGroup(ctx, "Cats", "cats", "all about cats")
	require.NoError(t, err)

	inGroup, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "meow", GroupID: &g.ID})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, ann.ID, PostInput{Text: "no group"})
	require.NoError(t, err)

	posts, err := s.ListPosts(ctx, PostFilter{GroupID: &g.ID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, inGroup.ID, posts[0].ID)
	require.NotNil(t, posts[0].Group)
	assert.Equal(t, "cats", posts[0].Group.Slug)

	posts, err = s.ListPosts(ctx, PostFilter{AuthorID: &ann.ID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "no group", posts[0].Text)
	assert.Nil(t, posts[0].Group)

	require.NoError(t, d.Omit(clause.Associations).Create(&models.Follow{UserID: ann.ID, AuthorID: leo.ID}).Error)
	posts, err = s.ListPosts(ctx, PostFilter{FollowerID: &ann.ID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, inGroup.ID, posts[0].ID)
}

func TestCreatePostValidation(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")

	_, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)

	missing := int64(999)
	_, err = s.CreatePost(ctx, leo.ID, PostInput{Text: "hi", GroupID: &missing})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "group", verr.Field)

	var n int64
	require.NoError(t, d.Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdatePost(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")
	ann := createUser(t, d, "ann")
	g, err := s.CreateGroup(ctx, "Dogs", "dogs", "")
	require.NoError(t, err)

	p, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "first", Image: "posts/a.gif"})
	require.NoError(t, err)

	_, err = s.UpdatePost(ctx, ann.ID, p.ID, PostInput{Text: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.UpdatePost(ctx, leo.ID, 12345, PostInput{Text: "nothing"})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.UpdatePost(ctx, leo.ID, p.ID, PostInput{Text: "second", GroupID: &g.ID})
	require.NoError(t, err)
	assert.Equal(t, "second", updated.Text)
	assert.Equal(t, leo.ID, updated.AuthorID)
	assert.Equal(t, "posts/a.gif", updated.Image)
	require.NotNil(t, updated.Group)
	assert.Equal(t, g.ID, updated.Group.ID)
	assert.WithinDuration(t, p.CreatedAt, updated.CreatedAt, time.Microsecond)

	updated, err = s.UpdatePost(ctx, leo.ID, p.ID, PostInput{Text: "third"})
	require.NoError(t, err)
	assert.Nil(t, updated.GroupID)
}

func TestDeletePostCascadesComments(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")
	ann := createUser(t, d, "ann")

	p, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "post"})
	require.NoError(t, err)
	other, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "other"})
	require.NoError(t, err)
	for _, text := range []string{"one", "two"} {
		_, err := s.CreateComment(ctx, p.ID, ann.ID, text)
		require.NoError(t, err)
	}
	_, err = s.CreateComment(ctx, other.ID, ann.ID, "stays")
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeletePost(ctx, ann.ID, p.ID), ErrForbidden)
	require.NoError(t, s.DeletePost(ctx, leo.ID, p.ID))
	assert.ErrorIs(t, s.DeletePost(ctx, leo.ID, p.ID), ErrNotFound)

	var n int64
	require.NoError(t, d.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, d.Model(&models.Comment{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDeleteGroupDetachesPosts(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")
	g, err := s.CreateGroup(ctx, "Birds", "birds", "")
	require.NoError(t, err)

	p1, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "tweet", GroupID: &g.ID})
	require.NoError(t, err)
	p2, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "chirp", GroupID: &g.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteGroup(ctx, g.ID))
	assert.ErrorIs(t, s.DeleteGroup(ctx, g.ID), ErrNotFound)

	_, err = s.GroupBySlug(ctx, "birds")
	assert.ErrorIs(t, err, ErrNotFound)
	for _, id := range []int64{p1.ID, p2.ID} {
		p, err := s.PostByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, p.GroupID)
		assert.Nil(t, p.Group)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	_, err := s.CreateGroup(ctx, "Cats", "cats", "")
	require.NoError(t, err)

	var verr *ValidationError
	_, err = s.CreateGroup(ctx, "More cats", "cats", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	_, err = s.CreateGroup(ctx, "Bad", "not a slug!", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	_, err = s.CreateGroup(ctx, "", "empty", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestComments(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")
	ann := createUser(t, d, "ann")
	bob := createUser(t, d, "bob")
	p, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "post"})
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, 404, ann.ID, "lost")
	assert.ErrorIs(t, err, ErrNotFound)
	var verr *ValidationError
	_, err = s.CreateComment(ctx, p.ID, ann.ID, "")
	require.ErrorAs(t, err, &verr)

	first, err := s.CreateComment(ctx, p.ID, ann.ID, "first")
	require.NoError(t, err)
	second, err := s.CreateComment(ctx, p.ID, bob.ID, "second")
	require.NoError(t, err)

	comments, err := s.CommentsForPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, "bob", comments[0].Author.Username)
	assert.Equal(t, first.ID, comments[1].ID)

	_, err = s.DeleteComment(ctx, bob.ID, first.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	// the post author may moderate comments under their post
	deleted, err := s.DeleteComment(ctx, leo.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.PostID)
	_, err = s.DeleteComment(ctx, bob.ID, second.ID)
	require.NoError(t, err)
	_, err = s.DeleteComment(ctx, bob.ID, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")
	ann := createUser(t, d, "ann")

	leoPost, err := s.CreatePost(ctx, leo.ID, PostInput{Text: "by leo"})
	require.NoError(t, err)
	annPost, err := s.CreatePost(ctx, ann.ID, PostInput{Text: "by ann"})
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, leoPost.ID, ann.ID, "ann on leo")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, annPost.ID, leo.ID, "leo on ann")
	require.NoError(t, err)
	require.NoError(t, d.Omit(clause.Associations).Create(&models.Follow{UserID: ann.ID, AuthorID: leo.ID}).Error)
	require.NoError(t, d.Omit(clause.Associations).Create(&models.Follow{UserID: leo.ID, AuthorID: ann.ID}).Error)

	require.NoError(t, s.DeleteUser(ctx, leo.ID))

	_, err = s.UserByUsername(ctx, "leo")
	assert.ErrorIs(t, err, ErrNotFound)
	var follows, comments, posts int64
	require.NoError(t, d.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, d.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, d.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, follows)
	assert.Zero(t, comments)
	assert.Equal(t, int64(1), posts)

	assert.ErrorIs(t, s.DeleteUser(ctx, leo.ID), ErrNotFound)
}

func TestUserLookups(t *testing.T) {
	s, d := createTestStore(t)
	ctx := context.Background()
	leo := createUser(t, d, "leo")

	u, err := s.UserByID(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, "leo", u.Username)
	_, err = s.UserByID(ctx, leo.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.CountPostsByAuthor(ctx, leo.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()

	rel, err := SaveImage(dir, smallGIF)
	require.NoError(t, err)
	assert.Regexp(t, `^posts/[0-9a-f-]{36}\.gif$`, rel)
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, data)

	var verr *ValidationError
	_, err = SaveImage(dir, []byte("definitely not an image"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "image", verr.Field)

	_, err = SaveImage(dir, nil)
	require.ErrorAs(t, err, &verr)
}
