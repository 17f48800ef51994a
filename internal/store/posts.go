package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blog/internal/models"
)

// PostInput carries the author-editable fields of a post. An empty Image
// leaves the stored image untouched on update.
type PostInput struct {
	Text    string
	GroupID *int64
	Image   string
}

// PostFilter narrows ListPosts. Nil fields do not filter.
type PostFilter struct {
	GroupID    *int64
	AuthorID   *int64
	FollowerID *int64
}

// ListPosts returns posts with author and group loaded, newest first. Posts
// created at the same instant are ordered by descending id.
func (s *Store) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	q := s.conn(ctx).Model(&models.Post{}).Preload("Author").Preload("Group")
	if f.GroupID != nil {
		q = q.Where("posts.group_id = ?", *f.GroupID)
	}
	if f.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *f.AuthorID)
	}
	if f.FollowerID != nil {
		followed := s.conn(ctx).Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *f.FollowerID)
		q = q.Where("posts.author_id IN (?)", followed)
	}

	var posts []models.Post
	if err := q.Order("posts.created_at DESC").Order("posts.id DESC").Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	return posts, nil
}

func (s *Store) PostByID(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	err := s.conn(ctx).Preload("Author").Preload("Group").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load post %d", id)
	}
	return &p, nil
}

func (s *Store) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count posts")
	}
	return n, nil
}

func (s *Store) CreatePost(ctx context.Context, authorID int64, in PostInput) (*models.Post, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := s.validatePost(s.conn(ctx), in); err != nil {
		return nil, err
	}

	p := &models.Post{
		Text:     in.Text,
		GroupID:  in.GroupID,
		AuthorID: authorID,
		Image:    in.Image,
	}
	err := s.conn(ctx).Omit(clause.Associations).Create(p).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "create post")
	}
	return p, nil
}

// UpdatePost rewrites text, group and image of a post on behalf of actorID.
// Only the author may edit; author and creation time never change.
func (s *Store) UpdatePost(ctx context.Context, actorID, postID int64, in PostInput) (*models.Post, error) {
	in.Text = strings.TrimSpace(in.Text)
	var updated models.Post
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", postID).First(&updated).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "load post")
		}
		if updated.AuthorID != actorID {
			return ErrForbidden
		}
		if err := s.validatePost(tx, in); err != nil {
			return err
		}

		changes := map[string]interface{}{
			"text":     in.Text,
			"group_id": in.GroupID,
		}
		if in.Image != "" {
			changes["image"] = in.Image
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Updates(changes).Error; err != nil {
			return errors.Wrap(err, "update post")
		}
		return tx.Preload("Author").Preload("Group").Where("id = ?", postID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePost removes a post and its comments. Only the author may delete.
func (s *Store) DeletePost(ctx context.Context, actorID, postID int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Post
		if err := tx.Where("id = ?", postID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "load post")
		}
		if p.AuthorID != actorID {
			return ErrForbidden
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return errors.Wrap(err, "delete comments")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return errors.Wrap(err, "delete post")
		}
		return nil
	})
}

func (s *Store) validatePost(db *gorm.DB, in PostInput) error {
	if in.Text == "" {
		return invalid("text", "this field is required")
	}
	if in.GroupID == nil {
		return nil
	}
	var n int64
	if err := db.Model(&models.Group{}).Where("id = ?", *in.GroupID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check group")
	}
	if n == 0 {
		return invalid("group", "select a valid group")
	}
	return nil
}
