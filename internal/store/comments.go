package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blog/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, postID, authorID int64, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text", "this field is required")
	}

	c := &models.Comment{PostID: postID, AuthorID: authorID, Text: text}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check post")
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return errors.Wrap(err, "create comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CommentsForPost returns a post's comments, newest first, with authors
// loaded.
func (s *Store) CommentsForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.conn(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list comments of post %d", postID)
	}
	return comments, nil
}

// DeleteComment lets the comment's author or the post's author remove a
// comment. The comment is returned alongside ErrForbidden so callers can
// send the actor back to its post.
func (s *Store) DeleteComment(ctx context.Context, actorID, commentID int64) (*models.Comment, error) {
	var c models.Comment
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Post").Where("id = ?", commentID).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "load comment")
		}
		if c.AuthorID != actorID && (c.Post == nil || c.Post.AuthorID != actorID) {
			return ErrForbidden
		}
		if err := tx.Delete(&models.Comment{}, commentID).Error; err != nil {
			return errors.Wrap(err, "delete comment")
		}
		return nil
	})
	if errors.Is(err, ErrForbidden) {
		return &c, err
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
