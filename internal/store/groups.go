package store

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"blog/internal/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func (s *Store) CreateGroup(ctx context.Context, title, slug, description string) (*models.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)
	if title == "" {
		return nil, invalid("title", "this field is required")
	}
	if len([]rune(title)) > 200 {
		return nil, invalid("title", "at most 200 characters")
	}
	if !slugPattern.MatchString(slug) {
		return nil, invalid("slug", "only letters, numbers, underscores or hyphens")
	}

	g := &models.Group{Title: title, Slug: slug, Description: description}
	err := s.conn(ctx).Create(g).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, invalid("slug", "a group with this slug already exists")
	}
	if err != nil {
		return nil, errors.Wrap(err, "create group")
	}
	return g, nil
}

func (s *Store) GroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	err := s.conn(ctx).Where("slug = ?", slug).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load group %q", slug)
	}
	return &g, nil
}

func (s *Store) Groups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.conn(ctx).Order("title").Find(&groups).Error; err != nil {
		return nil, errors.Wrap(err, "list groups")
	}
	return groups, nil
}

// DeleteGroup detaches the group's posts and removes the group. Posts are
// kept.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.Where("id = ?", id).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "load group")
		}
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return errors.Wrap(err, "detach posts")
		}
		if err := tx.Delete(&g).Error; err != nil {
			return errors.Wrap(err, "delete group")
		}
		return nil
	})
}
