// Package follow manages subscription edges between readers and authors.
package follow

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blog/internal/app"
	"blog/internal/models"
	"blog/internal/store"
)

type Manager struct {
	db *gorm.DB
}

func NewManager(s *store.Store) *Manager {
	return &Manager{db: s.DB()}
}

// Follow subscribes followerID to authorID. Following oneself is silently
// ignored and following twice leaves a single edge. The unique index on
// (user_id, author_id) settles concurrent calls; the loser's insert is a
// no-op.
func (m *Manager) Follow(ctx context.Context, followerID, authorID int64) error {
	if followerID == authorID {
		return nil
	}
	var n int64
	if err := m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", authorID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check author")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&models.Follow{UserID: followerID, AuthorID: authorID}).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return store.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "follow %d -> %d", followerID, authorID)
	}
	app.Log.WithField("user", followerID).WithField("author", authorID).Debug("follow")
	return nil
}

// Unfollow removes the edge if there is one.
func (m *Manager) Unfollow(ctx context.Context, followerID, authorID int64) error {
	err := m.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return errors.Wrapf(err, "unfollow %d -> %d", followerID, authorID)
	}
	return nil
}

func (m *Manager) IsFollowing(ctx context.Context, followerID, authorID int64) (bool, error) {
	var n int64
	err := m.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Limit(1).Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check follow")
	}
	return n > 0, nil
}

// Counts returns how many authors userID follows and how many users follow
// userID.
func (m *Manager) Counts(ctx context.Context, userID int64) (following, followers int64, err error) {
	conn := m.db.WithContext(ctx).Model(&models.Follow{})
	if err = conn.Where("user_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, errors.Wrap(err, "count following")
	}
	conn = m.db.WithContext(ctx).Model(&models.Follow{})
	if err = conn.Where("author_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, errors.Wrap(err, "count followers")
	}
	return following, followers, nil
}
