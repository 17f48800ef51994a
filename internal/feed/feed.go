// Package feed composes the post listings shown to readers: everything, a
// group, an author, or the authors a user follows.
package feed

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"blog/internal/models"
	"blog/internal/store"
)

// ErrAnonymous is returned for a follow feed without a user. Callers must
// require authentication before offering that feed.
var ErrAnonymous = errors.New("follow feed needs an authenticated user")

type Kind int

const (
	KindAll Kind = iota
	KindGroup
	KindAuthor
	KindFollowedBy
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindGroup:
		return "group"
	case KindAuthor:
		return "author"
	case KindFollowedBy:
		return "followed_by"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Criterion selects which posts a feed holds. Build one with All, ByGroup,
// ByAuthor or FollowedBy.
type Criterion struct {
	Kind     Kind
	Slug     string
	Username string
	UserID   int64
}

func All() Criterion                     { return Criterion{Kind: KindAll} }
func ByGroup(slug string) Criterion      { return Criterion{Kind: KindGroup, Slug: slug} }
func ByAuthor(username string) Criterion { return Criterion{Kind: KindAuthor, Username: username} }
func FollowedBy(userID int64) Criterion  { return Criterion{Kind: KindFollowedBy, UserID: userID} }

func (c Criterion) String() string {
	switch c.Kind {
	case KindGroup:
		return "group:" + c.Slug
	case KindAuthor:
		return "author:" + c.Username
	case KindFollowedBy:
		return fmt.Sprintf("followed_by:%d", c.UserID)
	}
	return c.Kind.String()
}

// Feed is the composed, ordered post list. Group or Author is set when the
// criterion named one.
type Feed struct {
	Criterion Criterion
	Posts     []models.Post
	Group     *models.Group
	Author    *models.User
}

type Composer struct {
	store *store.Store
}

func NewComposer(s *store.Store) *Composer {
	return &Composer{store: s}
}

// Compose resolves crit against the store. Unknown group slugs and usernames
// fail with store.ErrNotFound. Posts come newest first, ties by descending
// id, each with author and group loaded.
func (c *Composer) Compose(ctx context.Context, crit Criterion) (*Feed, error) {
	f := &Feed{Criterion: crit}
	var filter store.PostFilter

	switch crit.Kind {
	case KindAll:
	case KindGroup:
		g, err := c.store.GroupBySlug(ctx, crit.Slug)
		if err != nil {
			return nil, err
		}
		f.Group = g
		filter.GroupID = &g.ID
	case KindAuthor:
		u, err := c.store.UserByUsername(ctx, crit.Username)
		if err != nil {
			return nil, err
		}
		f.Author = u
		filter.AuthorID = &u.ID
	case KindFollowedBy:
		if crit.UserID == 0 {
			return nil, ErrAnonymous
		}
		uid := crit.UserID
		filter.FollowerID = &uid
	default:
		return nil, errors.Errorf("unknown feed kind %v", crit.Kind)
	}

	posts, err := c.store.ListPosts(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "compose %s feed", crit)
	}
	f.Posts = posts
	return f, nil
}
