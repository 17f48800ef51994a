package models

import (
	"time"
)

// TextLimit is how many characters of a post or comment String() shows.
// It is overridden from configuration at start-up.
var TextLimit = 15

/*
User is the identity a post, comment or follow edge refers to.

Username: unique, used in profile URLs
Email: unique, used to log in
PasswordHash: bcrypt hash, never rendered
*/
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"-"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `gorm:"<-:create" json:"-"`
}

type Session struct {
	ID        string    `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

/*
Group is a thematic community posts can be published to.

Slug: unique, URL-safe identifier used in group URLs

Groups are not hard-deleted in normal flow; deleting one only detaches its
posts (Post.GroupID becomes NULL).
*/
type Group struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `json:"description"`
}

func (g Group) String() string { return g.Title }

/*
Post is a single entry written by an author.

CreatedAt: set once on insert and never updated, feeds order by it
GroupID: optional, reset to NULL when the group is deleted
AuthorID: required and immutable
Image: relative path of the attached image under the media dir, may be empty
*/
type Post struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `gorm:"<-:create;index" json:"created_at"`
	GroupID   *int64    `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	AuthorID  int64     `gorm:"<-:create;not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Image     string    `json:"image,omitempty"`
}

func (p Post) String() string { return truncate(p.Text, TextLimit) }

type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	PostID    int64     `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID  int64     `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `gorm:"<-:create;index" json:"created_at"`
}

func (c Comment) String() string { return truncate(c.Text, TextLimit) }

/*
Follow is a directed subscription edge from a follower (UserID) to an
author (AuthorID).

At most one edge exists per ordered pair, and an edge never points from a
user to themselves. Deleting either user removes the edge.
*/
type Follow struct {
	ID       int64 `gorm:"primaryKey"`
	UserID   int64 `gorm:"not null;uniqueIndex:idx_follow_user_author"`
	User     User  `gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID int64 `gorm:"not null;uniqueIndex:idx_follow_user_author;index;check:chk_follow_not_self,author_id <> user_id"`
	Author   User  `gorm:"constraint:OnDelete:CASCADE;"`
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
