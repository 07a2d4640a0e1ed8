package models

import (
	"time"
)

type Post struct {
	ID       int64
	AuthorID int64
	Content  string

	Audit
}

type Comment struct {
	ID       int64
	PostID   int64
	AuthorID int64
	Content  string

	Audit
}

type Follow struct {
	FollowerID int64
	FolloweeID int64
	CreatedAt  time.Time
}
