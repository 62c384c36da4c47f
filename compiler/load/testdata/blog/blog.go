package blog

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID          int64      `rel:"id,pk,auto"`
	Title       string     `rel:"title"`
	Stars       float64    `rel:"stars"`
	Published   bool       `rel:"published"`
	Summary     *string    `rel:"summary"`
	Token       uuid.UUID  `rel:"token"`
	Raw         []byte     `rel:"raw"`
	CreatedAt   time.Time  `rel:"created_at"`
	PublishedAt *time.Time `rel:"published_at"`
}

type markers struct{}

type Comment struct {
	markers

	ID   int64  `rel:"id,pk,auto"`
	Body string // derived column name
}

type NotAStruct int
