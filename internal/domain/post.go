package domain

import (
	"context"
	"time"
)

// PostCategory groups feed posts.
type PostCategory string

const (
	PostDepartmental PostCategory = "departmental"
	PostPersonal     PostCategory = "personal"
	PostWelfare      PostCategory = "welfare"
	PostTraining     PostCategory = "training"
	PostAchievements PostCategory = "achievements"
)

func (c PostCategory) Valid() bool {
	switch c {
	case PostDepartmental, PostPersonal, PostWelfare, PostTraining, PostAchievements:
		return true
	}
	return false
}

// MediaType is the kind of file attached to a post.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

func (m MediaType) Valid() bool {
	return m == MediaImage || m == MediaVideo || m == MediaDocument
}

// Media is an uploaded file referenced by a post.
type Media struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
	Name string    `json:"name,omitempty"`
	Size int64     `json:"size,omitempty"`
}

// Visibility limits who a post is meant for.
type Visibility string

const (
	VisibleAll        Visibility = "all"
	VisibleDepartment Visibility = "department"
	VisibleStation    Visibility = "station"
)

func (v Visibility) Valid() bool {
	return v == VisibleAll || v == VisibleDepartment || v == VisibleStation
}

// Post is an entry in the community feed. Likes holds the ids of members
// who liked it, each at most once.
type Post struct {
	ID               string       `json:"id"`
	AuthorID         string       `json:"author"`
	Text             string       `json:"text"`
	Media            []Media      `json:"media"`
	Category         PostCategory `json:"category"`
	IsOfficialNotice bool         `json:"isOfficialNotice"`
	IsPinned         bool         `json:"isPinned"`
	Visibility       Visibility   `json:"visibility"`
	Likes            []string     `json:"likes"`
	ReportCount      int          `json:"reportCount"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// PostFilter selects a page of the feed. Pinned posts sort first, then
// newest first.
type PostFilter struct {
	OfficialOnly bool
	Category     PostCategory
	Limit        int
	Offset       int
}

// PostRepository defines data access for feed posts
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, filter PostFilter) ([]*Post, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]*Post, error)
	// ToggleLike adds userID to the post's likes, or removes it if present.
	ToggleLike(ctx context.Context, id, userID string) (*Post, error)
	Pin(ctx context.Context, id string) (*Post, error)
	Delete(ctx context.Context, id string) error
}

// Comment is a reply on a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post"`
	AuthorID  string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentRepository defines data access for post comments. Create fails
// with ErrPostNotFound when the post does not exist.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)
}
