// Package forum holds the community discussion board: categorized posts
// with view/comment counters and flat comment threads.
package forum

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Categories is the fixed set a post must belong to.
var Categories = []string{
	"Safety Question",
	"Work Scenario",
	"Equipment & Tools",
	"Regulations & Compliance",
	"Best Practices",
	"General Discussion",
}

var (
	ErrUnknownCategory = errors.New("forum: unknown category")
	ErrMissingField    = errors.New("forum: title and content required")
	ErrEmptyComment    = errors.New("forum: comment content required")
)

type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Category     string    `json:"category"`
	CreatedBy    string    `json:"created_by"` // user email
	IsPinned     bool      `json:"is_pinned"`
	ViewCount    int       `json:"view_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	CreatePost(ctx context.Context, p Post) (Post, error)
	GetPost(ctx context.Context, id string) (Post, error)
	ListPosts(ctx context.Context) ([]Post, error) // pinned first, then newest
	IncrementViewCount(ctx context.Context, id string) error
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	ListComments(ctx context.Context, postID string) ([]Comment, error) // oldest first
	IncrementCommentCount(ctx context.Context, id string) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) NewPost(ctx context.Context, createdBy, title, content, category string) (Post, error) {
	if title == "" || content == "" {
		return Post{}, ErrMissingField
	}
	if !validCategory(category) {
		return Post{}, ErrUnknownCategory
	}
	return s.store.CreatePost(ctx, Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Category:  category,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	})
}

func (s *Service) Posts(ctx context.Context) ([]Post, error) {
	return s.store.ListPosts(ctx)
}

// View returns one post, bumping its view counter first so the returned
// record already reflects this read.
func (s *Service) View(ctx context.Context, id string) (Post, error) {
	if err := s.store.IncrementViewCount(ctx, id); err != nil {
		return Post{}, err
	}
	return s.store.GetPost(ctx, id)
}

// Comment appends a comment and bumps the post's comment counter.
func (s *Service) Comment(ctx context.Context, postID, createdBy, content string) (Comment, error) {
	if content == "" {
		return Comment{}, ErrEmptyComment
	}
	c, err := s.store.CreateComment(ctx, Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	})
	if err != nil {
		return Comment{}, err
	}
	if err := s.store.IncrementCommentCount(ctx, postID); err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	return s.store.ListComments(ctx, postID)
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
