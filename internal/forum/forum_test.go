package forum

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	posts    map[string]Post
	comments map[string][]Comment
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: map[string]Post{}, comments: map[string][]Comment{}}
}

func (f *fakeStore) CreatePost(_ context.Context, p Post) (Post, error) {
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetPost(_ context.Context, id string) (Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return Post{}, errors.New("post not found")
	}
	return p, nil
}

func (f *fakeStore) ListPosts(_ context.Context) ([]Post, error) {
	out := make([]Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) IncrementViewCount(_ context.Context, id string) error {
	p, ok := f.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	p.ViewCount++
	f.posts[id] = p
	return nil
}

func (f *fakeStore) CreateComment(_ context.Context, c Comment) (Comment, error) {
	f.comments[c.PostID] = append(f.comments[c.PostID], c)
	return c, nil
}

func (f *fakeStore) ListComments(_ context.Context, postID string) ([]Comment, error) {
	return f.comments[postID], nil
}

func (f *fakeStore) IncrementCommentCount(_ context.Context, id string) error {
	p, ok := f.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	p.CommentCount++
	f.posts[id] = p
	return nil
}

func TestNewPost_Validation(t *testing.T) {
	svc := NewService(newFakeStore())

	if _, err := svc.NewPost(context.Background(), "a@b.c", "", "content", "Best Practices"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := svc.NewPost(context.Background(), "a@b.c", "title", "content", "Gossip"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}

	p, err := svc.NewPost(context.Background(), "a@b.c", "Harness check", "How often?", "Safety Question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" || p.CreatedBy != "a@b.c" || p.ViewCount != 0 {
		t.Fatalf("post fields wrong: %+v", p)
	}
}

func TestView_BumpsCounter(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st)
	p, err := svc.NewPost(context.Background(), "a@b.c", "t", "c", "General Discussion")
	if err != nil {
		t.Fatalf("new post: %v", err)
	}

	for i := 1; i <= 3; i++ {
		got, err := svc.View(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if got.ViewCount != i {
			t.Fatalf("view %d: count = %d", i, got.ViewCount)
		}
	}
}

func TestComment_BumpsCounterAndValidates(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st)
	p, err := svc.NewPost(context.Background(), "a@b.c", "t", "c", "Work Scenario")
	if err != nil {
		t.Fatalf("new post: %v", err)
	}

	if _, err := svc.Comment(context.Background(), p.ID, "x@y.z", ""); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}

	c, err := svc.Comment(context.Background(), p.ID, "x@y.z", "Every shift.")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c.PostID != p.ID {
		t.Fatalf("comment post id wrong: %+v", c)
	}

	got, _ := st.GetPost(context.Background(), p.ID)
	if got.CommentCount != 1 {
		t.Fatalf("comment count = %d, want 1", got.CommentCount)
	}
	comments, _ := svc.Comments(context.Background(), p.ID)
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}
}
