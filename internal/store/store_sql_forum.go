package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/safecert/whitecard-trainer/internal/forum"
)

/* ---------------- forum posts ---------------- */

func (s *SQLStore) CreatePost(ctx context.Context, p forum.Post) (forum.Post, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forum_posts (id,title,content,category,created_by,is_pinned,view_count,comment_count,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,0,0,$7)`,
		p.ID, p.Title, p.Content, p.Category, p.CreatedBy, p.IsPinned, p.CreatedAt.Unix())
	if err != nil {
		return forum.Post{}, persistErr("create post", err)
	}
	return s.GetPost(ctx, p.ID)
}

func (s *SQLStore) GetPost(ctx context.Context, id string) (forum.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,content,category,created_by,is_pinned,view_count,comment_count,created_at
		 FROM forum_posts WHERE id=$1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return forum.Post{}, ErrNotFound
	}
	if err != nil {
		return forum.Post{}, persistErr("get post", err)
	}
	return p, nil
}

func (s *SQLStore) ListPosts(ctx context.Context) ([]forum.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,content,category,created_by,is_pinned,view_count,comment_count,created_at
		 FROM forum_posts ORDER BY is_pinned DESC, created_at DESC, id`)
	if err != nil {
		return nil, persistErr("list posts", err)
	}
	defer rows.Close()

	var out []forum.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, persistErr("list posts", err)
		}
		out = append(out, p)
	}
	return out, persistErr("list posts", rows.Err())
}

func (s *SQLStore) IncrementViewCount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE forum_posts SET view_count = view_count + 1 WHERE id=$1`, id)
	if err != nil {
		return persistErr("increment views", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) IncrementCommentCount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE forum_posts SET comment_count = comment_count + 1 WHERE id=$1`, id)
	if err != nil {
		return persistErr("increment comments", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row rowScanner) (forum.Post, error) {
	var p forum.Post
	var createdAt int64
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Category, &p.CreatedBy,
		&p.IsPinned, &p.ViewCount, &p.CommentCount, &createdAt)
	if err != nil {
		return forum.Post{}, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

/* ---------------- forum comments ---------------- */

func (s *SQLStore) CreateComment(ctx context.Context, c forum.Comment) (forum.Comment, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forum_comments (id,post_id,content,created_by,created_at) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.PostID, c.Content, c.CreatedBy, c.CreatedAt.Unix())
	if err != nil {
		return forum.Comment{}, persistErr("create comment", err)
	}
	return c, nil
}

func (s *SQLStore) ListComments(ctx context.Context, postID string) ([]forum.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,post_id,content,created_by,created_at
		 FROM forum_comments WHERE post_id=$1 ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, persistErr("list comments", err)
	}
	defer rows.Close()

	var out []forum.Comment
	for rows.Next() {
		var c forum.Comment
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.CreatedBy, &createdAt); err != nil {
			return nil, persistErr("list comments", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, c)
	}
	return out, persistErr("list comments", rows.Err())
}
