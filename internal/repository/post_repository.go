package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/image-discovery-go/pkg/models"
)

const postColumns = `post_id, user_id, img_id, user_question, object_label, ai_answer, ai_question,
location, latitude, longitude, date, updated_at`

// PGPostRepository implements PostRepository on Postgres
type PGPostRepository struct {
	DB *sql.DB
}

// NewPGPostRepository creates a Postgres-backed post repository
func NewPGPostRepository(db *sql.DB) PostRepository {
	return &PGPostRepository{DB: db}
}

func (r *PGPostRepository) Create(ctx context.Context, post *models.Post) error {
	const query = `
INSERT INTO posts (` + postColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		post.PostID,
		post.UserID,
		post.ImgID,
		post.UserQuestion,
		post.ObjectLabel,
		post.AIAnswer,
		post.AIQuestion,
		post.Location,
		post.Latitude,
		post.Longitude,
		post.Date,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", post.PostID, err)
	}
	return nil
}

func (r *PGPostRepository) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE post_id = $1`, id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select post %s: %w", id, err)
	}
	return post, nil
}

func (r *PGPostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY date DESC, post_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return collectPosts(rows)
}

func (r *PGPostRepository) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE date < $1 ORDER BY date DESC, post_id LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return collectPosts(rows)
}

func (r *PGPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE post_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return requireOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.PostID,
		&p.UserID,
		&p.ImgID,
		&p.UserQuestion,
		&p.ObjectLabel,
		&p.AIAnswer,
		&p.AIQuestion,
		&p.Location,
		&p.Latitude,
		&p.Longitude,
		&p.Date,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	defer rows.Close()
	posts := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}
