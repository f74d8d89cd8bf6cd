package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const searchDocument = `to_tsvector('simple',
	object_label || ' ' || ai_answer || ' ' || ai_question || ' ' || user_question || ' ' || location)`

// PGSearchRepository ranks posts with Postgres full-text search. The
// document expression matches the posts_search_idx GIN index.
type PGSearchRepository struct {
	DB *sql.DB
}

// NewPGSearchRepository creates a full-text search repository
func NewPGSearchRepository(db *sql.DB) SearchRepository {
	return &PGSearchRepository{DB: db}
}

func (r *PGSearchRepository) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	const sqlQuery = `
SELECT post_id FROM posts, plainto_tsquery('simple', $1) AS q
WHERE ` + searchDocument + ` @@ q
ORDER BY ts_rank(` + searchDocument + `, q) DESC, date DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return collectIDs(rows)
}

// Related matches any word of text, so partial label overlaps still count.
func (r *PGSearchRepository) Related(ctx context.Context, exclude uuid.UUID, text string, limit int) ([]uuid.UUID, error) {
	const sqlQuery = `
SELECT post_id FROM posts,
	to_tsquery('simple', array_to_string(ARRAY(
		SELECT quote_literal(lexeme) FROM unnest(tsvector_to_array(to_tsvector('simple', $2))) AS lexeme
	), ' | ')) AS q
WHERE post_id <> $1 AND ` + searchDocument + ` @@ q
ORDER BY ts_rank(` + searchDocument + `, q) DESC, date DESC
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, sqlQuery, exclude, text, limit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post ids: %w", err)
	}
	return ids, nil
}
