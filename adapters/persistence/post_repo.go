package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/post"
	"github.com/khoahotran/blog-search/internal/richtext"
	"github.com/khoahotran/blog-search/pkg/logger"
)

type postgresPostRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresPostRepo(db *pgxpool.Pool, log logger.Logger) post.Repository {
	return &postgresPostRepo{db: db, logger: log}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var postColumns = []string{
	"id", "slug", "title", "summary", "category", "content_json", "status", "published_at", "updated_at",
}

func scanPost(row pgx.Row) (*post.Post, error) {
	p := &post.Post{}
	var summary sql.NullString
	var contentBytes []byte
	var publishedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&summary,
		&p.Category,
		&contentBytes,
		&p.Status,
		&publishedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, post.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to scan post row: %w", err)
	}

	if summary.Valid {
		p.Summary = &summary.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}

	content, err := richtext.Parse(contentBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content_json of post %d: %w", p.ID, err)
	}
	p.ContentJSON = content
	return p, nil
}

func (r *postgresPostRepo) FindByID(ctx context.Context, id int64) (*post.Post, error) {
	query, args, err := psql.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find post query: %w", err)
	}

	return scanPost(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresPostRepo) ListVisible(ctx context.Context, now time.Time) ([]*post.Post, error) {
	query, args, err := psql.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"status": post.StatusPublished}).
		Where(sq.LtOrEq{"published_at": now}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list visible posts query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visible posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*post.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	r.logger.Debug("Listed visible posts", zap.Int("count", len(posts)))
	return posts, nil
}
