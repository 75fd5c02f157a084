package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const draftColumns = `id, title, slug, excerpt, content, tags, cover_image, source_link,
	published, published_at, author, created_at, updated_at`

// PostgresStore keeps drafts in the posts table. It works with both the
// lib/pq and pgx database/sql drivers.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, draft Draft) (Draft, error) {
	if s == nil || s.db == nil {
		return Draft{}, errors.New("draft store unavailable")
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	if draft.Tags == nil {
		draft.Tags = []string{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (`+draftColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		draft.ID,
		draft.Title,
		draft.Slug,
		draft.Excerpt,
		draft.Content,
		pq.Array(draft.Tags),
		draft.CoverImage,
		draft.SourceLink,
		draft.Published,
		draft.PublishedAt,
		draft.Author,
		draft.CreatedAt,
		draft.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Draft{}, fmt.Errorf("insert draft %q: %w", draft.Slug, ErrSlugConflict)
		}
		return Draft{}, fmt.Errorf("insert draft: %w", err)
	}
	return draft, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Draft, error) {
	if s == nil || s.db == nil {
		return Draft{}, errors.New("draft store unavailable")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM posts WHERE id = $1`, id)
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNotFound
	}
	return draft, err
}

func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, "slug lookup", `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug)
}

func (s *PostgresStore) SourceLinkExists(ctx context.Context, link string) (bool, error) {
	return s.exists(ctx, "source link lookup", `SELECT EXISTS (SELECT 1 FROM posts WHERE source_link = $1)`, link)
}

func (s *PostgresStore) ContentContains(ctx context.Context, fragment string) (bool, error) {
	return s.exists(ctx, "content lookup", `SELECT EXISTS (SELECT 1 FROM posts WHERE strpos(content, $1) > 0)`, fragment)
}

func (s *PostgresStore) TitleContains(ctx context.Context, phrase string) (bool, error) {
	return s.exists(ctx, "title lookup", `SELECT EXISTS (SELECT 1 FROM posts WHERE strpos(lower(title), lower($1)) > 0)`, phrase)
}

func (s *PostgresStore) exists(ctx context.Context, what, query string, arg any) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("draft store unavailable")
	}
	var found bool
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("%s: %w", what, err)
	}
	return found, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, author string, cutoff time.Time) ([]Draft, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("draft store unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+draftColumns+`
		FROM posts
		WHERE author = $1
		AND published = FALSE
		AND created_at < $2
		ORDER BY created_at ASC
	`, author, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list pending drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

func (s *PostgresStore) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("draft store unavailable")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET published = TRUE, published_at = $2, updated_at = $2 WHERE id = $1 AND published = FALSE`,
		id, at.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("publish draft: %w", err)
	}
	return affected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("draft store unavailable")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND published = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("delete draft: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

type draftScanner interface {
	Scan(dest ...any) error
}

func scanDraft(s draftScanner) (Draft, error) {
	var d Draft
	var publishedAt sql.NullTime
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Slug,
		&d.Excerpt,
		&d.Content,
		pq.Array(&d.Tags),
		&d.CoverImage,
		&d.SourceLink,
		&d.Published,
		&publishedAt,
		&d.Author,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, err
		}
		return Draft{}, fmt.Errorf("scan draft: %w", err)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		d.PublishedAt = &t
	}
	return d, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
