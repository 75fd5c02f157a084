package content

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var draftCols = []string{
	"id", "title", "slug", "excerpt", "content", "tags", "cover_image", "source_link",
	"published", "published_at", "author", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := NewPostgresStore(db)
	store.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestPostgresCreateAssignsIDAndTimestamps(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO posts`).WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := store.Create(context.Background(), Draft{Title: "Node 22 Patch", Slug: "node-22-patch", Author: AutomatedAuthor})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !saved.CreatedAt.Equal(store.now()) || !saved.UpdatedAt.Equal(store.now()) {
		t.Fatalf("unexpected timestamps %v %v", saved.CreatedAt, saved.UpdatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresCreateMapsUniqueViolation(t *testing.T) {
	for name, dbErr := range map[string]error{
		"pq":  &pq.Error{Code: "23505"},
		"pgx": &pgconn.PgError{Code: "23505"},
	} {
		t.Run(name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(`INSERT INTO posts`).WillReturnError(dbErr)

			_, err := store.Create(context.Background(), Draft{Slug: "dup"})
			if !errors.Is(err, ErrSlugConflict) {
				t.Fatalf("expected ErrSlugConflict, got %v", err)
			}
		})
	}
}

func TestPostgresGet(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM posts WHERE id = \$1`).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(draftCols).AddRow(
			"d1", "Title", "title", "excerpt", "body", "{go,node}", "", "https://x/a",
			false, nil, AutomatedAuthor, created, created,
		))

	d, err := store.Get(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Slug != "title" || len(d.Tags) != 2 || d.Tags[1] != "node" {
		t.Fatalf("unexpected draft %#v", d)
	}
	if d.PublishedAt != nil {
		t.Fatalf("expected nil published_at")
	}

	mock.ExpectQuery(`SELECT .+ FROM posts WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(draftCols))
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresLookups(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`)).
		WithArgs("node-22").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`strpos(content, $1)`)).
		WithArgs("https://x/a").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`strpos(lower(title), lower($1))`)).
		WithArgs("Critical Security Patch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE source_link = $1`)).
		WithArgs("https://x/a").
		WillReturnError(errors.New("connection reset"))

	if ok, err := store.SlugExists(ctx, "node-22"); err != nil || !ok {
		t.Fatalf("SlugExists = %v, %v", ok, err)
	}
	if ok, err := store.ContentContains(ctx, "https://x/a"); err != nil || ok {
		t.Fatalf("ContentContains = %v, %v", ok, err)
	}
	if ok, err := store.TitleContains(ctx, "Critical Security Patch"); err != nil || !ok {
		t.Fatalf("TitleContains = %v, %v", ok, err)
	}
	if _, err := store.SourceLinkExists(ctx, "https://x/a"); err == nil {
		t.Fatalf("expected lookup error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresListPending(t *testing.T) {
	store, mock := newMockStore(t)
	cutoff := time.Date(2026, 3, 1, 8, 45, 0, 0, time.UTC)
	created := cutoff.Add(-time.Hour)
	mock.ExpectQuery(`WHERE author = \$1\s+AND published = FALSE\s+AND created_at < \$2`).
		WithArgs(AutomatedAuthor, cutoff).
		WillReturnRows(sqlmock.NewRows(draftCols).
			AddRow("a", "A", "a", "", "", "{}", "", "", false, nil, AutomatedAuthor, created, created).
			AddRow("b", "B", "b", "", "", "{}", "", "", false, nil, AutomatedAuthor, created, created))

	drafts, err := store.ListPending(context.Background(), AutomatedAuthor, cutoff)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 2 || drafts[0].ID != "a" {
		t.Fatalf("unexpected drafts %#v", drafts)
	}
}

func TestPostgresConditionalTransitions(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE posts SET published = TRUE .+ WHERE id = \$1 AND published = FALSE`).
		WithArgs("d1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE posts SET published = TRUE`).
		WithArgs("d1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1 AND published = FALSE`).
		WithArgs("d2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if ok, err := store.Publish(ctx, "d1", at); err != nil || !ok {
		t.Fatalf("first publish = %v, %v", ok, err)
	}
	if ok, err := store.Publish(ctx, "d1", at); err != nil || ok {
		t.Fatalf("second publish = %v, %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "d2"); err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
