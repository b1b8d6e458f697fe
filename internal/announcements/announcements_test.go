package announcements

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestToggleLike_InsertsWhenNotLiked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectExec("DELETE FROM announcement_likes").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO announcement_likes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err := repo.ToggleLike(context.Background(), "a1", "u1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !liked {
		t.Fatal("expected liked=true after first toggle")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestToggleLike_RemovesWhenAlreadyLiked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	// the delete finds a row, so no insert follows
	mock.ExpectExec("DELETE FROM announcement_likes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err := repo.ToggleLike(context.Background(), "a1", "u1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if liked {
		t.Fatal("expected liked=false after removing an existing like")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdate_UnknownAnnouncement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectExec("UPDATE announcements SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), Announcement{ID: "nope", Org: "CES"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_UnknownAnnouncement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery("FROM announcements a WHERE").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "content", "image_url", "org", "author_id",
			"author_name", "author_role", "author_avatar", "created_at", "like_count",
		}))

	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
