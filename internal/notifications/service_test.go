package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"communityhub/internal/queue"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewService(NewRepository(db), rdb), mock, db, mr
}

func TestProcess_PersistsAndBumpsCounter(t *testing.T) {
	svc, mock, db, mr := newMockService(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(Job{UserID: "u1", Type: TypeSuccess, Message: "hello"})
	if err := svc.Process(context.Background(), queue.Message{Kind: JobKind, Body: body}); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got, _ := mr.Get(unreadKeyPrefix + "u1"); got != "1" {
		t.Fatalf("expected unread counter 1, got %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProcess_IgnoresOtherKinds(t *testing.T) {
	svc, mock, db, _ := newMockService(t)
	defer db.Close()

	if err := svc.Process(context.Background(), queue.Message{Kind: "something-else"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no write should happen: %v", err)
	}
}

func TestUnreadCount_PrefersRedis(t *testing.T) {
	svc, mock, db, mr := newMockService(t)
	defer db.Close()

	mr.Set(unreadKeyPrefix+"u1", "7")

	count, err := svc.UnreadCount(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db should not be queried on a warm cache: %v", err)
	}
}

func TestUnreadCount_FallsBackToPostgres(t *testing.T) {
	svc, mock, db, mr := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := svc.UnreadCount(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
	// the cold cache is primed for the next poll
	if got, _ := mr.Get(unreadKeyPrefix + "u1"); got != "3" {
		t.Fatalf("expected counter primed to 3, got %q", got)
	}
}

func TestMarkRead_DropsCounter(t *testing.T) {
	svc, mock, db, mr := newMockService(t)
	defer db.Close()

	mr.Set(unreadKeyPrefix+"u1", "4")
	mock.ExpectExec("UPDATE notifications SET read").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.MarkRead(context.Background(), "u1", "n1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if mr.Exists(unreadKeyPrefix + "u1") {
		t.Fatal("expected stale counter to be dropped")
	}
}

func TestMarkRead_UnknownNotification(t *testing.T) {
	svc, mock, db, _ := newMockService(t)
	defer db.Close()

	mock.ExpectExec("UPDATE notifications SET read").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.MarkRead(context.Background(), "u1", "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkAllRead_ResetsCounter(t *testing.T) {
	svc, mock, db, mr := newMockService(t)
	defer db.Close()

	mr.Set(unreadKeyPrefix+"u1", "9")
	mock.ExpectExec("UPDATE notifications SET read").WillReturnResult(sqlmock.NewResult(0, 9))

	n, err := svc.MarkAllRead(context.Background(), "u1")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if n != 9 {
		t.Fatalf("expected 9 rows marked, got %d", n)
	}
	if got, _ := mr.Get(unreadKeyPrefix + "u1"); got != "0" {
		t.Fatalf("expected counter reset to 0, got %q", got)
	}
}
