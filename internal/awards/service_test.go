package awards

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"communityhub/internal/notifications"
	"communityhub/internal/queue"
)

func newMockService(t *testing.T, workers int) (*Service, sqlmock.Sqlmock, *sql.DB, *queue.InMemory) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	q := queue.NewInMemory(16)
	svc := NewService(NewRepository(db), notifications.NewNotifier(q), workers)
	return svc, mock, db, q
}

func issueInput() IssueInput {
	return IssueInput{
		UserID:         "u1",
		WorkshopID:     "w1",
		WorkshopTitle:  "Intro to Go",
		Org:            "CES",
		BadgeURL:       "https://cdn/badge.png",
		CertificateURL: "https://cdn/cert.png",
	}
}

func TestIssue_WritesBadgeCertificateAndNotifies(t *testing.T) {
	svc, mock, db, q := newMockService(t, 1)
	defer db.Close()

	mock.ExpectExec("INSERT INTO badges").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO certificates").WillReturnResult(sqlmock.NewResult(0, 1))

	badge, cert, err := svc.Issue(context.Background(), issueInput())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if badge.Title != "Intro to Go Badge" {
		t.Fatalf("unexpected badge title %q", badge.Title)
	}
	if cert.Title != "Intro to Go Certificate" {
		t.Fatalf("unexpected certificate title %q", cert.Title)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, _ := q.Consume(ctx)
	msg := <-out
	if msg.Kind != notifications.JobKind {
		t.Fatalf("expected notification job, got %q", msg.Kind)
	}
	var job notifications.Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.UserID != "u1" || job.Type != notifications.TypeSuccess {
		t.Fatalf("unexpected job %+v", job)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIssue_CompensatesBadgeWhenCertificateFails(t *testing.T) {
	svc, mock, db, _ := newMockService(t, 1)
	defer db.Close()

	mock.ExpectExec("INSERT INTO badges").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO certificates").WillReturnError(sql.ErrConnDone)
	// the committed badge is removed so no badge-without-certificate survives
	mock.ExpectExec("DELETE FROM badges").WillReturnResult(sqlmock.NewResult(0, 1))

	if _, _, err := svc.Issue(context.Background(), issueInput()); err == nil {
		t.Fatal("expected issue to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIssue_RequiresUserAndWorkshop(t *testing.T) {
	svc, _, db, _ := newMockService(t, 1)
	defer db.Close()

	if _, _, err := svc.Issue(context.Background(), IssueInput{WorkshopID: "w1"}); err == nil {
		t.Fatal("expected error for missing user")
	}
	if _, _, err := svc.Issue(context.Background(), IssueInput{UserID: "u1"}); err == nil {
		t.Fatal("expected error for missing workshop")
	}
}

func TestBulkIssue_OneFailureDoesNotBlockOthers(t *testing.T) {
	// one worker keeps the mock's expectation order deterministic
	svc, mock, db, _ := newMockService(t, 1)
	defer db.Close()

	// u1 succeeds
	mock.ExpectExec("INSERT INTO badges").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO certificates").WillReturnResult(sqlmock.NewResult(0, 1))
	// u2 fails on the badge insert
	mock.ExpectExec("INSERT INTO badges").WillReturnError(sql.ErrConnDone)
	// u3 succeeds
	mock.ExpectExec("INSERT INTO badges").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO certificates").WillReturnResult(sqlmock.NewResult(0, 1))

	in := issueInput()
	in.UserID = ""
	outcomes := svc.BulkIssue(context.Background(), []string{"u1", "u2", "u3"}, in)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].OK || outcomes[0].UserID != "u1" {
		t.Fatalf("expected u1 to succeed: %+v", outcomes[0])
	}
	if outcomes[1].OK || outcomes[1].Error == "" {
		t.Fatalf("expected u2 to fail with an error: %+v", outcomes[1])
	}
	if !outcomes[2].OK || outcomes[2].UserID != "u3" {
		t.Fatalf("expected u3 to succeed: %+v", outcomes[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRevoke_RemovesBothTables(t *testing.T) {
	svc, mock, db, _ := newMockService(t, 1)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM badges").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM certificates").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := svc.Revoke(context.Background(), "u1", "w1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows removed, got %d", removed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
