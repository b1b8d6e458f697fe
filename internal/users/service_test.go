package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"communityhub/internal/awards"
	"communityhub/internal/community"
	"communityhub/internal/notifications"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	svc := NewService(
		NewRepository(db),
		awards.NewRepository(db),
		notifications.NewRepository(db),
		nil,
		TokenConfig{Issuer: "test", SigningKey: "secret", AccessTTL: time.Minute, RefreshTTL: time.Hour},
	)
	return svc, mock, db
}

func profileRows(id string, role Role, org any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "role", "officer_org", "avatar_url", "created_at"}).
		AddRow(id, "Alex", "alex@example.com", string(role), org, "", time.Now())
}

func TestPromote_MemberBecomesGeneralOfficer(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleMember, nil))
	mock.ExpectExec("UPDATE profiles SET role").
		WithArgs("u1", string(RoleOfficer), "GENERAL").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, changed, err := svc.Promote(context.Background(), "u1")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true")
	}
	if user.Role != RoleOfficer || user.OfficerOrg != community.OrgGeneral {
		t.Fatalf("expected GENERAL officer, got %s/%s", user.Role, user.OfficerOrg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPromote_OfficerKeepsOrg(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleOfficer, "CES"))
	mock.ExpectExec("UPDATE profiles SET role").
		WithArgs("u1", string(RoleAdmin), "CES").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, changed, err := svc.Promote(context.Background(), "u1")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !changed || user.Role != RoleAdmin || user.OfficerOrg != community.OrgCES {
		t.Fatalf("expected ADMIN keeping CES, got %s/%s changed=%v", user.Role, user.OfficerOrg, changed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPromote_AdminIsNoOp(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleAdmin, "TCC"))

	user, changed, err := svc.Promote(context.Background(), "u1")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if changed {
		t.Fatal("expected no change for admin")
	}
	if user.Role != RoleAdmin {
		t.Fatalf("expected role unchanged, got %s", user.Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no write should happen: %v", err)
	}
}

func TestDemote_AdminWithoutOrgGetsGeneral(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleAdmin, nil))
	mock.ExpectExec("UPDATE profiles SET role").
		WithArgs("u1", string(RoleOfficer), "GENERAL").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, changed, err := svc.Demote(context.Background(), "u1")
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if !changed || user.Role != RoleOfficer || user.OfficerOrg != community.OrgGeneral {
		t.Fatalf("expected GENERAL officer, got %s/%s changed=%v", user.Role, user.OfficerOrg, changed)
	}
}

func TestDemote_OfficerLosesOrg(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleOfficer, "ICSO"))
	mock.ExpectExec("UPDATE profiles SET role").
		WithArgs("u1", string(RoleMember), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, changed, err := svc.Demote(context.Background(), "u1")
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if !changed || user.Role != RoleMember || user.OfficerOrg != "" {
		t.Fatalf("expected plain member, got %s/%s changed=%v", user.Role, user.OfficerOrg, changed)
	}
}

func TestDemote_MemberIsNoOp(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleMember, nil))

	_, changed, err := svc.Demote(context.Background(), "u1")
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if changed {
		t.Fatal("expected no change for member")
	}
}

func TestLoadProfile_EmptyCollectionsAreNonNil(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleMember, nil))
	mock.ExpectQuery("FROM badges WHERE user_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "org", "workshop_id", "workshop_title", "asset_url", "issued_at"}))
	mock.ExpectQuery("FROM certificates WHERE user_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "org", "workshop_id", "workshop_title", "asset_url", "issued_at"}))
	mock.ExpectQuery("FROM notifications").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "message", "read", "created_at"}))

	profile, err := svc.LoadProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.Badges == nil || profile.Certificates == nil || profile.Notifications == nil {
		t.Fatal("expected non-nil empty collections")
	}
	if len(profile.Badges)+len(profile.Certificates)+len(profile.Notifications) != 0 {
		t.Fatal("expected all collections empty")
	}
}

func TestLoadProfile_SubFetchErrorPropagates(t *testing.T) {
	svc, mock, db := newMockService(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, role, officer_org, avatar_url, created_at").
		WillReturnRows(profileRows("u1", RoleMember, nil))
	mock.ExpectQuery("FROM badges WHERE user_id").
		WillReturnError(sql.ErrConnDone)

	if _, err := svc.LoadProfile(context.Background(), "u1"); err == nil {
		t.Fatal("expected badge fetch failure to propagate")
	}
}

func TestSignUp_RejectsShortPassword(t *testing.T) {
	svc, _, db := newMockService(t)
	defer db.Close()

	if _, _, err := svc.SignUp(context.Background(), "Alex", "alex@example.com", "short"); err == nil {
		t.Fatal("expected error for short password")
	}
}
