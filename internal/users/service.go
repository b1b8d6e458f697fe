package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"communityhub/internal/auth"
	"communityhub/internal/awards"
	"communityhub/internal/community"
	"communityhub/internal/notifications"
)

// Profile is a user together with the owned collections the profile screen
// shows. The collections are always non-nil: a user with nothing issued yet
// gets empty slices, while a failed sub-fetch is a real error.
type Profile struct {
	User
	Badges        []awards.Badge               `json:"badges"`
	Certificates  []awards.Certificate         `json:"certificates"`
	Notifications []notifications.Notification `json:"notifications"`
}

// TokenConfig carries the JWT settings the auth flows need.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service runs profile workflows: sign-up/sign-in, the profile mapper, and the
// promote/demote role state machine.
type Service struct {
	repo     *Repository
	awards   *awards.Repository
	notifs   *notifications.Repository
	notifier *notifications.Notifier
	tokens   TokenConfig
}

// NewService creates a user service.
func NewService(repo *Repository, awardRepo *awards.Repository, notifRepo *notifications.Repository, notifier *notifications.Notifier, tokens TokenConfig) *Service {
	return &Service{repo: repo, awards: awardRepo, notifs: notifRepo, notifier: notifier, tokens: tokens}
}

// SignUp registers a new member and signs them in.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (User, auth.TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return User{}, auth.TokenPair{}, fmt.Errorf("name and email required")
	}
	if len(password) < 8 {
		return User{}, auth.TokenPair{}, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	user, err := s.repo.Create(ctx, User{Name: name, Email: email, Role: RoleMember}, hash)
	if err != nil {
		return User{}, auth.TokenPair{}, fmt.Errorf("create profile: %w", err)
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Welcome to the community, %s!", user.Name)
		_ = s.notifier.Send(ctx, user.ID, notifications.TypeInfo, msg)
	}

	pair, err := s.issueTokens(ctx, user)
	return user, pair, err
}

// SignIn verifies credentials and issues a token pair.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, hash, err := s.repo.GetCredentials(ctx, email)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if !auth.CheckPassword(hash, password) {
		return User{}, auth.TokenPair{}, fmt.Errorf("invalid credentials")
	}
	pair, err := s.issueTokens(ctx, user)
	return user, pair, err
}

// Refresh rotates a refresh token: the old token is revoked and a fresh pair
// issued, provided the stored token is unrevoked and unexpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (User, auth.TokenPair, error) {
	userID, revoked, expiresAt, err := s.repo.RefreshTokenState(ctx, refreshToken)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if revoked || time.Now().After(expiresAt) {
		return User{}, auth.TokenPair{}, fmt.Errorf("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return User{}, auth.TokenPair{}, err
	}
	pair, err := s.issueTokens(ctx, user)
	return user, pair, err
}

// SignOut revokes a refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *Service) issueTokens(ctx context.Context, user User) (auth.TokenPair, error) {
	pair, err := auth.Issue(user.ID, string(user.Role), string(user.OfficerOrg),
		s.tokens.Issuer, s.tokens.SigningKey, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("token issue failed: %w", err)
	}
	if err := s.repo.SaveRefreshToken(ctx, user.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		return auth.TokenPair{}, fmt.Errorf("save refresh token: %w", err)
	}
	return pair, nil
}

// LoadProfile maps a profile row plus its three owned collections. Each
// sub-fetch failure propagates, so callers can tell "no badges" apart from
// "badge fetch failed".
func (s *Service) LoadProfile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	badges, err := s.awards.BadgesByUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch badges: %w", err)
	}
	certs, err := s.awards.CertificatesByUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch certificates: %w", err)
	}
	notifs, err := s.notifs.ListByUser(ctx, userID, 50)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch notifications: %w", err)
	}

	return Profile{User: user, Badges: badges, Certificates: certs, Notifications: notifs}, nil
}

// Promote advances a user one role step:
// MEMBER -> OFFICER (assigned to GENERAL), OFFICER -> ADMIN (org kept).
// ADMIN is terminal and reports changed=false.
func (s *Service) Promote(ctx context.Context, userID string) (User, bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, false, err
	}

	switch user.Role {
	case RoleMember:
		user.Role = RoleOfficer
		user.OfficerOrg = community.OrgGeneral
	case RoleOfficer:
		user.Role = RoleAdmin
		// org kept: a promoted officer stays associated with their organization
	case RoleAdmin:
		return user, false, nil
	default:
		return User{}, false, fmt.Errorf("unknown role %q", user.Role)
	}

	if err := s.repo.UpdateRole(ctx, user.ID, user.Role, user.OfficerOrg); err != nil {
		return User{}, false, err
	}
	if s.notifier != nil {
		msg := fmt.Sprintf("You have been promoted to %s.", user.Role)
		_ = s.notifier.Send(ctx, user.ID, notifications.TypeSuccess, msg)
	}
	return user, true, nil
}

// Demote lowers a user one role step:
// ADMIN -> OFFICER (GENERAL if no org), OFFICER -> MEMBER (org cleared).
// MEMBER is terminal and reports changed=false.
func (s *Service) Demote(ctx context.Context, userID string) (User, bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, false, err
	}

	switch user.Role {
	case RoleAdmin:
		user.Role = RoleOfficer
		if user.OfficerOrg == "" {
			user.OfficerOrg = community.OrgGeneral
		}
	case RoleOfficer:
		user.Role = RoleMember
		user.OfficerOrg = ""
	case RoleMember:
		return user, false, nil
	default:
		return User{}, false, fmt.Errorf("unknown role %q", user.Role)
	}

	if err := s.repo.UpdateRole(ctx, user.ID, user.Role, user.OfficerOrg); err != nil {
		return User{}, false, err
	}
	if s.notifier != nil {
		msg := fmt.Sprintf("Your role has been changed to %s.", user.Role)
		_ = s.notifier.Send(ctx, user.ID, notifications.TypeInfo, msg)
	}
	return user, true, nil
}
