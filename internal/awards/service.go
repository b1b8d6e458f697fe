package awards

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"communityhub/internal/community"
	"communityhub/internal/metrics"
	"communityhub/internal/notifications"
)

// IssueInput describes one badge+certificate issuance.
type IssueInput struct {
	UserID         string
	WorkshopID     string
	WorkshopTitle  string
	Org            community.Organization
	BadgeURL       string
	CertificateURL string
}

// Outcome is the per-participant result of a bulk issuance.
type Outcome struct {
	UserID string `json:"user_id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Service runs the award workflows: badge insert, certificate insert and a
// best-effort notification, with compensation instead of silent partial state.
type Service struct {
	repo        *Repository
	notifier    *notifications.Notifier
	bulkWorkers int
}

// NewService creates an award service. bulkWorkers bounds the fan-out of
// BulkIssue; values below 1 fall back to 4.
func NewService(repo *Repository, notifier *notifications.Notifier, bulkWorkers int) *Service {
	if bulkWorkers < 1 {
		bulkWorkers = 4
	}
	return &Service{repo: repo, notifier: notifier, bulkWorkers: bulkWorkers}
}

// Issue runs the single-award sequence. If the certificate insert fails after
// the badge insert succeeded, the badge is deleted again so no "has badge, no
// certificate" state survives. The notification is best-effort and never fails
// the sequence.
func (s *Service) Issue(ctx context.Context, in IssueInput) (Badge, Certificate, error) {
	if in.UserID == "" || in.WorkshopID == "" {
		return Badge{}, Certificate{}, fmt.Errorf("user and workshop required")
	}

	badge, err := s.repo.InsertBadge(ctx, Badge{
		UserID:        in.UserID,
		Title:         in.WorkshopTitle + " Badge",
		Org:           in.Org,
		WorkshopID:    in.WorkshopID,
		WorkshopTitle: in.WorkshopTitle,
		AssetURL:      in.BadgeURL,
	})
	if err != nil {
		metrics.AwardsFailed.Inc()
		return Badge{}, Certificate{}, fmt.Errorf("insert badge: %w", err)
	}

	cert, err := s.repo.InsertCertificate(ctx, Certificate{
		UserID:        in.UserID,
		Title:         in.WorkshopTitle + " Certificate",
		Org:           in.Org,
		WorkshopID:    in.WorkshopID,
		WorkshopTitle: in.WorkshopTitle,
		AssetURL:      in.CertificateURL,
	})
	if err != nil {
		// compensate the committed badge so the pair stays consistent
		_ = s.repo.DeleteBadge(ctx, badge.ID)
		metrics.AwardsFailed.Inc()
		return Badge{}, Certificate{}, fmt.Errorf("insert certificate: %w", err)
	}

	metrics.AwardsIssued.Inc()

	if s.notifier != nil {
		msg := fmt.Sprintf("Congratulations! You earned a badge and certificate for %s.", in.WorkshopTitle)
		_ = s.notifier.Send(ctx, in.UserID, notifications.TypeSuccess, msg)
	}

	return badge, cert, nil
}

// BulkIssue runs the single-issue sequence for every user id with bounded
// concurrency. Each participant gets an independent outcome; one failure never
// blocks issuance to the others.
func (s *Service) BulkIssue(ctx context.Context, userIDs []string, in IssueInput) []Outcome {
	outcomes := make([]Outcome, len(userIDs))

	var g errgroup.Group
	g.SetLimit(s.bulkWorkers)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			item := in
			item.UserID = userID
			_, _, err := s.Issue(ctx, item)
			if err != nil {
				outcomes[i] = Outcome{UserID: userID, Error: err.Error()}
				return nil
			}
			outcomes[i] = Outcome{UserID: userID, OK: true}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Revoke removes every badge and certificate the user earned from a workshop.
func (s *Service) Revoke(ctx context.Context, userID, workshopID string) (int64, error) {
	if userID == "" || workshopID == "" {
		return 0, fmt.Errorf("user and workshop required")
	}
	removed, err := s.repo.DeleteByUserWorkshop(ctx, userID, workshopID)
	if err != nil {
		return 0, err
	}
	if removed > 0 && s.notifier != nil {
		_ = s.notifier.Send(ctx, userID, notifications.TypeWarning, "Your awards for a workshop were revoked.")
	}
	return removed, nil
}
