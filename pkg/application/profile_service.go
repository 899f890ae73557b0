package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ProfileRecord is one user as imported from a profile file.
type ProfileRecord struct {
	User     profile.User             `yaml:"user"`
	Business *profile.BusinessProfile `yaml:"business,omitempty"`
	Pulses   []profile.Pulse          `yaml:"pulses,omitempty"`
}

// UnmarshalYAML defaults the send hour so an omitted field means the
// usual morning hour rather than midnight.
func (r *ProfileRecord) UnmarshalYAML(node *yaml.Node) error {
	type plain ProfileRecord
	p := plain{User: profile.User{DailySendHour: profile.DefaultSendHour}}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = ProfileRecord(p)
	return nil
}

// ProfileService stores the user and business records that plans are
// generated from.
type ProfileService struct {
	uow    domain.UnitOfWork
	logger *slog.Logger
}

func NewProfileService(uow domain.UnitOfWork, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{uow: uow, logger: logger}
}

// Import upserts each record in its own transaction and returns the
// number imported. It stops at the first invalid record.
func (s *ProfileService) Import(ctx context.Context, records []ProfileRecord) (int, error) {
	for i, rec := range records {
		if strings.TrimSpace(rec.User.ID) == "" {
			return i, fmt.Errorf("record %d: user id is required", i+1)
		}
		rec.User.ApplyDefaults()

		err := s.uow.Atomically(ctx, func(r domain.Repositories) error {
			if err := r.Profiles().SaveUser(ctx, &rec.User); err != nil {
				return err
			}
			if rec.Business != nil {
				bp := *rec.Business
				bp.UserID = rec.User.ID
				if bp.ID == "" {
					bp.ID = uuid.New().String()
				}
				if err := r.Profiles().SaveBusinessProfile(ctx, &bp); err != nil {
					return err
				}
			}
			for _, p := range rec.Pulses {
				p.UserID = rec.User.ID
				if err := r.Profiles().SavePulse(ctx, &p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return i, fmt.Errorf("import user %s: %w", rec.User.ID, err)
		}
		s.logger.Info("profile imported", "user_id", rec.User.ID, "business", rec.Business != nil, "pulses", len(rec.Pulses))
	}
	return len(records), nil
}

func (s *ProfileService) GetUser(ctx context.Context, userID string) (*profile.User, error) {
	return s.uow.Profiles().GetUser(ctx, userID)
}

func (s *ProfileService) GetBusinessProfile(ctx context.Context, userID string) (*profile.BusinessProfile, error) {
	return s.uow.Profiles().GetBusinessProfile(ctx, userID)
}

// ListOnboarded collects every onboarded user.
func (s *ProfileService) ListOnboarded(ctx context.Context) ([]profile.User, error) {
	var users []profile.User
	for u, err := range s.uow.Profiles().OnboardedUsers(ctx) {
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
