// Package profile holds the user contact preferences and business profile
// read by planning and dispatch.
package profile

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("business profile not found")
)

type Channel string

const (
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
	ChannelBoth  Channel = "BOTH"
)

// DefaultSendHour is the local hour at which daily tasks are delivered.
const DefaultSendHour = 8

// WantsSMS reports whether c includes SMS delivery.
func (c Channel) WantsSMS() bool { return c == ChannelSMS || c == ChannelBoth }

// WantsEmail reports whether c includes email delivery.
func (c Channel) WantsEmail() bool { return c == ChannelEmail || c == ChannelBoth }

// User is the contact side of an account.
type User struct {
	ID               string  `json:"id" yaml:"id"`
	Email            string  `json:"email" yaml:"email"`
	Phone            string  `json:"phone" yaml:"phone"`
	FirstName        string  `json:"first_name" yaml:"first_name"`
	Timezone         string  `json:"timezone" yaml:"timezone"`
	PreferredChannel Channel `json:"preferred_channel" yaml:"preferred_channel"`
	DailySendHour    int     `json:"daily_send_hour" yaml:"daily_send_hour"`
	Onboarded        bool    `json:"onboarded" yaml:"onboarded"`
}

// ApplyDefaults fills unset preferences with their defaults.
func (u *User) ApplyDefaults() {
	if u.Timezone == "" {
		u.Timezone = clock.DefaultTimezone
	}
	if u.PreferredChannel == "" {
		u.PreferredChannel = ChannelBoth
	}
	if u.DailySendHour < 0 || u.DailySendHour > 23 {
		u.DailySendHour = DefaultSendHour
	}
}

// DisplayName returns the first name, or "there" for greetings.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "there"
}

// Assessment is the latest AI readiness assessment of a business.
type Assessment struct {
	Summary    string   `json:"summary" yaml:"summary"`
	FocusAreas []string `json:"focus_areas" yaml:"focus_areas"`
	FirstSteps []string `json:"first_steps" yaml:"first_steps"`
}

// BusinessProfile captures what the owner told us during onboarding.
type BusinessProfile struct {
	ID                 string      `json:"id" yaml:"id"`
	UserID             string      `json:"user_id" yaml:"user_id"`
	BusinessName       string      `json:"business_name" yaml:"business_name"`
	BusinessType       string      `json:"business_type" yaml:"business_type"`
	Stage              string      `json:"stage" yaml:"stage"`
	Description        string      `json:"description" yaml:"description"`
	Goals              []string    `json:"goals" yaml:"goals"`
	Budget             string      `json:"budget" yaml:"budget"`
	Location           string      `json:"location" yaml:"location"`
	Niche              string      `json:"niche" yaml:"niche"`
	BusinessModel      string      `json:"business_model" yaml:"business_model"`
	UniqueValue        string      `json:"unique_value" yaml:"unique_value"`
	Competitors        string      `json:"competitors" yaml:"competitors"`
	Skills             []string    `json:"skills" yaml:"skills"`
	Experience         string      `json:"experience" yaml:"experience"`
	HoursPerDay        float64     `json:"hours_per_day" yaml:"hours_per_day"`
	CurrentRevenue     string      `json:"current_revenue" yaml:"current_revenue"`
	TeamSize           int         `json:"team_size" yaml:"team_size"`
	Challenges         string      `json:"challenges" yaml:"challenges"`
	HasWebsite         bool        `json:"has_website" yaml:"has_website"`
	HasDomain          bool        `json:"has_domain" yaml:"has_domain"`
	HasBranding        bool        `json:"has_branding" yaml:"has_branding"`
	SocialPlatforms    []string    `json:"social_platforms" yaml:"social_platforms"`
	EmailListSize      int         `json:"email_list_size" yaml:"email_list_size"`
	Assessment         *Assessment `json:"assessment,omitempty" yaml:"assessment,omitempty"`
	PlanDurationDays   int         `json:"plan_duration_days" yaml:"plan_duration_days"`
	OnboardingComplete bool        `json:"onboarding_complete" yaml:"onboarding_complete"`
}

// Pulse is a weekly self-reported check-in.
type Pulse struct {
	UserID    string    `json:"user_id" yaml:"user_id"`
	WeekStart time.Time `json:"week_start" yaml:"week_start"`
	Mood      int       `json:"mood" yaml:"mood"`
	Wins      string    `json:"wins" yaml:"wins"`
	Blockers  string    `json:"blockers" yaml:"blockers"`
}

// Repository is read access to users and profiles, plus the writes the
// import command needs.
type Repository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	SaveUser(ctx context.Context, u *User) error
	GetBusinessProfile(ctx context.Context, userID string) (*BusinessProfile, error)
	SaveBusinessProfile(ctx context.Context, p *BusinessProfile) error
	RecentPulses(ctx context.Context, userID string, limit int) ([]Pulse, error)
	SavePulse(ctx context.Context, p *Pulse) error
	// OnboardedUsers lazily yields onboarded users. Each call restarts the
	// sequence from the beginning.
	OnboardedUsers(ctx context.Context) iter.Seq2[User, error]
}
