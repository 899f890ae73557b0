package domain

import (
	"context"

	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
)

// Repositories groups the stores backing the engine.
type Repositories interface {
	Plans() planning.Repository
	Achievements() achievement.Repository
	Resources() resource.Library
	Profiles() profile.Repository
	Messages() delivery.LogRepository
	Audit() AuditRepository
}

// UnitOfWork runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Repositories
	Atomically(ctx context.Context, fn func(Repositories) error) error
}
