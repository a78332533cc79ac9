package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
)

// Repository stores completed sessions for the signed-in user.
type Repository interface {
	List(ctx context.Context, userID string) ([]Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Insert(ctx context.Context, s NewSession) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// TeamRepository reads the public team-members table.
type TeamRepository interface {
	ListTeam(ctx context.Context) ([]TeamMember, error)
}

// Store is a backend serving both tables.
type Store interface {
	Repository
	TeamRepository
	Close() error
}

// Viewer identifies who is reading. *auth.State implements it.
type Viewer interface {
	User() *auth.User
	Token() string
}

// Open returns the backend selected by cfg.Database.Backend.
func Open(cfg *config.Config, viewer Viewer, logger zerolog.Logger) (Store, error) {
	switch cfg.Database.Backend {
	case config.BackendPostgres:
		repo, err := OpenPostgres(cfg.Database, viewer)
		if err != nil {
			return nil, err
		}
		logger.Debug().Msg("history backend: postgres")
		return repo, nil
	case config.BackendREST, "":
		if !cfg.Identity.Configured() {
			return nil, config.ErrIdentityNotConfigured
		}
		logger.Debug().Msg("history backend: rest")
		return NewRESTRepository(cfg.Identity, cfg.Database, viewer, WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func requireUser(v Viewer) (*auth.User, error) {
	if v == nil {
		return nil, auth.ErrNotSignedIn
	}
	u := v.User()
	if u == nil {
		return nil, auth.ErrNotSignedIn
	}
	return u, nil
}
