package service

import (
	"context"
	"errors"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/repository"

	"gorm.io/gorm"
)

// ReadinessState is derived from a user's readiness counter.
type ReadinessState int

const (
	// NotReady users get sector based recommendations only.
	NotReady ReadinessState = iota
	// ReadyFresh users get personalized recommendations from the current model.
	ReadyFresh
	// ReadyStale users have accumulated enough new signal to retrain.
	ReadyStale
)

func (s ReadinessState) String() string {
	switch s {
	case ReadyFresh:
		return "ready_fresh"
	case ReadyStale:
		return "ready_stale"
	default:
		return "not_ready"
	}
}

// ReadinessGate owns the per-user readiness counter. The counter starts at
// -threshold, each qualifying follow event adds one, and a retrain takes
// back the events it consumed.
type ReadinessGate struct {
	users            repository.UserRepository
	threshold        int
	retrainThreshold int
}

// NewReadinessGate creates a gate over the user store.
func NewReadinessGate(users repository.UserRepository, threshold, retrainThreshold int) *ReadinessGate {
	return &ReadinessGate{users: users, threshold: threshold, retrainThreshold: retrainThreshold}
}

// WithTx returns a gate whose writes join tx.
func (g *ReadinessGate) WithTx(tx *gorm.DB) *ReadinessGate {
	return &ReadinessGate{users: g.users.WithTx(tx), threshold: g.threshold, retrainThreshold: g.retrainThreshold}
}

// Initial is the counter value of a new user.
func (g *ReadinessGate) Initial() int {
	return -g.threshold
}

// State classifies a counter value.
func (g *ReadinessGate) State(hardReady int) ReadinessState {
	switch {
	case hardReady < 0:
		return NotReady
	case hardReady > g.retrainThreshold:
		return ReadyStale
	default:
		return ReadyFresh
	}
}

// IsReady reports whether the personalized path may be used.
func (g *ReadinessGate) IsReady(hardReady int) bool {
	return g.State(hardReady) != NotReady
}

// IsDue reports whether a retrain should run.
func (g *ReadinessGate) IsDue(hardReady int) bool {
	return g.State(hardReady) == ReadyStale
}

// Load returns the user and its current state.
func (g *ReadinessGate) Load(ctx context.Context, userID uint) (*entity.User, ReadinessState, error) {
	user, err := g.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotReady, ErrUserNotFound
	}
	if err != nil {
		return nil, NotReady, err
	}
	return user, g.State(user.HardReady), nil
}

// Increment records one qualifying event.
func (g *ReadinessGate) Increment(ctx context.Context, userID uint) error {
	return g.users.IncrementReadiness(ctx, userID)
}

// Reset marks the user as freshly trained by subtracting the counter value
// observed before the fit. Events counted during the fit stay on the counter.
func (g *ReadinessGate) Reset(ctx context.Context, userID uint, observed int) error {
	if observed <= 0 {
		return nil
	}
	return g.users.DecrementReadiness(ctx, userID, observed)
}
