package policy

import (
	"context"
	"time"

	"github.com/coachcal/coachcal/services/calendar-service/internal/storage"
)

// BookingPolicy is what the validator needs from a coach's profile: how much
// advance notice is advised (zero disables the short-notice advisory) and
// how far recurrence generation may reach.
type BookingPolicy struct {
	AdvanceNotice    time.Duration
	MaxHorizonMonths int
}

type Provider interface {
	BookingPolicy(ctx context.Context, coachID string) (BookingPolicy, error)
}

type staticProvider struct {
	policy BookingPolicy
}

func NewStaticProvider(policy BookingPolicy) Provider {
	return &staticProvider{policy: policy}
}

func (p *staticProvider) BookingPolicy(_ context.Context, _ string) (BookingPolicy, error) {
	return p.policy, nil
}

// cachedProvider serves the policy replicated from coach.policy.updated
// events, falling back to the defaults for coaches not seen yet.
type cachedProvider struct {
	repo     *storage.PolicyRepository
	fallback BookingPolicy
}

func NewCachedProvider(repo *storage.PolicyRepository, fallback BookingPolicy) Provider {
	return &cachedProvider{repo: repo, fallback: fallback}
}

func (p *cachedProvider) BookingPolicy(ctx context.Context, coachID string) (BookingPolicy, error) {
	cached, ok, err := p.repo.Get(ctx, coachID)
	if err != nil {
		return BookingPolicy{}, err
	}
	if !ok {
		return p.fallback, nil
	}
	policy := BookingPolicy{
		AdvanceNotice:    time.Duration(cached.AdvanceNoticeHours) * time.Hour,
		MaxHorizonMonths: cached.MaxHorizonMonths,
	}
	if policy.MaxHorizonMonths <= 0 {
		policy.MaxHorizonMonths = p.fallback.MaxHorizonMonths
	}
	return policy, nil
}
