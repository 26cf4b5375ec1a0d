//go:build protogen

package policy

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/coachcal/coachcal/libs/grpcx"
	profilev1 "github.com/coachcal/coachcal/protos/gen/profile/v1"
)

type grpcProvider struct {
	client   profilev1.ProfileServiceClient
	fallback Provider
	logger   *slog.Logger
}

// NewProfilePolicyProvider dials profile-service for live booking policies.
// When the address is empty or the dial fails, the fallback provider is used
// instead; an unreachable profile service must not stop bookings.
func NewProfilePolicyProvider(logger *slog.Logger, fallback Provider, addr string) (Provider, error) {
	if addr == "" {
		return fallback, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc policy provider unavailable, using fallback", "err", err)
		return fallback, nil
	}
	return &grpcProvider{
		client:   profilev1.NewProfileServiceClient(conn),
		fallback: fallback,
		logger:   logger,
	}, nil
}

func (p *grpcProvider) BookingPolicy(ctx context.Context, coachID string) (BookingPolicy, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := p.client.GetBookingPolicy(reqCtx, &profilev1.BookingPolicyRequest{
		CoachId: coachID,
		AsOf:    timestamppb.New(time.Now().UTC()),
	})
	if err != nil {
		p.logger.Warn("policy fetch failed, using fallback", "err", err, "coach_id", coachID)
		return p.fallback.BookingPolicy(ctx, coachID)
	}
	return BookingPolicy{
		AdvanceNotice:    time.Duration(resp.GetAdvanceNoticeHours()) * time.Hour,
		MaxHorizonMonths: int(resp.GetMaxHorizonMonths()),
	}, nil
}
