//go:build !protogen

package policy

import "log/slog"

// NewProfilePolicyProvider is the non-protogen build: no gRPC stubs are
// generated, so the profile-service path is unavailable and callers get the
// fallback provider.
func NewProfilePolicyProvider(_ *slog.Logger, fallback Provider, _ string) (Provider, error) {
	return fallback, nil
}
