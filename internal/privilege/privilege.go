// Package privilege marks request contexts that may bypass tenant-level
// authorization.  Only the provisioning services elevate, and only around
// the repository calls that need it.
package privilege

import "context"

type serviceRoleKey struct{}

// WithServiceRole returns a copy of ctx carrying an elevated grant. reason
// ends up in logs and errors so every elevation is attributable.
func WithServiceRole(ctx context.Context, reason string) context.Context {
	if reason == "" {
		reason = "unspecified"
	}
	return context.WithValue(ctx, serviceRoleKey{}, reason)
}

// ServiceRole reports whether ctx is elevated and why.
func ServiceRole(ctx context.Context) (string, bool) {
	reason, ok := ctx.Value(serviceRoleKey{}).(string)
	return reason, ok
}
