// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/salon-booking/internal/privilege"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique
// constraint (identities.email, organizations.name, organizations.phone).
var ErrDuplicate = errors.New("duplicate value")

// ErrForbidden is returned when an operation that bypasses tenant
// authorization is attempted without an elevated context.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be applied because the
// row is no longer in the expected state (e.g. an invitation that was
// already accepted).
var ErrConflict = errors.New("conflict")

// requireServiceRole guards repository calls that must only run inside
// an elevated context.
func requireServiceRole(ctx context.Context, op string) error {
	if _, ok := privilege.ServiceRole(ctx); !ok {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
