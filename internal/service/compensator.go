package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/salon-booking/internal/privilege"
	"github.com/iliyamo/salon-booking/internal/queue"
)

// Compensator replays queued compensation commands. Every action is
// idempotent at the repository level.
type Compensator struct {
	identities IdentityStore
	orgs       OrganizationStore
}

func NewCompensator(identities IdentityStore, orgs OrganizationStore) *Compensator {
	return &Compensator{identities: identities, orgs: orgs}
}

func (c *Compensator) Execute(ctx context.Context, cmd queue.CompensationCommand) error {
	ctx = privilege.WithServiceRole(ctx, "compensation retry")
	switch cmd.Action {
	case queue.ActionDeleteIdentity:
		return c.identities.Delete(ctx, cmd.TargetID)
	case queue.ActionDeleteOrganization:
		return c.orgs.Delete(ctx, cmd.TargetID)
	case queue.ActionDetachIdentity:
		return c.identities.DetachOrganization(ctx, cmd.TargetID)
	}
	return fmt.Errorf("unknown compensation action %q", cmd.Action)
}
