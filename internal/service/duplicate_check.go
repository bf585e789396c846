package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/observability/metrics"
	"github.com/iliyamo/salon-booking/internal/utils"
)

// Check kinds accepted by DuplicateChecker.
const (
	KindEmail            = "email"
	KindOrganizationName = "organizationName"
	KindPhone            = "phone"
)

// CheckResult is returned for every check, including failed ones.
type CheckResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

const (
	msgAvailable       = "available"
	msgEmailTaken      = "this email is already in use"
	msgNameTaken       = "this organization name is already in use"
	msgPhoneTaken      = "this phone number is already registered"
	msgCheckFailed     = "could not verify availability, please try again"
	msgValueRequired   = "value is required"
	msgUnsupportedKind = "unsupported check type"
)

// DuplicateChecker answers availability questions for the sign-up form.
// It never fails: storage errors come back as "not available".
type DuplicateChecker struct {
	identities IdentityStore
	orgs       OrganizationStore
	log        zerolog.Logger
}

func NewDuplicateChecker(identities IdentityStore, orgs OrganizationStore, log zerolog.Logger) *DuplicateChecker {
	return &DuplicateChecker{identities: identities, orgs: orgs, log: log.With().Str("component", "duplicate_check").Logger()}
}

func (s *DuplicateChecker) Check(ctx context.Context, kind, value string) CheckResult {
	res, outcome := s.check(ctx, kind, value)
	metrics.ObserveDuplicateCheck(kind, outcome)
	return res
}

func (s *DuplicateChecker) check(ctx context.Context, kind, value string) (CheckResult, string) {
	var (
		taken bool
		err   error
		msg   string
	)
	switch kind {
	case KindOrganizationName:
		if !utils.ValidOrganizationName(value) {
			return CheckResult{Message: ErrInvalidOrganizationName.Error()}, "invalid"
		}
		taken, err = s.orgs.ExistsByName(ctx, value)
		msg = msgNameTaken
	case KindEmail:
		email := utils.NormalizeEmail(value)
		if email == "" {
			return CheckResult{Message: msgValueRequired}, "invalid"
		}
		taken, err = s.identities.ExistsByEmail(ctx, email, "")
		msg = msgEmailTaken
	case KindPhone:
		phone := utils.NormalizePhone(value)
		if phone == "" {
			return CheckResult{Message: msgValueRequired}, "invalid"
		}
		taken, err = s.orgs.ExistsByPhone(ctx, phone)
		if err == nil && !taken {
			taken, err = s.identities.ExistsByPhone(ctx, phone)
		}
		msg = msgPhoneTaken
	default:
		return CheckResult{Message: msgUnsupportedKind}, "invalid"
	}

	if err != nil {
		s.log.Error().Err(err).Str("type", kind).Msg("duplicate check failed")
		return CheckResult{Message: msgCheckFailed}, "error"
	}
	if taken {
		return CheckResult{Message: msg}, "taken"
	}
	return CheckResult{Available: true, Message: msgAvailable}, "available"
}
