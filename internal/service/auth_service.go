package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/privilege"
	"github.com/iliyamo/salon-booking/internal/repository"
	"github.com/iliyamo/salon-booking/internal/utils"
)

// IdentityProvider is the slice of the auth subsystem the provisioning
// workflows depend on.
type IdentityProvider interface {
	CreateUser(ctx context.Context, p CreateUserParams) (*model.Identity, error)
	UpdateUserByID(ctx context.Context, id string, p UpdateUserParams) (*model.Identity, error)
	DeleteUser(ctx context.Context, id string) error
	GetUserByToken(ctx context.Context, token string) (*model.Identity, error)
	InviteUserByEmail(ctx context.Context, email string, p InviteParams) (*model.Identity, error)
}

type CreateUserParams struct {
	Email        string
	Password     string
	Name         string
	Phone        string
	Role         string
	EmailConfirm bool
	Metadata     map[string]any
}

// UpdateUserParams leaves empty fields untouched. Metadata is merged into
// the stored metadata.
type UpdateUserParams struct {
	Email        string
	Password     string
	Name         string
	Role         string
	EmailConfirm bool
	Metadata     map[string]any
}

type InviteParams struct {
	Metadata   map[string]any
	RedirectTo string
}

// Session is a freshly issued token pair.
type Session struct {
	Identity *model.Identity
	Access   utils.AccessToken
	Refresh  utils.RefreshToken
}

// InvitationMailer delivers the accept link of a new invitation.
type InvitationMailer interface {
	SendInvitation(ctx context.Context, email, link string) error
}

// LogMailer writes invitation links to the log instead of sending mail.
type LogMailer struct{ Log zerolog.Logger }

func (m LogMailer) SendInvitation(_ context.Context, email, link string) error {
	m.Log.Info().Str("email", email).Str("link", link).Msg("invitation issued")
	return nil
}

type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	InviteTTL      time.Duration
	SiteURL        string
}

// AuthService is the in-process auth provider: credentials, token issuing
// and invitations.
type AuthService struct {
	identities  IdentityStore
	invitations InvitationStore
	tokens      TokenStore
	mailer      InvitationMailer
	cfg         AuthConfig
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(identities IdentityStore, invitations InvitationStore, tokens TokenStore, mailer InvitationMailer, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = 24 * time.Hour
	}
	return &AuthService{
		identities:  identities,
		invitations: invitations,
		tokens:      tokens,
		mailer:      mailer,
		cfg:         cfg,
		log:         log.With().Str("component", "auth").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) hashPassword(plain string) (string, error) {
	h, err := utils.HashPassword(plain, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooShort) {
		return "", &AuthError{Message: err.Error(), Code: CodeWeakPassword}
	}
	return h, err
}

func emailExists() error {
	return &AuthError{Message: "a user with this email address has already been registered", Code: CodeEmailExists}
}

// CreateUser registers a new identity with a password credential.
func (s *AuthService) CreateUser(ctx context.Context, p CreateUserParams) (*model.Identity, error) {
	email := utils.NormalizeEmail(p.Email)
	if !utils.LooksLikeEmail(email) {
		return nil, ErrInvalidEmail
	}
	hash, err := s.hashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	role := p.Role
	if role == "" {
		role = model.RoleCustomer
	}
	i := &model.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         p.Name,
		Phone:        p.Phone,
		Role:         role,
		Metadata:     model.MergeMetadata(nil, p.Metadata),
	}
	if p.EmailConfirm {
		now := s.now()
		i.EmailConfirmedAt = &now
	}
	if err := s.identities.Create(ctx, i); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailExists()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return i, nil
}

// UpdateUserByID applies p to an existing identity.
func (s *AuthService) UpdateUserByID(ctx context.Context, id string, p UpdateUserParams) (*model.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &AuthError{Message: "user not found", Code: CodeUserNotFound}
	}
	i, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AuthError{Message: "user not found", Code: CodeUserNotFound}
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if p.Email != "" {
		email := utils.NormalizeEmail(p.Email)
		if !utils.LooksLikeEmail(email) {
			return nil, ErrInvalidEmail
		}
		i.Email = email
	}
	if p.Password != "" {
		if i.PasswordHash, err = s.hashPassword(p.Password); err != nil {
			return nil, err
		}
	}
	if p.Name != "" {
		i.Name = p.Name
	}
	if p.Role != "" {
		i.Role = p.Role
	}
	if p.EmailConfirm && i.EmailConfirmedAt == nil {
		now := s.now()
		i.EmailConfirmedAt = &now
	}
	i.Metadata = model.MergeMetadata(i.Metadata, p.Metadata)
	if err := s.identities.Update(ctx, i); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailExists()
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return i, nil
}

// DeleteUser hard-deletes an identity. ctx must be elevated.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	return s.identities.Delete(ctx, id)
}

// GetUserByToken resolves a bearer access token to an active identity.
func (s *AuthService) GetUserByToken(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := utils.ParseAccessToken(s.cfg.JWTSecret, token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	i, err := s.identities.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !i.IsActive {
		return nil, ErrUnauthorized
	}
	return i, nil
}

// InviteUserByEmail creates a pending identity (no credential, unconfirmed,
// inactive) and an invitation carrying p.Metadata. The raw token only
// leaves the process through the mailer.
func (s *AuthService) InviteUserByEmail(ctx context.Context, email string, p InviteParams) (*model.Identity, error) {
	email = utils.NormalizeEmail(email)
	if !utils.LooksLikeEmail(email) {
		return nil, ErrInvalidEmail
	}
	meta := model.MergeMetadata(nil, p.Metadata)
	role, _ := meta[model.MetaRole].(string)
	name, _ := meta[model.MetaName].(string)
	orgID, _ := meta[model.MetaOrganizationID].(string)
	invitedBy, _ := meta[model.MetaInvitedBy].(string)
	if role == "" {
		role = model.RoleStaff
	}

	i := &model.Identity{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     name,
		Role:     role,
		Metadata: meta,
	}
	if err := s.identities.Create(ctx, i); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailExists()
		}
		return nil, fmt.Errorf("create invited user: %w", err)
	}

	raw, err := utils.RandomHex(32)
	if err != nil {
		return nil, err
	}
	redirect := p.RedirectTo
	if redirect == "" {
		redirect = s.cfg.SiteURL
	}
	inv := &model.Invitation{
		ID:             uuid.NewString(),
		IdentityID:     i.ID,
		Email:          email,
		TokenHash:      utils.HashToken(raw),
		Role:           role,
		Name:           name,
		OrganizationID: orgID,
		InvitedBy:      invitedBy,
		Metadata:       meta,
		RedirectTo:     redirect,
		Status:         model.InvitationPending,
		ExpiresAt:      s.now().Add(s.cfg.InviteTTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		// the pending identity is useless without its invitation
		if derr := s.identities.Delete(privilege.WithServiceRole(ctx, "invite cleanup"), i.ID); derr != nil {
			s.log.Error().Bool("alert", true).Err(derr).Str("identity_id", i.ID).Msg("failed to remove pending identity")
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendInvitation(ctx, email, acceptLink(redirect, raw)); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("invitation mail failed")
		}
	}
	return i, nil
}

func acceptLink(redirect, token string) string {
	sep := "?"
	if strings.Contains(redirect, "?") {
		sep = "&"
	}
	return redirect + sep + "invite_token=" + url.QueryEscape(token)
}

// SignIn verifies credentials and issues a token pair.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	i, err := s.identities.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(i.PasswordHash, password) || !i.IsActive || i.EmailConfirmedAt == nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, i)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	hash := utils.HashToken(strings.TrimSpace(raw))
	id, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	_ = s.tokens.RevokeByHash(ctx, hash)

	i, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	return s.issue(ctx, i)
}

// SignOut revokes one refresh token, or every token of identityID when raw
// is empty.
func (s *AuthService) SignOut(ctx context.Context, identityID, raw string) error {
	if raw = strings.TrimSpace(raw); raw != "" {
		hash := utils.HashToken(raw)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			return ErrInvalidRefresh
		}
		return s.tokens.RevokeByHash(ctx, hash)
	}
	if identityID == "" {
		return ErrUnauthorized
	}
	return s.tokens.RevokeAllForIdentity(ctx, identityID)
}

// AcceptInvitation completes a staff invitation: it sets the password,
// confirms the email and attaches the identity to the inviting
// organization with the permissions carried in the invitation.
func (s *AuthService) AcceptInvitation(ctx context.Context, rawToken, password string) (*Session, error) {
	inv, err := s.invitations.GetByTokenHash(ctx, utils.HashToken(strings.TrimSpace(rawToken)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvitationInvalid
		}
		return nil, err
	}
	now := s.now()
	if inv.Status != model.InvitationPending || now.After(inv.ExpiresAt) {
		return nil, ErrInvitationInvalid
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	i, err := s.identities.GetByID(ctx, inv.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("load invited user: %w", err)
	}
	i.PasswordHash = hash
	i.EmailConfirmedAt = &now
	if err := s.identities.Update(ctx, i); err != nil {
		return nil, fmt.Errorf("update invited user: %w", err)
	}

	approved, _ := inv.Metadata[model.MetaAutoApproved].(bool)
	perms := PermissionsFromMetadata(inv.Metadata[model.MetaPermissions])
	elevated := privilege.WithServiceRole(ctx, "accept invitation")
	if err := s.identities.AttachOrganization(elevated, i.ID, inv.OrganizationID, i.Phone, approved, perms); err != nil {
		return nil, fmt.Errorf("attach organization: %w", err)
	}
	// consumed last so a failed attach can be retried with the same token
	if err := s.invitations.MarkAccepted(ctx, inv.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvitationInvalid
		}
		return nil, err
	}
	i.OrganizationID = inv.OrganizationID
	i.IsActive = true
	i.IsApproved = approved
	s.log.Info().Str("identity_id", i.ID).Str("organization_id", inv.OrganizationID).Msg("invitation accepted")
	return s.issue(ctx, i)
}

func (s *AuthService) issue(ctx context.Context, i *model.Identity) (*Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, i.ID, i.Role, i.OrganizationID, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, i.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("save refresh: %w", err)
	}
	return &Session{Identity: i, Access: access, Refresh: refresh}, nil
}

// PermissionsFromMetadata converts the free-form permissions object of an
// invitation into a complete profile. Modules it does not mention get no
// access; anything unparsable yields no access at all.
func PermissionsFromMetadata(v any) model.Permissions {
	out := model.NoAccess()
	if v == nil {
		return out
	}
	b, err := json.Marshal(v)
	if err != nil {
		return out
	}
	var given model.Permissions
	if err := json.Unmarshal(b, &given); err != nil {
		return out
	}
	for _, m := range model.Modules {
		if p, ok := given[m]; ok {
			out[m] = p
		}
	}
	return out
}
