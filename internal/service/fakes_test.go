package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/privilege"
	"github.com/iliyamo/salon-booking/internal/repository"
)

// memDB backs the in-memory stores. fail injects an error for the named
// operation (e.g. "orgs.LinkIndustries"); calls counts invocations.
type memDB struct {
	mu          sync.Mutex
	identities  map[string]model.Identity
	orgs        map[string]model.Organization
	links       map[string][]int64
	industries  []model.Industry
	profiles    map[string]model.PermissionProfile
	invitations map[string]model.Invitation
	tokens      map[string]memToken
	fail        map[string]error
	calls       map[string]int
}

type memToken struct {
	identityID string
	exp        time.Time
	revoked    bool
}

func newMemDB() *memDB {
	return &memDB{
		identities:  map[string]model.Identity{},
		orgs:        map[string]model.Organization{},
		links:       map[string][]int64{},
		industries:  []model.Industry{{ID: 1, Name: "HAIR"}, {ID: 2, Name: "NAIL"}, {ID: 3, Name: "EYELASH"}},
		profiles:    map[string]model.PermissionProfile{},
		invitations: map[string]model.Invitation{},
		tokens:      map[string]memToken{},
		fail:        map[string]error{},
		calls:       map[string]int{},
	}
}

func (m *memDB) enter(op string) error {
	m.calls[op]++
	return m.fail[op]
}

func elevatedOnly(ctx context.Context) error {
	if _, ok := privilege.ServiceRole(ctx); !ok {
		return repository.ErrForbidden
	}
	return nil
}

type memIdentities struct{ *memDB }

func (m memIdentities) Create(_ context.Context, i *model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.Create"); err != nil {
		return err
	}
	for _, x := range m.identities {
		if x.Email == i.Email {
			return repository.ErrDuplicate
		}
	}
	i.CreatedAt, i.UpdatedAt = time.Now(), time.Now()
	m.identities[i.ID] = *i
	return nil
}

func (m memIdentities) GetByID(_ context.Context, id string) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.GetByID"); err != nil {
		return nil, err
	}
	i, ok := m.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &i, nil
}

func (m memIdentities) GetByEmail(_ context.Context, email string) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if i.Email == email {
			return &i, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memIdentities) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.ExistsByEmail"); err != nil {
		return false, err
	}
	for _, i := range m.identities {
		if i.Email == email && i.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memIdentities) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.ExistsByPhone"); err != nil {
		return false, err
	}
	for _, i := range m.identities {
		if i.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m memIdentities) Update(_ context.Context, i *model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.Update"); err != nil {
		return err
	}
	if _, ok := m.identities[i.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, x := range m.identities {
		if x.Email == i.Email && x.ID != i.ID {
			return repository.ErrDuplicate
		}
	}
	m.identities[i.ID] = *i
	return nil
}

func (m memIdentities) Delete(ctx context.Context, id string) error {
	if err := elevatedOnly(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.Delete"); err != nil {
		return err
	}
	delete(m.identities, id)
	delete(m.profiles, id)
	return nil
}

func (m memIdentities) AttachOrganization(ctx context.Context, id, orgID, phone string, approved bool, defaults model.Permissions) error {
	if err := elevatedOnly(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.AttachOrganization"); err != nil {
		return err
	}
	i, ok := m.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	i.OrganizationID, i.IsActive, i.IsApproved, i.Phone = orgID, true, approved, phone
	m.identities[id] = i
	if p, ok := m.profiles[id]; ok {
		p.OrganizationID = orgID
		m.profiles[id] = p
		return nil
	}
	if defaults == nil {
		defaults = model.NoAccess()
	}
	m.profiles[id] = model.PermissionProfile{IdentityID: id, OrganizationID: orgID, Permissions: defaults}
	return nil
}

func (m memIdentities) DetachOrganization(ctx context.Context, id string) error {
	if err := elevatedOnly(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("identities.DetachOrganization"); err != nil {
		return err
	}
	if i, ok := m.identities[id]; ok {
		i.OrganizationID, i.IsActive = "", false
		m.identities[id] = i
	}
	delete(m.profiles, id)
	return nil
}

func (m memIdentities) ListByOrganization(_ context.Context, orgID string) ([]*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Identity
	for _, i := range m.identities {
		if i.OrganizationID == orgID {
			i := i
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Email < out[b].Email })
	return out, nil
}

type memOrgs struct{ *memDB }

func (m memOrgs) Create(_ context.Context, o *model.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("orgs.Create"); err != nil {
		return err
	}
	for _, x := range m.orgs {
		if x.Name == o.Name || x.Phone == o.Phone {
			return repository.ErrDuplicate
		}
	}
	m.orgs[o.ID] = *o
	return nil
}

func (m memOrgs) GetByID(_ context.Context, id string) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (m memOrgs) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("orgs.ExistsByName"); err != nil {
		return false, err
	}
	for _, o := range m.orgs {
		if o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m memOrgs) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("orgs.ExistsByPhone"); err != nil {
		return false, err
	}
	for _, o := range m.orgs {
		if o.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m memOrgs) LinkIndustries(_ context.Context, orgID string, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("orgs.LinkIndustries"); err != nil {
		return err
	}
	m.links[orgID] = append(m.links[orgID], ids...)
	return nil
}

func (m memOrgs) Delete(ctx context.Context, id string) error {
	if err := elevatedOnly(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("orgs.Delete"); err != nil {
		return err
	}
	delete(m.orgs, id)
	delete(m.links, id)
	for k, i := range m.identities {
		if i.OrganizationID == id {
			i.OrganizationID = ""
			m.identities[k] = i
		}
	}
	return nil
}

type memIndustries struct{ *memDB }

func (m memIndustries) List(context.Context) ([]model.Industry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Industry(nil), m.industries...), nil
}

func (m memIndustries) FindByNames(_ context.Context, names []string) ([]model.Industry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("industries.FindByNames"); err != nil {
		return nil, err
	}
	var out []model.Industry
	for _, in := range m.industries {
		for _, n := range names {
			if in.Name == n {
				out = append(out, in)
			}
		}
	}
	return out, nil
}

type memPerms struct{ *memDB }

func (m memPerms) Get(_ context.Context, id string) (*model.PermissionProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m memPerms) Update(ctx context.Context, id string, perms model.Permissions) error {
	if err := elevatedOnly(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("perms.Update"); err != nil {
		return err
	}
	p, ok := m.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Permissions = perms
	m.profiles[id] = p
	return nil
}

type memInvitations struct{ *memDB }

func (m memInvitations) Create(_ context.Context, inv *model.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("invitations.Create"); err != nil {
		return err
	}
	m.invitations[inv.ID] = *inv
	return nil
}

func (m memInvitations) GetByTokenHash(_ context.Context, hash string) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.TokenHash == hash {
			return &inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memInvitations) MarkAccepted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.Status != model.InvitationPending {
		return repository.ErrConflict
	}
	inv.Status, inv.AcceptedAt = model.InvitationAccepted, &at
	m.invitations[id] = inv
	return nil
}

type memTokens struct{ *memDB }

func (m memTokens) StoreRefresh(_ context.Context, identityID, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = memToken{identityID: identityID, exp: exp}
	return nil
}

func (m memTokens) ValidateRefresh(_ context.Context, hash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return "", repository.ErrNotFound
	}
	return t.identityID, nil
}

func (m memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok {
		t.revoked = true
		m.tokens[hash] = t
	}
	return nil
}

func (m memTokens) RevokeAllForIdentity(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.tokens {
		if t.identityID == identityID {
			t.revoked = true
			m.tokens[h] = t
		}
	}
	return nil
}

// memPublisher records published messages per queue.
type memPublisher struct {
	mu   sync.Mutex
	sent map[string][]any
	err  error
}

func (p *memPublisher) Publish(_ context.Context, queue string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.sent == nil {
		p.sent = map[string][]any{}
	}
	p.sent[queue] = append(p.sent[queue], v)
	return nil
}

func (p *memPublisher) on(queue string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent[queue]
}

// captureMailer keeps the last invitation link.
type captureMailer struct{ link string }

func (c *captureMailer) SendInvitation(_ context.Context, _, link string) error {
	c.link = link
	return nil
}
