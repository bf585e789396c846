package model

import "time"

// Organization is a salon tenant.  Name and Phone are unique across the
// whole system; the address fields start empty and are filled in from the
// admin dashboard later.
type Organization struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	Address       string
	AddressDetail string
	PostalCode    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Industry is a catalog row (seed data), e.g. HAIR or NAIL.
type Industry struct {
	ID   int64
	Name string
}

// OrganizationIndustry links an organization to one of its industries.
type OrganizationIndustry struct {
	OrganizationID string
	IndustryID     int64
}
