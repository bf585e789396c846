package handler

import (
	"time"

	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/service"
)

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Role           string         `json:"role"`
	OrganizationID string         `json:"organization_id,omitempty"`
	IsActive       bool           `json:"is_active"`
	IsApproved     bool           `json:"is_approved"`
	EmailConfirmed bool           `json:"email_confirmed"`
	Metadata       map[string]any `json:"user_metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUser(i *model.Identity) userPart {
	return userPart{
		ID:             i.ID,
		Email:          i.Email,
		Name:           i.Name,
		Phone:          i.Phone,
		Role:           i.Role,
		OrganizationID: i.OrganizationID,
		IsActive:       i.IsActive,
		IsApproved:     i.IsApproved,
		EmailConfirmed: i.EmailConfirmedAt != nil,
		Metadata:       i.Metadata,
		CreatedAt:      i.CreatedAt,
	}
}

func toAuthResp(s *service.Session) authResp {
	return authResp{
		User:    toUser(s.Identity),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}
