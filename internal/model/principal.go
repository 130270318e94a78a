package model

import "github.com/google/uuid"

const (
	RoleAdmin   = "ADMIN"
	RoleFinance = "FINANCE"
	RoleManager = "PROJECT_MANAGER"
	RoleViewer  = "VIEWER"
)

type Principal struct {
	UserID            uuid.UUID
	TenantID          uuid.UUID
	Role              string
	UnlimitedApproval bool
}

func (p Principal) IsViewer() bool {
	return p.Role == RoleViewer
}

func (p Principal) CanTransition() bool {
	switch p.Role {
	case RoleAdmin, RoleFinance, RoleManager:
		return true
	default:
		return false
	}
}
