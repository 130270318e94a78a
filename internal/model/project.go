package model

import "github.com/google/uuid"

type Project struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
}

// Scope pins every read and write to one tenant and one project.
type Scope struct {
	TenantID  uuid.UUID
	ProjectID uuid.UUID
}

func (s Scope) Contains(tenantID, projectID uuid.UUID) bool {
	return s.TenantID == tenantID && s.ProjectID == projectID
}
