package domain

// PrincipalType distinguishes regular users from staff accounts.
type PrincipalType string

const (
	PrincipalUser  PrincipalType = "user"
	PrincipalAdmin PrincipalType = "admin"
)

// Valid reports whether t is a known principal type.
func (t PrincipalType) Valid() bool {
	return t == PrincipalUser || t == PrincipalAdmin
}

// Principal is the authenticated actor behind a request. It is built once
// per request by the authentication layer and never mutated afterwards.
type Principal struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	Superadmin bool          `json:"superadmin"`
	Type       PrincipalType `json:"type"`
}

// CanAccess reports whether the principal may act on project: owners always
// can, superadmins can act on every project.
func (p *Principal) CanAccess(project *Project) bool {
	if p == nil || project == nil {
		return false
	}
	return p.Superadmin || (p.ID != "" && p.ID == project.OwnerID)
}
