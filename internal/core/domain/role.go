package domain

import "strings"

// InternalRole is the role persisted on an Account.
type InternalRole string

const (
	RoleSuperAdmin      InternalRole = "superadmin"
	RoleAdmin           InternalRole = "admin"
	RoleAdminDoctor     InternalRole = "admin_doctor"
	RoleAdminLab        InternalRole = "admin_lab"
	RoleAdminPharmacist InternalRole = "admin_pharmacist"
	RoleAdminAccountant InternalRole = "admin_accountant"
	RolePatient         InternalRole = "patient"
	RoleDoctor          InternalRole = "doctor"
	RoleStaff           InternalRole = "staff"
	RoleLab             InternalRole = "lab"
	RolePharmacy        InternalRole = "pharmacy"
	RoleAccountant      InternalRole = "accountant"
)

// EffectiveRole is the externally-facing role used by authorization checks
// and by the client. It is derived per request and never persisted.
type EffectiveRole string

const (
	EffectiveSuperAdmin EffectiveRole = "superadmin"
	EffectiveAdmin      EffectiveRole = "admin"
	EffectiveDoctor     EffectiveRole = "doctor"
	EffectiveStaff      EffectiveRole = "staff"
	EffectiveLab        EffectiveRole = "lab"
	EffectivePharmacy   EffectiveRole = "pharmacy"
	EffectiveAccountant EffectiveRole = "accountant"
	EffectivePatient    EffectiveRole = "patient"
)

var internalRoles = []InternalRole{
	RoleSuperAdmin,
	RoleAdmin,
	RoleAdminDoctor,
	RoleAdminLab,
	RoleAdminPharmacist,
	RoleAdminAccountant,
	RolePatient,
	RoleDoctor,
	RoleStaff,
	RoleLab,
	RolePharmacy,
	RoleAccountant,
}

var effectiveRoles = []EffectiveRole{
	EffectiveSuperAdmin,
	EffectiveAdmin,
	EffectiveDoctor,
	EffectiveStaff,
	EffectiveLab,
	EffectivePharmacy,
	EffectiveAccountant,
	EffectivePatient,
}

// InternalRoles returns the closed internal role vocabulary.
func InternalRoles() []InternalRole {
	out := make([]InternalRole, len(internalRoles))
	copy(out, internalRoles)
	return out
}

// EffectiveRoles returns the closed effective role vocabulary.
func EffectiveRoles() []EffectiveRole {
	out := make([]EffectiveRole, len(effectiveRoles))
	copy(out, effectiveRoles)
	return out
}

// ParseInternalRole normalises s and reports ErrUnknownRole when it is not
// part of the internal vocabulary.
func ParseInternalRole(s string) (InternalRole, error) {
	r := InternalRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// IsValid reports whether r belongs to the internal vocabulary.
func (r InternalRole) IsValid() bool {
	for _, known := range internalRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether r may only be granted by a superadmin.
func (r InternalRole) IsPrivileged() bool {
	switch r {
	case RoleSuperAdmin, RoleAdminDoctor, RoleAdminLab, RoleAdminPharmacist, RoleAdminAccountant:
		return true
	default:
		return false
	}
}

// Effective maps r onto its effective role. The switch is exhaustive over
// the internal vocabulary; the default branch only serves values that
// bypassed ParseInternalRole and keeps them verbatim.
func (r InternalRole) Effective() EffectiveRole {
	switch r {
	case RoleSuperAdmin:
		return EffectiveSuperAdmin
	case RoleAdmin:
		return EffectiveAdmin
	case RoleAdminDoctor, RoleDoctor:
		return EffectiveDoctor
	case RoleAdminLab, RoleLab:
		return EffectiveLab
	case RoleAdminPharmacist, RolePharmacy:
		return EffectivePharmacy
	case RoleAdminAccountant, RoleAccountant:
		return EffectiveAccountant
	case RoleStaff:
		return EffectiveStaff
	case RolePatient:
		return EffectivePatient
	default:
		return EffectiveRole(r)
	}
}

// MapRole is the Role Mapper. Unknown values pass through unchanged and
// report mapped=false so callers can log them; a pass-through value never
// equals any EffectiveRole constant and therefore never satisfies an
// allow-list.
func MapRole(raw string) (role EffectiveRole, mapped bool) {
	r, err := ParseInternalRole(raw)
	if err != nil {
		return EffectiveRole(raw), false
	}
	return r.Effective(), true
}

// IsValid reports whether r belongs to the effective vocabulary.
func (r EffectiveRole) IsValid() bool {
	for _, known := range effectiveRoles {
		if r == known {
			return true
		}
	}
	return false
}
