package domain

import "strings"

// UserRole defines what a user may do inside its company.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleManager    UserRole = "MANAGER"
	RoleStaff      UserRole = "STAFF"
)

// UserStatus is the approval state of a user.
type UserStatus string

const (
	UserPending  UserStatus = "PENDING"
	UserActive   UserStatus = "ACTIVE"
	UserRejected UserStatus = "REJECTED"
)

// User is a staff member of a company. Password and PIN are stored and
// compared in plaintext.
type User struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"companyId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	PIN       string     `json:"pin"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
}

// IsSuperAdmin reports whether the user operates across all tenants.
func (u User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// PartitionKey returns the remote partition the user syncs against.
func (u User) PartitionKey() string {
	if u.IsSuperAdmin() {
		return GlobalPartitionKey
	}
	return u.CompanyID
}

// HasEmail compares e-mails case-insensitively, ignoring surrounding spaces.
func (u User) HasEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}

// SuperAdminID is the id of the built-in SUPER_ADMIN user.
const SuperAdminID = "super-admin"

// SuperAdmin returns the built-in SUPER_ADMIN record. It lives outside any
// company and is re-injected after every remote merge.
func SuperAdmin() User {
	return User{
		ID:        SuperAdminID,
		CompanyID: SystemTenantID,
		Name:      "System Administrator",
		Email:     "admin@system.local",
		Password:  "admin",
		PIN:       "0000",
		Role:      RoleSuperAdmin,
		Status:    UserActive,
	}
}

// MergeUsersWithSuperAdmin appends the SUPER_ADMIN record to the remote users
// and deduplicates by id. A duplicated id keeps the position of its first
// occurrence and the value of its last one, so the appended SUPER_ADMIN always
// overrides a remote record that reuses its id.
func MergeUsersWithSuperAdmin(remote []User) []User {
	all := make([]User, 0, len(remote)+1)
	all = append(all, remote...)
	all = append(all, SuperAdmin())

	index := make(map[string]int, len(all))
	merged := make([]User, 0, len(all))
	for _, u := range all {
		if i, seen := index[u.ID]; seen {
			merged[i] = u
			continue
		}
		index[u.ID] = len(merged)
		merged = append(merged, u)
	}
	return merged
}
