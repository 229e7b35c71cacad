package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

type User struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	// PassHash is only loaded by credential lookups.
	PassHash  []byte     `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

func (u *User) HasRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserPatch carries the columns to change; nil fields are left untouched.
type UserPatch struct {
	Name     *string
	Email    *string
	PassHash []byte
}

type UserFilter struct {
	Search string
	Role   string
}
