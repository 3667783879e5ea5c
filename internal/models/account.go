package models

// AppUser is an account allowed to sign in. Roles are referenced, not owned:
// deleting a user removes its memberships but never the roles themselves.
type AppUser struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	Username string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password string    `gorm:"not null" json:"-"`
	Email    string    `gorm:"size:255" json:"email"`
	Roles    []AppRole `gorm:"many2many:user_roles;foreignKey:ID;joinForeignKey:UserID;references:RoleName;joinReferences:RoleName" json:"roles"`
}

func (AppUser) TableName() string { return "app_users" }

// RoleNames returns the names of the roles held by the user.
func (u *AppUser) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}

// HasRole reports whether the user currently holds roleName.
func (u *AppUser) HasRole(roleName string) bool {
	for _, r := range u.Roles {
		if r.RoleName == roleName {
			return true
		}
	}
	return false
}

// AppRole is keyed by its name; there is no surrogate id.
type AppRole struct {
	RoleName string `gorm:"column:role_name;primaryKey;size:50" json:"role"`
}

func (AppRole) TableName() string { return "app_roles" }

// UserRole is the membership row linking one user to one role.
type UserRole struct {
	UserID   string `gorm:"column:user_id;primaryKey;size:36"`
	RoleName string `gorm:"column:role_name;primaryKey;size:50"`
}

func (UserRole) TableName() string { return "user_roles" }
