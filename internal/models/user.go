package models

// Default role assigned on registration
const RoleUser = "ROLE_USER"

type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	FirstName      string
	LastName       string
	Role           string

	Audit
}

// Profile is the public projection of a user
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
