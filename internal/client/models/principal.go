// Package models holds the client-side data model: the authenticated
// principal, tasks and task pages.
package models

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated user's profile record.
type Principal struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier.
func (p *Principal) UnmarshalJSON(data []byte) error {
	type plain Principal
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Principal(aux.plain)
	if p.ID == "" {
		p.ID = aux.AltID
	}
	return nil
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// DisplayName picks the friendliest available label: name, username, the
// local part of the email, or "User".
func (p Principal) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Username != "":
		return p.Username
	case p.Email != "":
		local, _, _ := strings.Cut(p.Email, "@")
		if local != "" {
			return local
		}
	}
	return "User"
}
