package session

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrInvalidPrincipal is returned when a principal cannot establish a session.
var ErrInvalidPrincipal = errors.New("invalid principal")

// Principal is the logged-in staff member.
type Principal struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" and normalizes the role.
func (p *Principal) UnmarshalJSON(data []byte) error {
	var raw struct {
		UnderscoreID string `json:"_id"`
		ID           any    `json:"id"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		Role         string `json:"role"`
		ProfileImage string `json:"profileImage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := raw.UnderscoreID
	if id == "" && raw.ID != nil {
		id = fmt.Sprint(raw.ID)
	}
	*p = Principal{
		ID:           id,
		Name:         raw.Name,
		Email:        raw.Email,
		Role:         Role(raw.Role),
		ProfileImage: raw.ProfileImage,
	}
	if role, err := ParseRole(raw.Role); err == nil {
		p.Role = role
	}
	return nil
}

// Validate checks the principal carries a known role.
func (p Principal) Validate() error {
	if !p.Role.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidPrincipal, ErrUnknownRole, p.Role)
	}
	return nil
}

// DisplayName falls back to "User" like the header does.
func (p Principal) DisplayName() string {
	if p.Name == "" {
		return "User"
	}
	return p.Name
}

func encodePrincipal(p Principal) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePrincipal(s string) (*Principal, error) {
	var p Principal
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
