package models

import (
	"encoding/json"
	"time"
)

// Project holds opaque project data cached by project id. Data is whatever
// the presentation layer stored; this layer never interprets it.
type Project struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Member is one repository contributor or collaborator.
type Member struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	Role          string `json:"role,omitempty"`
	Contributions int    `json:"contributions,omitempty"`
}

// MemberList caches the member set of a project.
type MemberList struct {
	ProjectID string    `json:"project_id"`
	Members   []Member  `json:"members"`
	Timestamp time.Time `json:"timestamp"`
}

// User is the authenticated GitHub identity resolved from a token.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Credentials is the saved login state: the token plus the user it resolved
// to at login time.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
