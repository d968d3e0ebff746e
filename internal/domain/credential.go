package domain

import "strings"

// Credential is the persisted identity of a logged-in user. All three
// fields are written together on login and cleared together on logout.
type Credential struct {
	Token string
	Email string
	Slug  string
}

// Authenticated derives the session state: a credential is usable when
// both the token and the email are present and non-blank. The slug is
// carried for API calls but does not gate authentication.
func (c Credential) Authenticated() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.Email) != ""
}
