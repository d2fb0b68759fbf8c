// Package model defines domain entities for the application.
package model

import "time"

// Hash field names used when a User is stored as a Redis hash.
const (
	FieldEmail    = "email"
	FieldName     = "name"
	FieldLastName = "last_name"
	FieldIssuedAt = "issued_at"
)

// User is a registrant. It is a value: lifecycle states copy it, never
// mutate it.
type User struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Fields returns the hash representation of u.
func (u User) Fields() map[string]string {
	return map[string]string{
		FieldEmail:    u.Email,
		FieldName:     u.GivenName,
		FieldLastName: u.FamilyName,
	}
}

// UserFromFields builds a User from its hash representation.
func UserFromFields(fields map[string]string) User {
	return User{
		Email:      fields[FieldEmail],
		GivenName:  fields[FieldName],
		FamilyName: fields[FieldLastName],
	}
}

// IssuedCredential is the audit record written when an API key is issued.
// Only the key fingerprint is kept, never the plaintext key.
type IssuedCredential struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	KeyFingerprint string    `json:"key_fingerprint"`
	IssuedAt       time.Time `json:"issued_at"`
}
