package models

import (
	"fmt"
	"time"
)

// Credential stores a user's OAuth tokens for the music service.
//
// Tokens are persisted so a previously authorized account survives process
// restarts without re-running the browser flow.
type Credential struct {
	id           string
	sequence     int
	accountID    string
	displayName  string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewCredential creates a credential for the given account with the supplied
// token material.
func NewCredential(sequence int, accountID, displayName, accessToken, refreshToken string, expiresAt time.Time) *Credential {
	now := time.Now()
	return &Credential{
		sequence:     sequence,
		accountID:    accountID,
		displayName:  displayName,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (c *Credential) ID() string            { return c.id }
func (c *Credential) Sequence() int         { return c.sequence }
func (c *Credential) AccountID() string     { return c.accountID }
func (c *Credential) DisplayName() string   { return c.displayName }
func (c *Credential) AccessToken() string   { return c.accessToken }
func (c *Credential) RefreshToken() string  { return c.refreshToken }
func (c *Credential) ExpiresAt() time.Time  { return c.expiresAt }
func (c *Credential) CreatedAt() time.Time  { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time  { return c.updatedAt }
func (c *Credential) DeletedAt() *time.Time { return c.deletedAt }

func (c *Credential) SetID(id string)              { c.id = id }
func (c *Credential) SetDisplayName(name string)   { c.displayName = name }
func (c *Credential) SetCreatedAt(t time.Time)     { c.createdAt = t }
func (c *Credential) SetUpdatedAt(t time.Time)     { c.updatedAt = t }
func (c *Credential) SetDeletedAt(t *time.Time)    { c.deletedAt = t }
func (c *Credential) SetAccessToken(token string)  { c.accessToken = token }
func (c *Credential) SetExpiresAt(t time.Time)     { c.expiresAt = t }

// SetRefreshToken replaces the refresh token. Callers should keep the prior
// value when the token endpoint omits a rotated token.
func (c *Credential) SetRefreshToken(token string) {
	if token != "" {
		c.refreshToken = token
	}
}

// Expired reports whether the access token's expiry has passed.
func (c *Credential) Expired() bool {
	return !c.expiresAt.IsZero() && time.Now().After(c.expiresAt)
}

// Validate checks that the credential has an account and token material.
func (c *Credential) Validate() error {
	if c.accountID == "" {
		return fmt.Errorf("credential account ID is required")
	}
	if c.accessToken == "" && c.refreshToken == "" {
		return fmt.Errorf("credential requires an access or refresh token")
	}
	return nil
}
