package model

import "time"

// AccessToken is a short-lived bearer credential for the model platform.
// It is owned by the credential broker; a zero value means "no token cached".
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be used at the given instant,
// keeping the safety margin clear of the reported expiry so a token never
// expires mid-flight.
func (t AccessToken) Valid(now time.Time, margin time.Duration) bool {
	return t.Token != "" && now.Before(t.ExpiresAt.Add(-margin))
}
