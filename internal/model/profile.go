// Package model holds the records and error types shared across jobboard.
package model

// UserProfile is the signed-in user as reported by the identity provider.
// JSON keys follow the provider's userinfo response, which is also the
// on-disk cache format.
type UserProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	PictureURL string `json:"picture"`
}
