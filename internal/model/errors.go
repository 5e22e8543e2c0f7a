package model

import (
	"errors"
	"fmt"
)

// Error codes, one per failure category surfaced to the user.
const (
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeNetworkUnavailable = "NETWORK_UNAVAILABLE"
	ErrCodeMalformedResponse  = "MALFORMED_RESPONSE"
	ErrCodeAuthCancelled      = "AUTH_CANCELLED"
	ErrCodeAuthProvider       = "AUTH_PROVIDER_ERROR"
)

// StorageError is returned when the session cache medium cannot be used.
type StorageError struct {
	Op  string // load, save or clear
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("[%s] session store %s: %v", ErrCodeStorageUnavailable, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FetchErrorKind distinguishes profile fetch failures.
type FetchErrorKind int

const (
	FetchNetworkUnavailable FetchErrorKind = iota
	FetchMalformedResponse
)

// FetchError is returned by the profile fetcher. HTTP-level rejections
// (expired token and the like) are reported as FetchNetworkUnavailable.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	code := ErrCodeNetworkUnavailable
	if e.Kind == FetchMalformedResponse {
		code = ErrCodeMalformedResponse
	}
	return fmt.Sprintf("[%s] fetch profile: %v", code, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AuthErrorKind distinguishes non-successful authorization outcomes.
type AuthErrorKind int

const (
	AuthCancelled AuthErrorKind = iota
	AuthProviderError
)

// AuthError is returned when an authorization request ends without a token.
type AuthError struct {
	Kind   AuthErrorKind
	Reason string
}

func (e *AuthError) Error() string {
	if e.Kind == AuthCancelled {
		return fmt.Sprintf("[%s] authorization cancelled", ErrCodeAuthCancelled)
	}
	return fmt.Sprintf("[%s] authorization failed: %s", ErrCodeAuthProvider, e.Reason)
}

// Alert is the single user-visible notification produced for a failure.
type Alert struct {
	Title   string
	Message string
}

// AlertFor converts any error from the session lifecycle into an Alert.
func AlertFor(err error) Alert {
	var (
		storageErr *StorageError
		fetchErr   *FetchError
		authErr    *AuthError
	)
	switch {
	case errors.As(err, &fetchErr):
		if fetchErr.Kind == FetchMalformedResponse {
			return Alert{Title: "Error", Message: "The identity provider returned an unreadable profile."}
		}
		return Alert{Title: "Error", Message: "Failed to fetch user information."}
	case errors.As(err, &authErr):
		if authErr.Kind == AuthCancelled {
			return Alert{Title: "Sign in", Message: "Sign-in was cancelled."}
		}
		return Alert{Title: "Error", Message: "Sign-in failed: " + authErr.Reason}
	case errors.As(err, &storageErr):
		return Alert{Title: "Error", Message: "Could not update the saved session."}
	default:
		return Alert{Title: "Error", Message: "Something went wrong."}
	}
}
