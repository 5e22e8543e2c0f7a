package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// StatePayload is encoded into the OAuth state parameter.
type StatePayload struct {
	RequestID uuid.UUID `json:"request_id"`
	Nonce     string    `json:"nonce"`
}

// EncodeState encodes a fresh StatePayload for requestID as a base64 JSON
// string and returns it with the generated nonce.
func EncodeState(requestID uuid.UUID) (state, nonce string, err error) {
	nonce, err = generateNonce()
	if err != nil {
		return "", "", fmt.Errorf("generating nonce: %w", err)
	}
	b, err := json.Marshal(StatePayload{RequestID: requestID, Nonce: nonce})
	if err != nil {
		return "", "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nonce, nil
}

// DecodeState decodes and returns the StatePayload from an OAuth callback state param.
func DecodeState(state string) (*StatePayload, error) {
	b, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return nil, errors.New("invalid state encoding")
	}
	var payload StatePayload
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, errors.New("invalid state payload")
	}
	if payload.RequestID == uuid.Nil || payload.Nonce == "" {
		return nil, errors.New("incomplete state payload")
	}
	return &payload, nil
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
