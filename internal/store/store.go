// Package store persists the signed-in user's profile in a single fixed slot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gsarma/jobboard/internal/crypto"
	"github.com/gsarma/jobboard/internal/model"
)

// Key is the fixed identifier under which the profile is stored.
const Key = "user"

// ErrNotFound is returned by a Backend when no value exists for a key.
var ErrNotFound = errors.New("store: key not found")

// Backend is a byte-level key/value medium.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ProfileStore is the single-slot session cache layered over a Backend.
// Reads are lenient: undecodable data is reported as absence.
type ProfileStore struct {
	backend Backend
	sealer  *crypto.Sealer
	logger  *slog.Logger
}

// Option configures a ProfileStore.
type Option func(*ProfileStore)

// WithSealer encrypts the stored record at rest.
func WithSealer(s *crypto.Sealer) Option {
	return func(p *ProfileStore) { p.sealer = s }
}

// WithLogger sets the logger used to report discarded records.
func WithLogger(l *slog.Logger) Option {
	return func(p *ProfileStore) { p.logger = l }
}

func New(backend Backend, opts ...Option) *ProfileStore {
	p := &ProfileStore{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save overwrites the stored profile.
func (p *ProfileStore) Save(ctx context.Context, profile model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return &model.StorageError{Op: "save", Err: err}
	}
	if p.sealer != nil {
		if data, err = p.sealer.Seal(data); err != nil {
			return &model.StorageError{Op: "save", Err: err}
		}
	}
	if err := p.backend.Put(ctx, Key, data); err != nil {
		return &model.StorageError{Op: "save", Err: err}
	}
	return nil
}

// Load returns the stored profile, or nil when there is none or when the
// stored bytes do not decode to a profile.
func (p *ProfileStore) Load(ctx context.Context) (*model.UserProfile, error) {
	data, err := p.backend.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "load", Err: err}
	}

	if p.sealer != nil {
		if data, err = p.sealer.Open(data); err != nil {
			p.logger.Warn("discarding cached profile", slog.String("reason", err.Error()))
			return nil, nil
		}
	}

	var profile *model.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		p.logger.Warn("discarding cached profile", slog.String("reason", err.Error()))
		return nil, nil
	}
	return profile, nil
}

// Clear removes the stored profile. It succeeds when nothing is stored.
func (p *ProfileStore) Clear(ctx context.Context) error {
	if err := p.backend.Delete(ctx, Key); err != nil && !errors.Is(err, ErrNotFound) {
		return &model.StorageError{Op: "clear", Err: err}
	}
	return nil
}
