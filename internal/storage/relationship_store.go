// Package storage mirrors the in-memory relationship collection into a
// per-user durable record so the list survives across sessions.
package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"

	"hangout-chat/go-client/internal/securestore"
	"hangout-chat/go-client/pkg/models"
)

// RelationshipStateStore reads and writes one relationship collection per
// session identity. The record is addressed by a key derived from the
// username; the payload is a versioned JSON array, sealed when a secret is
// configured.
type RelationshipStateStore struct {
	dir    string
	owner  string
	secret string
	logger *slog.Logger
}

type persistedRelationshipState struct {
	Version       int                   `json:"version"`
	Relationships []models.Relationship `json:"relationships"`
}

func NewRelationshipStateStore(logger *slog.Logger) *RelationshipStateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationshipStateStore{logger: logger}
}

// Configure sets the data directory, the owning session username, and the
// optional at-rest secret.
func (s *RelationshipStateStore) Configure(dir, owner, secret string) {
	s.dir = strings.TrimSpace(dir)
	s.owner = strings.TrimSpace(owner)
	s.secret = strings.TrimSpace(secret)
}

// RecordPath derives the record location from the owner. The username is
// base58-encoded so arbitrary identifiers stay filesystem-safe.
func (s *RelationshipStateStore) RecordPath() string {
	if s.dir == "" || s.owner == "" {
		return ""
	}
	key := base58.Encode([]byte(s.owner))
	return filepath.Join(s.dir, key+"-relationships.enc")
}

// Bootstrap loads the cached collection once at session start. A missing
// record seeds an empty one. A record that fails to parse or decrypt is
// treated as no cached relationships: the condition is logged and the session
// proceeds empty rather than failing.
func (s *RelationshipStateStore) Bootstrap() ([]models.Relationship, error) {
	path := s.RecordPath()
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := s.Persist(nil); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}

	plaintext := raw
	if s.secret != "" {
		plaintext, err = securestore.Open(s.secret, raw)
		if err != nil {
			s.logger.Warn("relationship record unreadable, starting empty",
				"path", path, "error", err)
			return nil, nil
		}
	}

	var state persistedRelationshipState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		s.logger.Warn("relationship record corrupt, starting empty",
			"path", path, "error", err)
		return nil, nil
	}
	if state.Version != 1 {
		s.logger.Warn("relationship record version unsupported, starting empty",
			"path", path, "version", state.Version)
		return nil, nil
	}
	return models.CloneRelationships(state.Relationships), nil
}

// Persist rewrites the record wholesale with the given collection.
func (s *RelationshipStateStore) Persist(rels []models.Relationship) error {
	path := s.RecordPath()
	if path == "" {
		return nil
	}
	state := persistedRelationshipState{
		Version:       1,
		Relationships: rels,
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if s.secret != "" {
		payload, err = securestore.Seal(s.secret, payload)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
