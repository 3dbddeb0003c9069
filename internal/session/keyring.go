package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/google/uuid"
	"github.com/zalando/go-keyring"
)

const KeyringService = "podctl"

// KeyringStore keeps the single session of one operator account in the OS
// keyring.
type KeyringStore struct {
	service string
	account string
	now     func() time.Time
}

func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{service: KeyringService, account: account, now: time.Now}
}

// keyringEntry carries the token, which models.AdminSession keeps out of
// its JSON form.
type keyringEntry struct {
	Session models.AdminSession `json:"session"`
	Token   string              `json:"token"`
}

func (k *KeyringStore) load() (*keyringEntry, error) {
	raw, err := keyring.Get(k.service, k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	var entry keyringEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode keyring entry: %w", err)
	}
	entry.Session.Token = entry.Token
	return &entry, nil
}

func (k *KeyringStore) save(entry *keyringEntry) error {
	entry.Token = entry.Session.Token
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode keyring entry: %w", err)
	}
	if err := keyring.Set(k.service, k.account, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Create(_ context.Context, sess *models.AdminSession) error {
	now := k.now()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	return k.save(&keyringEntry{Session: *sess})
}

func (k *KeyringStore) Get(_ context.Context, id uuid.UUID) (*models.AdminSession, error) {
	entry, err := k.load()
	if err != nil {
		return nil, err
	}
	if id != uuid.Nil && entry.Session.ID != id {
		return nil, ErrSessionNotFound
	}
	return &entry.Session, nil
}

// Current returns the stored session whatever its id.
func (k *KeyringStore) Current(ctx context.Context) (*models.AdminSession, error) {
	return k.Get(ctx, uuid.Nil)
}

func (k *KeyringStore) update(id uuid.UUID, fn func(*models.AdminSession)) error {
	entry, err := k.load()
	if err != nil {
		return err
	}
	if entry.Session.ID != id {
		return ErrSessionNotFound
	}
	fn(&entry.Session)
	entry.Session.UpdatedAt = k.now()
	return k.save(entry)
}

func (k *KeyringStore) UpdateToken(_ context.Context, id uuid.UUID, token string) error {
	return k.update(id, func(s *models.AdminSession) {
		now := k.now()
		s.Token = token
		s.RefreshedAt = &now
	})
}

func (k *KeyringStore) UpdateAdmin(_ context.Context, id uuid.UUID, admin models.Admin) error {
	return k.update(id, func(s *models.AdminSession) {
		s.Admin = admin
		s.Email = admin.Email
	})
}

func (k *KeyringStore) Delete(_ context.Context, id uuid.UUID) error {
	entry, err := k.load()
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if entry.Session.ID != id {
		return nil
	}
	if err := keyring.Delete(k.service, k.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) CleanupExpired(ctx context.Context) (int64, error) {
	entry, err := k.load()
	if errors.Is(err, ErrSessionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !entry.Session.Expired(k.now()) {
		return 0, nil
	}
	if err := k.Delete(ctx, entry.Session.ID); err != nil {
		return 0, err
	}
	return 1, nil
}
