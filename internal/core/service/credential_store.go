package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

// CredentialStore keeps a client's session in one of two tiers. Load reads
// the durable tier first, so durable wins when both hold a token.
type CredentialStore struct {
	durable   ports.TierStore
	ephemeral ports.TierStore
	log       zerolog.Logger
}

func NewCredentialStore(durable, ephemeral ports.TierStore, log zerolog.Logger) *CredentialStore {
	return &CredentialStore{
		durable:   durable,
		ephemeral: ephemeral,
		log:       log.With().Str("component", "credential_store").Logger(),
	}
}

// Load returns the session held by the first tier with a token. Unreadable
// tiers are skipped; corrupt entries are deleted and skipped. It never
// fails: with nothing usable it returns an empty (Guest) session.
func (s *CredentialStore) Load(ctx context.Context, key domain.ClientKey) domain.Session {
	session, _ := s.LoadChecked(ctx, key)
	return session
}

// LoadChecked is Load that also reports tiers it could not read before
// reaching the returned session. With a non-nil error the result may be
// missing a credential that the unreadable tier holds.
func (s *CredentialStore) LoadChecked(ctx context.Context, key domain.ClientKey) (domain.Session, error) {
	var readErrs []error
	for _, tier := range []domain.Tier{domain.TierDurable, domain.TierEphemeral} {
		store, skey := s.slot(tier, key)
		if skey == "" {
			continue
		}

		cred, found, err := store.Get(ctx, skey)
		if err != nil {
			s.log.Warn().Err(err).Str("tier", string(tier)).Msg("credential tier unreadable, treating as empty")
			readErrs = append(readErrs, fmt.Errorf("read %s tier: %w", tier, err))
			continue
		}
		if !found || cred.Empty() {
			continue
		}

		user, err := decodeUser(cred.UserJSON)
		if err != nil {
			s.log.Warn().Err(err).Str("tier", string(tier)).Msg("discarding corrupt credential")
			if delErr := store.Delete(ctx, skey); delErr != nil {
				s.log.Warn().Err(delErr).Str("tier", string(tier)).Msg("failed to delete corrupt credential")
			}
			continue
		}

		return domain.Session{Token: cred.Token, User: user, Tier: tier}, errors.Join(readErrs...)
	}
	return domain.Session{}, errors.Join(readErrs...)
}

// Save writes token and user record to tier as one unit. The other tier is
// left alone; see Promote.
func (s *CredentialStore) Save(ctx context.Context, key domain.ClientKey, session domain.Session, tier domain.Tier) error {
	if !tier.Valid() {
		return fmt.Errorf("save credential: %w", domain.ErrInvalidTier)
	}
	if session.Token == "" {
		return fmt.Errorf("save credential: %w", domain.ErrEmptyToken)
	}
	if session.User == nil {
		return fmt.Errorf("save credential: %w", domain.ErrNilUser)
	}

	raw, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("save credential: encode user: %w", err)
	}

	store, skey := s.slot(tier, key)
	if skey == "" {
		return fmt.Errorf("save credential: %w: missing %s client id", domain.ErrInvalidTier, tier)
	}
	if err := store.Put(ctx, skey, domain.Credential{Token: session.Token, UserJSON: string(raw)}); err != nil {
		return fmt.Errorf("save credential (%s): %w", tier, err)
	}
	return nil
}

// Promote saves to tier and then removes whatever the other tier holds, so
// the next Load returns exactly what was saved.
func (s *CredentialStore) Promote(ctx context.Context, key domain.ClientKey, session domain.Session, tier domain.Tier) error {
	if err := s.Save(ctx, key, session, tier); err != nil {
		return err
	}
	other, okey := s.slot(tier.Other(), key)
	if okey == "" {
		return nil
	}
	if err := other.Delete(ctx, okey); err != nil {
		return fmt.Errorf("promote credential: clear %s: %w", tier.Other(), err)
	}
	return nil
}

// Clear removes the credential from both tiers. Both deletes are always
// attempted; failures are joined.
func (s *CredentialStore) Clear(ctx context.Context, key domain.ClientKey) error {
	var errs []error
	for _, tier := range []domain.Tier{domain.TierDurable, domain.TierEphemeral} {
		store, skey := s.slot(tier, key)
		if skey == "" {
			continue
		}
		if err := store.Delete(ctx, skey); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", tier, err))
		}
	}
	return errors.Join(errs...)
}

func (s *CredentialStore) slot(tier domain.Tier, key domain.ClientKey) (ports.TierStore, string) {
	switch tier {
	case domain.TierDurable:
		return s.durable, StorageKey(tier, key.Device)
	case domain.TierEphemeral:
		return s.ephemeral, StorageKey(tier, key.Tab)
	}
	return nil, ""
}

// StorageKey derives the key a tier stores a client's credential under.
// Raw client ids never reach the store. An empty id yields "".
func StorageKey(tier domain.Tier, id string) string {
	if id == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(string(tier) + ":" + id))
	return string(tier) + ":" + hex.EncodeToString(sum[:])
}

func decodeUser(raw string) (*domain.UserRecord, error) {
	if raw == "" {
		return nil, domain.ErrCorruptCredential
	}
	var user domain.UserRecord
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptCredential, err)
	}
	return &user, nil
}
