package delegation

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bandstand/internal/logging"
	"bandstand/internal/store"
)

const (
	agentKeyKey       = "delegation/agent-key"
	grantKeyPrefix    = "delegation/grant/"
	revokedKeyPrefix  = "delegation/revoked/"
	defaultGrantTTL   = 24 * time.Hour
	maxGrantTTL       = 30 * 24 * time.Hour
	defaultAbilityAll = "space/*"
)

// ErrGrantRevoked indicates a token whose grant was revoked.
var ErrGrantRevoked = errors.New("delegation: grant revoked")

// ErrGrantInvalid indicates a token that fails signature or claim checks.
var ErrGrantInvalid = errors.New("delegation: grant invalid")

// Grant is a signed capability allowing an audience identity to act within
// the storage space for a bounded time and ability set.
type Grant struct {
	ID        string    `json:"id"`
	Issuer    string    `json:"issuer"`
	Audience  string    `json:"audience"`
	Abilities []string  `json:"abilities"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"token,omitempty"`
	Revoked   bool      `json:"revoked,omitempty"`
}

type grantClaims struct {
	Abilities []string `json:"att"`
	jwt.RegisteredClaims
}

// Config wires the delegation service.
type Config struct {
	Store  store.ContentStore
	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service manages the agent identity and UCAN-style delegation grants. The
// agent's ed25519 key persists in the content store so its did:key survives
// restarts; grants are EdDSA-signed JWTs verified against that key.
type Service struct {
	store  store.ContentStore
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	key ed25519.PrivateKey
	did string
}

// NewService constructs the delegation service. The agent key is loaded or
// generated lazily on first use.
func NewService(cfg Config) *Service {
	contentStore := cfg.Store
	if contentStore == nil {
		contentStore = store.Noop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  contentStore,
		logger: logging.WithComponent(cfg.Logger, "delegation"),
		now:    now,
	}
}

// AgentDID returns the agent's did:key identity, creating and persisting the
// underlying key on first call.
func (s *Service) AgentDID(ctx context.Context) (string, error) {
	if err := s.ensureKey(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.did, nil
}

func (s *Service) ensureKey(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return nil
	}

	raw, err := s.store.Get(ctx, agentKeyKey)
	if err == nil {
		if len(raw) != ed25519.SeedSize {
			return errors.New("delegation: stored agent key has wrong size")
		}
		s.key = ed25519.NewKeyFromSeed(raw)
		s.did = EncodeDID(s.key.Public().(ed25519.PublicKey))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delegation: load agent key: %w", err)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("delegation: generate agent key: %w", err)
	}
	if err := s.store.Put(ctx, agentKeyKey, key.Seed()); err != nil {
		return fmt.Errorf("delegation: persist agent key: %w", err)
	}
	s.key = key
	s.did = EncodeDID(key.Public().(ed25519.PublicKey))
	s.logger.Info("agent identity created", logging.String("did", s.did))
	return nil
}

// CreateGrant issues a signed delegation for the audience DID. Zero ttl uses
// the default; ttl is capped at thirty days. Empty abilities default to the
// full space ability.
func (s *Service) CreateGrant(ctx context.Context, audienceDID string, abilities []string, ttl time.Duration) (*Grant, error) {
	audienceDID = strings.TrimSpace(audienceDID)
	if audienceDID == "" {
		return nil, errors.New("delegation: audience did required")
	}
	if err := s.ensureKey(ctx); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultGrantTTL
	}
	if ttl > maxGrantTTL {
		ttl = maxGrantTTL
	}
	if len(abilities) == 0 {
		abilities = []string{defaultAbilityAll}
	}

	s.mu.Lock()
	key := s.key
	issuer := s.did
	s.mu.Unlock()

	now := s.now().UTC()
	grant := &Grant{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Audience:  audienceDID,
		Abilities: append([]string(nil), abilities...),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	claims := grantClaims{
		Abilities: grant.Abilities,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        grant.ID,
			Issuer:    grant.Issuer,
			Subject:   grant.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("delegation: sign grant: %w", err)
	}
	grant.Token = token

	if err := s.persistGrant(ctx, grant); err != nil {
		return nil, err
	}
	s.logger.Info("grant issued",
		logging.String("grant_id", grant.ID),
		logging.String("audience", grant.Audience),
		logging.Duration("ttl", ttl),
	)
	return grant, nil
}

// UseGrant verifies a presented token and returns the grant it carries.
// Expired, tampered, and revoked tokens all fail.
func (s *Service) UseGrant(ctx context.Context, token string) (*Grant, error) {
	if err := s.ensureKey(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	pub := s.key.Public().(ed25519.PublicKey)
	s.mu.Unlock()

	claims := &grantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return pub, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrGrantInvalid, err)
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrGrantRevoked
	}

	return &Grant{
		ID:        claims.ID,
		Issuer:    claims.Issuer,
		Audience:  claims.Subject,
		Abilities: claims.Abilities,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RevokeGrant invalidates an issued grant by id. Revocation is durable and
// idempotent.
func (s *Service) RevokeGrant(ctx context.Context, grantID string) error {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return errors.New("delegation: grant id required")
	}
	if err := s.store.Put(ctx, revokedKeyPrefix+grantID, []byte(s.now().UTC().Format(time.RFC3339))); err != nil {
		return fmt.Errorf("delegation: persist revocation: %w", err)
	}
	s.logger.Info("grant revoked", logging.String("grant_id", grantID))
	return nil
}

// Grants lists all issued grants with their revocation state.
func (s *Service) Grants(ctx context.Context) ([]Grant, error) {
	keys, err := s.store.List(ctx, grantKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("delegation: list grants: %w", err)
	}
	grants := make([]Grant, 0, len(keys))
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("delegation: load grant %q: %w", key, err)
		}
		var grant Grant
		if err := json.Unmarshal(raw, &grant); err != nil {
			return nil, fmt.Errorf("delegation: decode grant %q: %w", key, err)
		}
		grant.Token = ""
		revoked, err := s.isRevoked(ctx, grant.ID)
		if err != nil {
			return nil, err
		}
		grant.Revoked = revoked
		grants = append(grants, grant)
	}
	return grants, nil
}

func (s *Service) persistGrant(ctx context.Context, grant *Grant) error {
	record := *grant
	record.Token = ""
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("delegation: encode grant: %w", err)
	}
	if err := s.store.Put(ctx, grantKeyPrefix+grant.ID, encoded); err != nil {
		return fmt.Errorf("delegation: persist grant: %w", err)
	}
	return nil
}

func (s *Service) isRevoked(ctx context.Context, grantID string) (bool, error) {
	_, err := s.store.Get(ctx, revokedKeyPrefix+grantID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delegation: check revocation: %w", err)
	}
	return true, nil
}
