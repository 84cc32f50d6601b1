package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bandstand/internal/logging"
	"bandstand/internal/notifications"
	"bandstand/internal/services/storacha"
	"bandstand/internal/store"
)

const (
	assetsKey      = "archive/assets"
	initializedKey = "archive/remote-initialized"

	defaultInitTimeout = 15 * time.Second
)

// Config wires the archive service to its collaborators.
type Config struct {
	Bridge   *storacha.Client
	Store    store.ContentStore
	Notifier notifications.Service
	Logger   *slog.Logger

	// Email and Space identify the remote storage session.
	Email string
	Space string
	// InitTimeout bounds the remote session attempt during Initialize.
	InitTimeout time.Duration
	// SeedDemo seeds three demo records when the local archive is empty.
	SeedDemo bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service is the asset archive: a locally persisted list of uploaded media
// records with best-effort synchronization to the decentralized storage
// bridge. Every operation succeeds against local data even when the bridge is
// down; results are tagged so callers can tell a real upload from a mocked one.
type Service struct {
	logger   *slog.Logger
	bridge   *storacha.Client
	store    store.ContentStore
	notifier notifications.Service

	email       string
	space       string
	initTimeout time.Duration
	seedDemo    bool
	now         func() time.Time

	mu      sync.Mutex
	assets  []Asset
	session *storacha.Session
}

// NewService constructs the archive. A nil content store degrades to the
// no-op store; a nil notifier suppresses notifications.
func NewService(cfg Config) *Service {
	contentStore := cfg.Store
	if contentStore == nil {
		contentStore = store.Noop{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notifications.Noop()
	}
	initTimeout := cfg.InitTimeout
	if initTimeout <= 0 {
		initTimeout = defaultInitTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logger:      logging.WithComponent(cfg.Logger, "archive"),
		bridge:      cfg.Bridge,
		store:       contentStore,
		notifier:    notifier,
		email:       strings.TrimSpace(cfg.Email),
		space:       strings.TrimSpace(cfg.Space),
		initTimeout: initTimeout,
		seedDemo:    cfg.SeedDemo,
		now:         now,
	}
}

// Initialize hydrates the in-memory asset list from the content store,
// seeding demo records when the archive is empty, then attempts the remote
// session in the background. Remote failure is logged and swallowed; the
// archive keeps operating on local data only.
func (s *Service) Initialize(ctx context.Context) error {
	if err := s.hydrate(ctx); err != nil {
		return err
	}
	go func() {
		connectCtx, cancel := context.WithTimeout(context.Background(), s.initTimeout)
		defer cancel()
		if err := s.ConnectRemote(connectCtx); err != nil {
			s.logger.Warn("remote storage unavailable, continuing local-only",
				logging.Error(err),
				logging.Bool(logging.FieldFallback, true),
			)
		}
	}()
	return nil
}

func (s *Service) hydrate(ctx context.Context) error {
	raw, err := s.store.Get(ctx, assetsKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("archive: load assets: %w", err)
	}

	var assets []Asset
	if err == nil {
		if decodeErr := json.Unmarshal(raw, &assets); decodeErr != nil {
			s.logger.Warn("stored asset list unreadable, reseeding",
				logging.Error(decodeErr),
				logging.Bool(logging.FieldFallback, true),
			)
			assets = nil
		}
	}
	if assets == nil {
		if s.seedDemo {
			assets = seedAssets(s.now().UTC())
		} else {
			assets = []Asset{}
		}
		if err := s.persistLocked(ctx, assets); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.assets = assets
	s.mu.Unlock()
	s.logger.Info("archive hydrated", logging.Int("assets", len(assets)))
	return nil
}

// ConnectRemote establishes the storage bridge session. It is normally driven
// by Initialize but exposed for explicit reconnection.
func (s *Service) ConnectRemote(ctx context.Context) error {
	if s.bridge == nil || !s.bridge.Configured() {
		return storacha.ErrNotConfigured
	}
	session, err := s.bridge.CreateSession(ctx, s.email, s.space)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	if err := s.store.Put(ctx, initializedKey, []byte("true")); err != nil {
		s.logger.Warn("failed to persist initialization flag", logging.Error(err))
	}
	s.logger.Info("storage bridge session established", logging.String("space_did", session.SpaceDID))
	return nil
}

// Initialized reports whether a remote session is currently established.
func (s *Service) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// SpaceDID returns the remote space identity, or empty when local-only.
func (s *Service) SpaceDID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.SpaceDID
}

// Assets returns a copy of the in-memory asset list.
func (s *Service) Assets() []Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Asset(nil), s.assets...)
}

// UploadOne stores a single file. With a live bridge session the file goes to
// the backend and the real content identifier is recorded; otherwise a local
// record with a fabricated identifier is appended so the caller never blocks
// on backend availability. The outcome tag tells the two apart.
func (s *Service) UploadOne(ctx context.Context, up Upload, meta Metadata) (*UploadResult, error) {
	if strings.TrimSpace(up.Name) == "" {
		return nil, errors.New("archive: upload name required")
	}

	asset, outcome := s.storeRemote(ctx, up, meta)
	if err := s.append(ctx, asset); err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyUploadStored(ctx, asset.Name, asset.CID, outcome == OutcomeMocked); err != nil {
		s.logger.Warn("upload notification failed", logging.Error(err))
	}
	return &UploadResult{Asset: asset, Outcome: outcome}, nil
}

func (s *Service) storeRemote(ctx context.Context, up Upload, meta Metadata) (Asset, Outcome) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session != nil && s.bridge.Configured() {
		result, err := s.bridge.Upload(ctx, storacha.UploadRequest{
			Name:     up.Name,
			MimeType: up.MimeType,
			Data:     up.Data,
			Metadata: map[string]string{
				"title":       meta.Title,
				"description": meta.Description,
				"type":        meta.Type,
			},
		})
		if err == nil {
			return Asset{
				CID:        result.CID,
				Name:       up.Name,
				MimeType:   up.MimeType,
				SizeBytes:  result.Size,
				URL:        result.URL,
				Metadata:   meta,
				Pinned:     true,
				UploadedAt: s.now().UTC(),
			}, OutcomeStored
		}
		s.logger.Warn("bridge upload failed, falling back to mock record",
			logging.String("name", up.Name),
			logging.Error(err),
			logging.Bool(logging.FieldFallback, true),
		)
	}

	cid := MockCIDPrefix + strconv.FormatInt(s.now().UnixNano(), 10)
	return Asset{
		CID:        cid,
		Name:       up.Name,
		MimeType:   up.MimeType,
		SizeBytes:  int64(len(up.Data)),
		URL:        storacha.GatewayURL(cid, up.Name),
		Metadata:   meta,
		UploadedAt: s.now().UTC(),
	}, OutcomeMocked
}

// UploadMany fans the uploads out concurrently. Completion order is not
// defined; if any upload fails the whole batch reports the error, but uploads
// that already succeeded stay appended.
func (s *Service) UploadMany(ctx context.Context, uploads []Upload, meta Metadata) ([]UploadResult, error) {
	results := make([]*UploadResult, len(uploads))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, up := range uploads {
		i, up := i, up
		group.Go(func() error {
			result, err := s.UploadOne(groupCtx, up, meta)
			if err != nil {
				return fmt.Errorf("upload %q: %w", up.Name, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]UploadResult, 0, len(results))
	for _, result := range results {
		out = append(out, *result)
	}
	return out, nil
}

// Verify checks that an asset is still retrievable. Mock assets verify
// locally without a network call.
func (s *Service) Verify(ctx context.Context, cid string) (*VerifyResult, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return nil, errors.New("archive: cid required")
	}
	if strings.HasPrefix(cid, MockCIDPrefix) {
		return &VerifyResult{CID: cid, Verified: true, Source: "local"}, nil
	}
	if s.bridge == nil || !s.bridge.Configured() {
		return nil, storacha.ErrNotConfigured
	}
	status, err := s.bridge.Status(ctx, cid)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{CID: cid, Verified: status.Pinned, Source: "bridge"}, nil
}

// Refresh re-reads the persisted asset list. It does not reconcile against
// the bridge; a refresh is a reload from the local store.
func (s *Service) Refresh(ctx context.Context) ([]Asset, error) {
	raw, err := s.store.Get(ctx, assetsKey)
	if errors.Is(err, store.ErrNotFound) {
		s.mu.Lock()
		s.assets = []Asset{}
		s.mu.Unlock()
		return []Asset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: refresh: %w", err)
	}
	var assets []Asset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, fmt.Errorf("archive: refresh: decode assets: %w", err)
	}
	s.mu.Lock()
	s.assets = assets
	s.mu.Unlock()
	return append([]Asset(nil), assets...), nil
}

func (s *Service) append(ctx context.Context, asset Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]Asset(nil), s.assets...), asset)
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.assets = next
	return nil
}

// markPinned records the syncer's latest pin verdict for a CID. It reports
// whether the verdict changed the stored value.
func (s *Service) markPinned(ctx context.Context, cid string, pinned bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	next := append([]Asset(nil), s.assets...)
	for i := range next {
		if next[i].CID == cid && next[i].Pinned != pinned {
			next[i].Pinned = pinned
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return false, err
	}
	s.assets = next
	return true, nil
}

func (s *Service) persistLocked(ctx context.Context, assets []Asset) error {
	encoded, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("archive: encode assets: %w", err)
	}
	if err := s.store.Put(ctx, assetsKey, encoded); err != nil {
		return fmt.Errorf("archive: persist assets: %w", err)
	}
	return nil
}
