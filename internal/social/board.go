package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bandstand/internal/archive"
	"bandstand/internal/logging"
	"bandstand/internal/notifications"
	"bandstand/internal/services/llm"
	"bandstand/internal/store"
)

const (
	batchKeyPrefix = "social/batch/"

	defaultCount = 3
	maxCount     = 10
)

// ErrDraftNotFound indicates the requested draft id is unknown.
var ErrDraftNotFound = errors.New("social: draft not found")

// ErrInvalidTransition indicates a status change the workflow does not allow.
var ErrInvalidTransition = errors.New("social: invalid status transition")

// Library is the archive surface the board needs for media matching.
type Library interface {
	Assets() []archive.Asset
}

// generatedPost is the shape the LLM is asked to produce per draft.
type generatedPost struct {
	Content        string   `json:"content"`
	Platforms      []string `json:"platforms"`
	SuggestedMedia string   `json:"suggestedMedia"`
}

// Config wires the draft board to its collaborators.
type Config struct {
	LLM      *llm.Client
	Store    store.ContentStore
	Library  Library
	Notifier notifications.Service
	Logger   *slog.Logger

	// DefaultPlatforms is used when neither the theme nor the model names
	// target platforms.
	DefaultPlatforms []string

	// Now overrides the clock, for tests.
	Now func() time.Time
	// NewID overrides id generation, for tests.
	NewID func() string
	// Rand overrides the random-asset picker, for tests.
	Rand *rand.Rand
}

// Board generates candidate social posts and runs the moderation workflow
// over them: open voting and a draft/approved/posted/rejected status
// progression. Batches persist through the content store; votes and status
// changes are last-writer-wins by design.
type Board struct {
	llm              *llm.Client
	store            store.ContentStore
	library          Library
	notifier         notifications.Service
	logger           *slog.Logger
	defaultPlatforms []string
	now              func() time.Time
	newID            func() string
	rand             *rand.Rand

	mu      sync.Mutex
	batches map[string][]PostDraft
}

// NewBoard constructs the draft board.
func NewBoard(cfg Config) *Board {
	contentStore := cfg.Store
	if contentStore == nil {
		contentStore = store.Noop{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notifications.Noop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	platforms := cfg.DefaultPlatforms
	if len(platforms) == 0 {
		platforms = []string{"twitter", "instagram"}
	}
	return &Board{
		llm:              cfg.LLM,
		store:            contentStore,
		library:          cfg.Library,
		notifier:         notifier,
		logger:           logging.WithComponent(cfg.Logger, "social"),
		defaultPlatforms: platforms,
		now:              now,
		newID:            newID,
		rand:             rng,
		batches:          make(map[string][]PostDraft),
	}
}

// Load hydrates previously persisted batches from the content store.
func (b *Board) Load(ctx context.Context) error {
	keys, err := b.store.List(ctx, batchKeyPrefix)
	if err != nil {
		return fmt.Errorf("social: list batches: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range keys {
		raw, err := b.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("social: load batch %q: %w", key, err)
		}
		var drafts []PostDraft
		if err := json.Unmarshal(raw, &drafts); err != nil {
			b.logger.Warn("stored batch unreadable, skipping",
				logging.String("key", key),
				logging.Error(err),
			)
			continue
		}
		b.batches[strings.TrimPrefix(key, batchKeyPrefix)] = drafts
	}
	b.logger.Info("draft board hydrated", logging.Int("batches", len(b.batches)))
	return nil
}

// GeneratePosts produces one batch of candidate drafts for the theme. The
// LLM is asked once; any failure degrades to the canned fallback batch,
// sliced to count.
func (b *Board) GeneratePosts(ctx context.Context, theme Theme, count int) ([]PostDraft, error) {
	if count <= 0 {
		count = defaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	posts := b.generate(ctx, theme, count)
	now := b.now().UTC()
	batchID := b.newID()
	drafts := make([]PostDraft, 0, len(posts))
	for _, post := range posts {
		platforms := post.Platforms
		if len(platforms) == 0 {
			platforms = theme.Platforms
		}
		if len(platforms) == 0 {
			platforms = b.defaultPlatforms
		}
		draft := PostDraft{
			ID:             b.newID(),
			BatchID:        batchID,
			Content:        post.Content,
			Platforms:      append([]string(nil), platforms...),
			SuggestedMedia: post.SuggestedMedia,
			Status:         StatusDraft,
			CreatedAt:      now,
		}
		if theme.IncludeMedia {
			draft.MediaCID = b.matchMedia(post.SuggestedMedia)
		}
		drafts = append(drafts, draft)
	}

	b.mu.Lock()
	b.batches[batchID] = drafts
	b.mu.Unlock()
	if err := b.persistBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return append([]PostDraft(nil), drafts...), nil
}

func (b *Board) generate(ctx context.Context, theme Theme, count int) []generatedPost {
	if b.llm != nil && b.llm.Configured() {
		posts, err := b.askLLM(ctx, theme, count)
		if err == nil {
			return posts
		}
		b.logger.Warn("post generation degraded to canned drafts",
			logging.String("topic", theme.Topic),
			logging.Error(err),
			logging.Bool(logging.FieldFallback, true),
		)
	}

	canned := fallbackDrafts()
	if count > len(canned) {
		count = len(canned)
	}
	return canned[:count]
}

func (b *Board) askLLM(ctx context.Context, theme Theme, count int) ([]generatedPost, error) {
	platforms := theme.Platforms
	if len(platforms) == 0 {
		platforms = b.defaultPlatforms
	}
	systemPrompt := "You draft social media posts for a band's promotional team. " +
		"Respond with JSON only: an array of objects with content, platforms, and suggestedMedia fields."
	userPrompt := fmt.Sprintf(
		"Write %d posts about %q in a %s tone for these platforms: %s. "+
			"suggestedMedia should briefly describe a fitting photo or clip.",
		count, theme.Topic, orDefault(theme.Tone, "casual"), strings.Join(platforms, ", "),
	)

	content, err := b.llm.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	var posts []generatedPost
	if err := llm.DecodeJSON(content, &posts); err != nil {
		return nil, fmt.Errorf("parse posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, errors.New("response contained no posts")
	}
	if len(posts) > count {
		posts = posts[:count]
	}
	return posts, nil
}

// matchMedia pairs a draft with an archived asset by naive keyword overlap
// between the suggested-media description and asset metadata, falling back to
// a random asset. Best effort only.
func (b *Board) matchMedia(suggested string) string {
	if b.library == nil {
		return ""
	}
	assets := b.library.Assets()
	if len(assets) == 0 {
		return ""
	}
	for _, word := range strings.Fields(strings.ToLower(suggested)) {
		if len(word) < 4 {
			continue
		}
		for _, asset := range assets {
			if strings.Contains(asset.SearchText(), word) {
				return asset.CID
			}
		}
	}
	return assets[b.rand.Intn(len(assets))].CID
}

// VoteDraft adjusts a draft's vote tally by one in either direction. Voting
// is open: no per-user de-duplication is applied.
func (b *Board) VoteDraft(ctx context.Context, draftID string, up bool) (*PostDraft, error) {
	delta := 1
	if !up {
		delta = -1
	}
	return b.mutate(ctx, draftID, func(draft *PostDraft) error {
		draft.Votes += delta
		return nil
	})
}

// UpdateStatus moves a draft through the moderation workflow. Rejected and
// posted drafts accept no further transitions.
func (b *Board) UpdateStatus(ctx context.Context, draftID, status string) (*PostDraft, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("social: unknown status %q", status)
	}
	draft, err := b.mutate(ctx, draftID, func(draft *PostDraft) error {
		if !transitionAllowed(draft.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, draft.Status, status)
		}
		draft.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notifyErr := b.notifier.NotifyDraftStatusChanged(ctx, draft.ID, draft.Status); notifyErr != nil {
		b.logger.Warn("draft notification failed", logging.Error(notifyErr))
	}
	b.logger.Info("draft status updated",
		logging.String("draft_id", draft.ID),
		logging.String("status", draft.Status),
	)
	return draft, nil
}

// mutate locates a draft across all batches, applies fn, and persists the
// containing batch. Last writer wins.
func (b *Board) mutate(ctx context.Context, draftID string, fn func(*PostDraft) error) (*PostDraft, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return nil, ErrDraftNotFound
	}

	b.mu.Lock()
	var found *PostDraft
	var batchID string
	for id, drafts := range b.batches {
		for i := range drafts {
			if drafts[i].ID == draftID {
				found = &drafts[i]
				batchID = id
				break
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		b.mu.Unlock()
		return nil, ErrDraftNotFound
	}
	if err := fn(found); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	updated := *found
	b.mu.Unlock()

	if err := b.persistBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Drafts flattens every batch, filters by status (StatusAll or empty keeps
// everything), sorts by votes then recency, and truncates to limit.
func (b *Board) Drafts(status string, limit int) []PostDraft {
	b.mu.Lock()
	var drafts []PostDraft
	for _, batch := range b.batches {
		for _, draft := range batch {
			if status == "" || status == StatusAll || draft.Status == status {
				drafts = append(drafts, draft)
			}
		}
	}
	b.mu.Unlock()

	sort.SliceStable(drafts, func(i, j int) bool {
		if drafts[i].Votes != drafts[j].Votes {
			return drafts[i].Votes > drafts[j].Votes
		}
		return drafts[i].CreatedAt.After(drafts[j].CreatedAt)
	})
	if limit > 0 && len(drafts) > limit {
		drafts = drafts[:limit]
	}
	return drafts
}

func (b *Board) persistBatch(ctx context.Context, batchID string) error {
	b.mu.Lock()
	drafts := append([]PostDraft(nil), b.batches[batchID]...)
	b.mu.Unlock()

	encoded, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("social: encode batch: %w", err)
	}
	if err := b.store.Put(ctx, batchKeyPrefix+batchID, encoded); err != nil {
		return fmt.Errorf("social: persist batch: %w", err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
