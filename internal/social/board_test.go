package social_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bandstand/internal/archive"
	"bandstand/internal/services/llm"
	"bandstand/internal/social"
	"bandstand/internal/testsupport"
)

type stubLibrary struct {
	assets []archive.Asset
}

func (s stubLibrary) Assets() []archive.Asset { return s.assets }

func newOfflineBoard() *social.Board {
	return social.NewBoard(social.Config{Store: testsupport.NewMemoryStore()})
}

func newLLMServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func TestGeneratePostsFallback(t *testing.T) {
	board := newOfflineBoard()
	drafts, err := board.GeneratePosts(context.Background(), social.Theme{
		Topic:     "New music",
		Tone:      "casual",
		Platforms: []string{"twitter"},
	}, 3)
	if err != nil {
		t.Fatalf("GeneratePosts returned error: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected exactly 3 canned drafts, got %d", len(drafts))
	}
	for _, draft := range drafts {
		if draft.Status != social.StatusDraft {
			t.Fatalf("expected draft status, got %q", draft.Status)
		}
		if draft.Votes != 0 {
			t.Fatalf("expected zero votes, got %d", draft.Votes)
		}
		if draft.ID == "" || draft.BatchID == "" {
			t.Fatalf("expected ids on every draft: %+v", draft)
		}
	}
}

func TestGeneratePostsFromLLM(t *testing.T) {
	payload := `[
		{"content":"Single drops Friday.","platforms":["twitter"],"suggestedMedia":"cover art"},
		{"content":"Behind the scenes soon.","platforms":["instagram"],"suggestedMedia":"studio photo"}
	]`
	server := newLLMServer(t, payload)
	defer server.Close()

	board := social.NewBoard(social.Config{
		LLM:   llm.NewClient(llm.Config{APIKey: "key", BaseURL: server.URL}),
		Store: testsupport.NewMemoryStore(),
	})
	drafts, err := board.GeneratePosts(context.Background(), social.Theme{Topic: "release"}, 2)
	if err != nil {
		t.Fatalf("GeneratePosts returned error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Content != "Single drops Friday." {
		t.Fatalf("expected model content to survive, got %q", drafts[0].Content)
	}
}

func TestGeneratePostsMediaMatching(t *testing.T) {
	library := stubLibrary{assets: []archive.Asset{
		{CID: "cid-poster", Name: "tour-poster.png", Metadata: archive.Metadata{Title: "Tour Poster", Tags: []string{"poster"}}},
		{CID: "cid-live", Name: "live-shot.jpg", Metadata: archive.Metadata{Title: "Live Shot", Tags: []string{"live", "show"}}},
	}}
	board := social.NewBoard(social.Config{
		Store:   testsupport.NewMemoryStore(),
		Library: library,
	})

	drafts, err := board.GeneratePosts(context.Background(), social.Theme{
		Topic:        "Throwback",
		IncludeMedia: true,
	}, 3)
	if err != nil {
		t.Fatalf("GeneratePosts returned error: %v", err)
	}
	for _, draft := range drafts {
		if draft.MediaCID == "" {
			t.Fatalf("expected media match or random fallback, got none for %q", draft.SuggestedMedia)
		}
	}
	// The second canned draft suggests a "live show photo" and must keyword
	// match the live asset rather than fall back randomly.
	if drafts[1].MediaCID != "cid-live" {
		t.Fatalf("expected keyword match to cid-live, got %q", drafts[1].MediaCID)
	}
}

func TestVotesCancelOut(t *testing.T) {
	board := newOfflineBoard()
	ctx := context.Background()
	drafts, _ := board.GeneratePosts(ctx, social.Theme{Topic: "x"}, 1)
	id := drafts[0].ID

	for i := 0; i < 5; i++ {
		if _, err := board.VoteDraft(ctx, id, true); err != nil {
			t.Fatalf("upvote returned error: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		if _, err := board.VoteDraft(ctx, id, false); err != nil {
			t.Fatalf("downvote returned error: %v", err)
		}
	}
	final := board.Drafts(social.StatusAll, 0)
	if final[0].Votes != 0 {
		t.Fatalf("inverse votes must cancel, got %d", final[0].Votes)
	}
}

func TestVoteUnknownDraft(t *testing.T) {
	board := newOfflineBoard()
	if _, err := board.VoteDraft(context.Background(), "missing", true); !errors.Is(err, social.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestStatusWorkflow(t *testing.T) {
	board := newOfflineBoard()
	ctx := context.Background()
	drafts, _ := board.GeneratePosts(ctx, social.Theme{Topic: "x"}, 2)
	first, second := drafts[0].ID, drafts[1].ID

	// draft -> approved -> posted
	if _, err := board.UpdateStatus(ctx, first, social.StatusApproved); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	if _, err := board.UpdateStatus(ctx, first, social.StatusPosted); err != nil {
		t.Fatalf("post returned error: %v", err)
	}
	// posted is terminal
	if _, err := board.UpdateStatus(ctx, first, social.StatusRejected); !errors.Is(err, social.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from posted, got %v", err)
	}

	// rejected is reachable from draft and terminal afterwards
	if _, err := board.UpdateStatus(ctx, second, social.StatusRejected); err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	if _, err := board.UpdateStatus(ctx, second, social.StatusApproved); !errors.Is(err, social.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from rejected, got %v", err)
	}
}

func TestRejectedReachableFromApproved(t *testing.T) {
	board := newOfflineBoard()
	ctx := context.Background()
	drafts, _ := board.GeneratePosts(ctx, social.Theme{Topic: "x"}, 1)
	id := drafts[0].ID

	if _, err := board.UpdateStatus(ctx, id, social.StatusApproved); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	updated, err := board.UpdateStatus(ctx, id, social.StatusRejected)
	if err != nil {
		t.Fatalf("reject from approved returned error: %v", err)
	}
	if updated.Status != social.StatusRejected {
		t.Fatalf("expected rejected, got %q", updated.Status)
	}
}

func TestDraftsFilterSortAndLimit(t *testing.T) {
	board := newOfflineBoard()
	ctx := context.Background()
	drafts, _ := board.GeneratePosts(ctx, social.Theme{Topic: "x"}, 3)

	// Give the last draft the most votes and approve it.
	for i := 0; i < 3; i++ {
		if _, err := board.VoteDraft(ctx, drafts[2].ID, true); err != nil {
			t.Fatalf("vote returned error: %v", err)
		}
	}
	if _, err := board.UpdateStatus(ctx, drafts[2].ID, social.StatusApproved); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}

	all := board.Drafts(social.StatusAll, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(all))
	}
	if all[0].ID != drafts[2].ID {
		t.Fatal("expected highest-voted draft first")
	}

	approved := board.Drafts(social.StatusApproved, 0)
	if len(approved) != 1 || approved[0].ID != drafts[2].ID {
		t.Fatalf("status filter failed: %+v", approved)
	}

	limited := board.Drafts(social.StatusAll, 2)
	if len(limited) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(limited))
	}
}

func TestBoardPersistsAcrossLoads(t *testing.T) {
	contentStore := testsupport.NewMemoryStore()
	ctx := context.Background()

	board := social.NewBoard(social.Config{Store: contentStore})
	drafts, err := board.GeneratePosts(ctx, social.Theme{Topic: "x"}, 2)
	if err != nil {
		t.Fatalf("GeneratePosts returned error: %v", err)
	}
	if _, err := board.VoteDraft(ctx, drafts[0].ID, true); err != nil {
		t.Fatalf("vote returned error: %v", err)
	}

	reloaded := social.NewBoard(social.Config{Store: contentStore})
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	restored := reloaded.Drafts(social.StatusAll, 0)
	if len(restored) != 2 {
		t.Fatalf("expected 2 restored drafts, got %d", len(restored))
	}
	if restored[0].Votes != 1 {
		t.Fatalf("expected persisted vote tally, got %d", restored[0].Votes)
	}
}
