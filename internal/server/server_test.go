package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"bandstand/internal/api"
	"bandstand/internal/config"
	"bandstand/internal/logging"
	"bandstand/internal/server"
	"bandstand/internal/testsupport"
)

func startDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*server.Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return startDaemonWithConfig(t, cfg)
}

func startDaemonWithConfig(t *testing.T, cfg *config.Config) (*server.Daemon, string) {
	t.Helper()
	d, err := server.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})
	return d, "http://" + d.Addr()
}

func postJSON(t *testing.T, url string, request, response any) *http.Response {
	t.Helper()
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp
}

func TestVerifyEndpointFlow(t *testing.T) {
	_, base := startDaemon(t)
	verifyURL := base + "/api/ai/verify"

	var challenge api.ChallengeResponse
	postJSON(t, verifyURL, api.VerifyRequest{Action: api.VerifyActionGenerate, Difficulty: 1}, &challenge)
	if !challenge.Success || challenge.Challenge == nil {
		t.Fatalf("expected generated challenge, got %+v", challenge)
	}
	if len(challenge.Challenge.Questions) != 3 {
		t.Fatalf("expected 3 questions at difficulty 1, got %d", len(challenge.Challenge.Questions))
	}

	// The payload must not leak correct answers.
	raw, err := json.Marshal(challenge)
	if err != nil {
		t.Fatalf("re-encode challenge: %v", err)
	}
	if bytes.Contains(raw, []byte("correctAnswer")) {
		t.Fatalf("challenge payload leaks answers: %s", raw)
	}

	answers := map[string]string{
		challenge.Challenge.Questions[0].ID: "First Album",
		challenge.Challenge.Questions[1].ID: "2010",
		challenge.Challenge.Questions[2].ID: "true",
	}
	var evaluation api.EvaluationResponse
	postJSON(t, verifyURL, api.VerifyRequest{
		Action:      api.VerifyActionEvaluate,
		UserID:      "fan-api",
		ChallengeID: challenge.Challenge.ID,
		Responses:   answers,
	}, &evaluation)
	if !evaluation.Success || !evaluation.Passed {
		t.Fatalf("expected passing evaluation, got %+v", evaluation)
	}
	if evaluation.Score != 100 || !evaluation.AccessGranted || evaluation.NewAccessLevel != 1 {
		t.Fatalf("unexpected evaluation %+v", evaluation)
	}
}

func TestVerifyEndpointUnknownChallenge(t *testing.T) {
	_, base := startDaemon(t)
	var response api.Envelope
	resp := postJSON(t, base+"/api/ai/verify", api.VerifyRequest{
		Action:      api.VerifyActionEvaluate,
		UserID:      "fan",
		ChallengeID: "missing",
	}, &response)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if response.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestSocialEndpointFlow(t *testing.T) {
	_, base := startDaemon(t)
	socialURL := base + "/api/ai/social"

	var generated api.DraftsResponse
	postJSON(t, socialURL, api.SocialRequest{
		Action: api.SocialActionGenerate,
		Theme:  api.Theme{Topic: "New music", Tone: "casual", Platforms: []string{"twitter"}},
		Count:  3,
	}, &generated)
	if !generated.Success || len(generated.Drafts) != 3 {
		t.Fatalf("expected 3 fallback drafts, got %+v", generated)
	}
	for _, draft := range generated.Drafts {
		if draft.Status != "draft" || draft.Votes != 0 {
			t.Fatalf("unexpected draft %+v", draft)
		}
	}

	target := generated.Drafts[0].ID
	up := true
	var voted api.DraftResponse
	postJSON(t, socialURL, api.SocialRequest{Action: api.SocialActionVoteDraft, PostID: target, Increment: &up}, &voted)
	if !voted.Success || voted.Draft.Votes != 1 {
		t.Fatalf("expected one vote, got %+v", voted)
	}

	var updated api.DraftResponse
	postJSON(t, socialURL, api.SocialRequest{Action: api.SocialActionUpdateStatus, PostID: target, Status: "approved"}, &updated)
	if !updated.Success || updated.Draft.Status != "approved" {
		t.Fatalf("expected approval, got %+v", updated)
	}

	var invalid api.Envelope
	resp := postJSON(t, socialURL, api.SocialRequest{Action: api.SocialActionUpdateStatus, PostID: target, Status: "draft"}, &invalid)
	if resp.StatusCode != http.StatusBadRequest || invalid.Success {
		t.Fatalf("expected rejected transition, got %d %+v", resp.StatusCode, invalid)
	}

	var listed api.DraftsResponse
	postJSON(t, socialURL, api.SocialRequest{Action: api.SocialActionGetDrafts, Status: "approved"}, &listed)
	if len(listed.Drafts) != 1 || listed.Drafts[0].ID != target {
		t.Fatalf("status filter failed: %+v", listed)
	}
}

func TestStorageUploadAndList(t *testing.T) {
	_, base := startDaemon(t)

	var upload api.UploadResponse
	postJSON(t, base+"/api/storage/upload", api.UploadRequest{
		Files: []api.UploadFile{
			{Name: "a.jpg", MimeType: "image/jpeg", Data: []byte("aa")},
			{Name: "b.jpg", MimeType: "image/jpeg", Data: []byte("bb")},
		},
		Metadata: api.UploadMetadata{Title: "Gallery"},
	}, &upload)
	if !upload.Success || len(upload.Results) != 2 || len(upload.URLs) != 2 {
		t.Fatalf("expected two upload results with URLs, got %+v", upload)
	}
	for _, result := range upload.Results {
		if result.Outcome != "mocked" {
			t.Fatalf("uninitialized backend must mock uploads, got %q", result.Outcome)
		}
		if !strings.HasPrefix(result.Asset.CID, "mock-cid-") {
			t.Fatalf("expected fabricated identifier, got %q", result.Asset.CID)
		}
	}

	var listed api.ListResponse
	postJSON(t, base+"/api/storage/list", struct{}{}, &listed)
	// Three seeded demo assets plus the two uploads.
	if len(listed.Assets) != 5 {
		t.Fatalf("expected 5 assets, got %d", len(listed.Assets))
	}
}

func TestStorageVerifyMockAsset(t *testing.T) {
	_, base := startDaemon(t)
	var response api.VerifyAssetResponse
	postJSON(t, base+"/api/storage/verify", api.VerifyAssetRequest{CID: "mock-cid-42"}, &response)
	if !response.Success || !response.Verified || response.Source != "local" {
		t.Fatalf("expected local verification, got %+v", response)
	}
}

func TestDelegationEndpoints(t *testing.T) {
	_, base := startDaemon(t)

	var agent api.AgentDIDResponse
	postJSON(t, base+"/api/storage/delegation/get-agent-did", struct{}{}, &agent)
	if !agent.Success || !strings.HasPrefix(agent.DID, "did:key:z") {
		t.Fatalf("expected agent did, got %+v", agent)
	}

	var created api.GrantResponse
	postJSON(t, base+"/api/storage/delegation/create", api.DelegationCreateRequest{
		AudienceDID: "did:key:zFan",
		Abilities:   []string{"upload/add"},
		TTLSeconds:  3600,
	}, &created)
	if !created.Success || created.Grant == nil || created.Grant.Token == "" {
		t.Fatalf("expected signed grant, got %+v", created)
	}

	var used api.GrantResponse
	postJSON(t, base+"/api/storage/delegation/use", api.DelegationUseRequest{Token: created.Grant.Token}, &used)
	if !used.Success || used.Grant.ID != created.Grant.ID {
		t.Fatalf("expected grant to verify, got %+v", used)
	}

	var revoked api.Envelope
	postJSON(t, base+"/api/storage/delegation/revoke", api.DelegationRevokeRequest{GrantID: created.Grant.ID}, &revoked)
	if !revoked.Success {
		t.Fatalf("expected revocation to succeed, got %+v", revoked)
	}

	var refused api.GrantResponse
	postJSON(t, base+"/api/storage/delegation/use", api.DelegationUseRequest{Token: created.Grant.Token}, &refused)
	if refused.Success {
		t.Fatal("expected revoked grant to be refused")
	}
}

func TestStageEndpoint(t *testing.T) {
	_, base := startDaemon(t)
	stageURL := base + "/api/stage"

	var advanced api.StageResponse
	postJSON(t, stageURL, api.StageRequest{Action: api.StageActionAdvance}, &advanced)
	if !advanced.Applied || advanced.Stage != "grid" {
		t.Fatalf("expected advance to grid, got %+v", advanced)
	}

	var selected api.StageResponse
	postJSON(t, stageURL, api.StageRequest{Action: api.StageActionSelect, Index: 1}, &selected)
	if !selected.Applied || selected.Stage != "content" || selected.SelectedIndex != 1 {
		t.Fatalf("expected selection, got %+v", selected)
	}

	// A repeated select on the wrong stage is a silent no-op.
	var rejected api.StageResponse
	postJSON(t, stageURL, api.StageRequest{Action: api.StageActionSelect, Index: 2}, &rejected)
	if rejected.Applied || rejected.Reason == "" {
		t.Fatalf("expected rejected transition with reason, got %+v", rejected)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, base := startDaemon(t)
	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Success || !status.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}
	if status.AssetCount != 3 {
		t.Fatalf("expected seeded archive in status, got %d assets", status.AssetCount)
	}
	if status.Stage != "initial" {
		t.Fatalf("expected initial stage, got %q", status.Stage)
	}
}

func TestAPITokenGuard(t *testing.T) {
	_, base := startDaemon(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "secret"
	})

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized GET: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", authed.StatusCode)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, _ = startDaemonWithConfig(t, cfg)

	second, err := server.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	} else if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected error: %v", err)
	}
}
