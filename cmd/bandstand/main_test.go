package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bandstand/internal/logging"
	"bandstand/internal/server"
	"bandstand/internal/testsupport"
)

type cliTestEnv struct {
	daemon  *server.Daemon
	baseURL string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	// Keep the CLI's config discovery away from any real user config.
	t.Setenv("HOME", t.TempDir())

	cfg := testsupport.NewConfig(t)
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

	return &cliTestEnv{daemon: d, baseURL: "http://" + d.Addr()}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--api", env.baseURL}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Bandstand Daemon")
	requireContains(t, out, "Running")
	requireContains(t, out, "Page stage")
}

func TestCLIAssetsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	photo := filepath.Join(t.TempDir(), "tour-photo.jpg")
	if err := os.WriteFile(photo, []byte("jpegdata"), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}

	out, _, err := runCLI(t, env, "assets", "upload", photo, "--title", "Tour", "--tag", "live")
	if err != nil {
		t.Fatalf("assets upload: %v", err)
	}
	requireContains(t, out, "tour-photo.jpg")
	requireContains(t, out, "mocked")

	out, _, err = runCLI(t, env, "assets", "list")
	if err != nil {
		t.Fatalf("assets list: %v", err)
	}
	requireContains(t, out, "tour-photo.jpg")
	requireContains(t, out, "CID")

	out, _, err = runCLI(t, env, "assets", "verify", "mock-cid-anything")
	if err != nil {
		t.Fatalf("assets verify: %v", err)
	}
	requireContains(t, out, "verified=yes")
	requireContains(t, out, "source=local")
}

func TestCLIQuizCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "quiz", "generate", "--difficulty", "1")
	if err != nil {
		t.Fatalf("quiz generate: %v", err)
	}
	requireContains(t, out, "Challenge")
	requireContains(t, out, "fallback-1")

	// The fallback bank makes answers deterministic.
	challengeID := extractChallengeID(t, out)
	out, _, err = runCLI(t, env, "quiz", "answer", challengeID,
		"--user", "fan-cli",
		"--answer", "fallback-1=First Album",
		"--answer", "fallback-2=2010",
		"--answer", "fallback-3=true",
	)
	if err != nil {
		t.Fatalf("quiz answer: %v", err)
	}
	requireContains(t, out, "Score: 100%")
	requireContains(t, out, "access level is now 1")
}

func extractChallengeID(t *testing.T, generateOutput string) string {
	t.Helper()
	for _, line := range strings.Split(generateOutput, "\n") {
		if strings.HasPrefix(line, "Challenge ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				return fields[1]
			}
		}
	}
	t.Fatalf("no challenge id in output: %q", generateOutput)
	return ""
}

func TestCLIDraftsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "drafts", "generate", "--topic", "new single", "--count", "3")
	if err != nil {
		t.Fatalf("drafts generate: %v", err)
	}
	requireContains(t, out, "draft")

	out, _, err = runCLI(t, env, "drafts", "list", "--json")
	if err != nil {
		t.Fatalf("drafts list: %v", err)
	}
	draftID := extractFirstDraftID(t, out)

	out, _, err = runCLI(t, env, "drafts", "vote", draftID)
	if err != nil {
		t.Fatalf("drafts vote: %v", err)
	}
	requireContains(t, out, "1 votes")

	out, _, err = runCLI(t, env, "drafts", "set-status", draftID, "approved")
	if err != nil {
		t.Fatalf("drafts set-status: %v", err)
	}
	requireContains(t, out, "approved")

	_, _, err = runCLI(t, env, "drafts", "set-status", draftID, "draft")
	if err == nil {
		t.Fatal("expected invalid transition to fail")
	}
}

func extractFirstDraftID(t *testing.T, listJSON string) string {
	t.Helper()
	marker := `"id": "`
	idx := strings.Index(listJSON, marker)
	if idx < 0 {
		t.Fatalf("no draft id in output: %q", listJSON)
	}
	rest := listJSON[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatalf("malformed draft id in output: %q", listJSON)
	}
	return rest[:end]
}

func TestCLIDelegationCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "delegation", "agent-did")
	if err != nil {
		t.Fatalf("agent-did: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "did:key:z") {
		t.Fatalf("unexpected agent did output: %q", out)
	}

	out, _, err = runCLI(t, env, "delegation", "create",
		"--audience", "did:key:zFanClub", "--ability", "upload/add", "--ttl", "1h")
	if err != nil {
		t.Fatalf("delegation create: %v", err)
	}
	requireContains(t, out, "did:key:zFanClub")
	requireContains(t, out, "upload/add")

	token := extractToken(t, out)
	grantID := extractGrantID(t, out)

	inspected, _, err := runCLI(t, env, "delegation", "inspect", token)
	if err != nil {
		t.Fatalf("delegation inspect: %v", err)
	}
	requireContains(t, inspected, grantID)

	out, _, err = runCLI(t, env, "delegation", "revoke", grantID)
	if err != nil {
		t.Fatalf("delegation revoke: %v", err)
	}
	requireContains(t, out, "Revoked")

	_, _, err = runCLI(t, env, "delegation", "inspect", token)
	if err == nil {
		t.Fatal("expected revoked grant inspection to fail")
	}
}

func extractToken(t *testing.T, createOutput string) string {
	t.Helper()
	idx := strings.Index(createOutput, "Token:\n")
	if idx < 0 {
		t.Fatalf("no token in output: %q", createOutput)
	}
	token := strings.TrimSpace(createOutput[idx+len("Token:\n"):])
	if token == "" {
		t.Fatalf("empty token in output: %q", createOutput)
	}
	return token
}

func extractGrantID(t *testing.T, createOutput string) string {
	t.Helper()
	for _, line := range strings.Split(createOutput, "\n") {
		if strings.HasPrefix(line, "Grant ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				return fields[1]
			}
		}
	}
	t.Fatalf("no grant id in output: %q", createOutput)
	return ""
}

func TestCLIConfigInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout.String(), "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config on disk: %v", err)
	}
}
