package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bandstand/internal/config"
)

const userAgent = "bandstand/0.1.0"

// Service defines the notification surface exposed to the archive, the
// verification engine, and the draft board.
type Service interface {
	NotifyUploadStored(ctx context.Context, name, cid string, mocked bool) error
	NotifyArchiveSynced(ctx context.Context, checked, unpinned int) error
	NotifyVerificationPassed(ctx context.Context, userID string, level, score int) error
	NotifyDraftStatusChanged(ctx context.Context, draftID, status string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		uploads:      cfg.Notifications.Uploads,
		verification: cfg.Notifications.Verification,
		drafts:       cfg.Notifications.Drafts,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	uploads      bool
	verification bool
	drafts       bool
	errors       bool
}

func (n *ntfyService) NotifyUploadStored(ctx context.Context, name, cid string, mocked bool) error {
	if !n.uploads {
		return nil
	}
	name = strings.TrimSpace(name)
	data := payload{
		title:   "Bandstand - Upload Stored",
		message: fmt.Sprintf("Archived: %s (%s)", name, cid),
		tags:    []string{"bandstand", "archive", "stored"},
	}
	if mocked {
		data.title = "Bandstand - Upload Mocked"
		data.message = fmt.Sprintf("Stored locally only (backend unavailable): %s (%s)", name, cid)
		data.tags = []string{"bandstand", "archive", "mocked"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyArchiveSynced(ctx context.Context, checked, unpinned int) error {
	if !n.uploads {
		return nil
	}
	var message string
	if unpinned == 0 {
		message = fmt.Sprintf("Archive sync: %d assets checked, all pinned", checked)
	} else {
		message = fmt.Sprintf("Archive sync: %d assets checked, %d no longer pinned", checked, unpinned)
	}
	data := payload{
		title:   "Bandstand - Archive Synced",
		message: message,
		tags:    []string{"bandstand", "archive", "sync"},
	}
	if unpinned > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVerificationPassed(ctx context.Context, userID string, level, score int) error {
	if !n.verification {
		return nil
	}
	data := payload{
		title:   "Bandstand - Fan Verified",
		message: fmt.Sprintf("%s passed verification with %d%% (tier %d)", strings.TrimSpace(userID), score, level),
		tags:    []string{"bandstand", "verification", "passed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDraftStatusChanged(ctx context.Context, draftID, status string) error {
	if !n.drafts {
		return nil
	}
	status = strings.TrimSpace(status)
	data := payload{
		title:   "Bandstand - Draft Update",
		message: fmt.Sprintf("Post draft %s is now %s", strings.TrimSpace(draftID), status),
		tags:    []string{"bandstand", "social", status},
	}
	if status == "posted" {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Bandstand - Error",
		message:  builder.String(),
		tags:     []string{"bandstand", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Bandstand - Test",
		message:  "Notification system test",
		tags:     []string{"bandstand", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop returns a notifier that silently drops every event.
func Noop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifyUploadStored(context.Context, string, string, bool) error { return nil }

func (noopService) NotifyArchiveSynced(context.Context, int, int) error { return nil }

func (noopService) NotifyVerificationPassed(context.Context, string, int, int) error { return nil }

func (noopService) NotifyDraftStatusChanged(context.Context, string, string) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
