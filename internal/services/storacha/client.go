package storacha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Config captures connection settings for the storage bridge.
type Config struct {
	BaseURL        string
	AuthToken      string
	RequestTimeout time.Duration
}

// Client talks to the decentralized storage bridge: session establishment,
// content-addressed uploads, upload listings, and pin status checks.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Session describes an authenticated storage space.
type Session struct {
	SpaceDID string    `json:"spaceDid"`
	Email    string    `json:"email"`
	Space    string    `json:"space"`
	IssuedAt time.Time `json:"issuedAt"`
}

// UploadRequest carries one file plus its descriptive metadata.
type UploadRequest struct {
	Name     string
	MimeType string
	Data     []byte
	Metadata map[string]string
}

// UploadResult is the bridge's receipt for a stored file.
type UploadResult struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// RemoteUpload is one entry of a paginated upload listing.
type RemoteUpload struct {
	CID        string    `json:"cid"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Page wraps a listing response with its continuation cursor.
type Page struct {
	Uploads []RemoteUpload `json:"uploads"`
	Cursor  string         `json:"cursor"`
}

// PinStatus reports whether a CID is still pinned on the network.
type PinStatus struct {
	CID    string `json:"cid"`
	Pinned bool   `json:"pinned"`
}

// NewClient constructs a bridge client. An empty base URL yields a client
// whose calls all fail with ErrNotConfigured, letting the archive degrade to
// mock uploads without nil checks at every call site.
func NewClient(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		cfg: Config{
			BaseURL:        strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
			AuthToken:      strings.TrimSpace(cfg.AuthToken),
			RequestTimeout: timeout,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ErrNotConfigured indicates no bridge URL has been configured.
var ErrNotConfigured = errors.New("storage bridge: not configured")

// Configured reports whether a bridge URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.BaseURL != ""
}

// CreateSession authenticates by email and selects (or creates) the named space.
func (c *Client) CreateSession(ctx context.Context, email, space string) (*Session, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("storage bridge: email required")
	}

	body, err := json.Marshal(map[string]string{"email": email, "space": strings.TrimSpace(space)})
	if err != nil {
		return nil, fmt.Errorf("storage bridge: encode session request: %w", err)
	}
	var session Session
	if err := c.postJSON(ctx, "/session", bytes.NewReader(body), "application/json", &session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.SpaceDID) == "" {
		return nil, errors.New("storage bridge: session response missing space DID")
	}
	return &session, nil
}

// Upload sends one file to the bridge and returns its content identifier.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("storage bridge: upload name required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", req.Name)
	if err != nil {
		return nil, fmt.Errorf("storage bridge: create form file: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("storage bridge: write file part: %w", err)
	}
	if req.MimeType != "" {
		if err := writer.WriteField("mimeType", req.MimeType); err != nil {
			return nil, fmt.Errorf("storage bridge: write mime field: %w", err)
		}
	}
	if len(req.Metadata) > 0 {
		encoded, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("storage bridge: encode metadata: %w", err)
		}
		if err := writer.WriteField("metadata", string(encoded)); err != nil {
			return nil, fmt.Errorf("storage bridge: write metadata field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("storage bridge: finalize form: %w", err)
	}

	var result UploadResult
	if err := c.postJSON(ctx, "/upload", &buf, writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.CID) == "" {
		return nil, errors.New("storage bridge: upload response missing cid")
	}
	if result.URL == "" {
		result.URL = GatewayURL(result.CID, req.Name)
	}
	return &result, nil
}

// List returns one page of previously uploaded records.
func (c *Client) List(ctx context.Context, cursor string, pageSize int) (*Page, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	query := url.Values{}
	if cursor = strings.TrimSpace(cursor); cursor != "" {
		query.Set("cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("size", strconv.Itoa(pageSize))
	}
	endpoint := c.cfg.BaseURL + "/list"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var page Page
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Status asks the bridge whether a CID is still pinned.
func (c *Client) Status(ctx context.Context, cid string) (*PinStatus, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return nil, errors.New("storage bridge: cid required")
	}

	var status PinStatus
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/status/"+url.PathEscape(cid), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GatewayURL builds the public gateway address for a stored file.
func GatewayURL(cid, name string) string {
	base := fmt.Sprintf("https://%s.ipfs.w3s.link", cid)
	if strings.TrimSpace(name) == "" {
		return base
	}
	return base + "/" + url.PathEscape(name)
}

func (c *Client) postJSON(ctx context.Context, path string, body io.Reader, contentType string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("storage bridge: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, target)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("storage bridge: new request: %w", err)
	}
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage bridge: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("storage bridge: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("storage bridge: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("storage bridge: decode response: %w", err)
	}
	return nil
}
