package storacha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["email"] != "fan@example.com" {
			t.Fatalf("unexpected email %q", req["email"])
		}
		_ = json.NewEncoder(w).Encode(Session{SpaceDID: "did:key:zSpace", Email: req["email"], Space: req["space"]})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	session, err := client.CreateSession(context.Background(), "fan@example.com", "band-archive")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.SpaceDID != "did:key:zSpace" {
		t.Fatalf("unexpected space DID %q", session.SpaceDID)
	}
}

func TestCreateSessionMissingDID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.CreateSession(context.Background(), "fan@example.com", "space"); err == nil {
		t.Fatal("expected error for session response without space DID")
	}
}

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "demo.jpg" {
			t.Fatalf("unexpected filename %q", header.Filename)
		}
		if r.FormValue("mimeType") != "image/jpeg" {
			t.Fatalf("unexpected mime type %q", r.FormValue("mimeType"))
		}
		_ = json.NewEncoder(w).Encode(UploadResult{CID: "bafybeigdemo", Size: 4})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AuthToken: "token"})
	result, err := client.Upload(context.Background(), UploadRequest{
		Name:     "demo.jpg",
		MimeType: "image/jpeg",
		Data:     []byte("data"),
		Metadata: map[string]string{"title": "Demo"},
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if result.CID != "bafybeigdemo" {
		t.Fatalf("unexpected cid %q", result.CID)
	}
	if !strings.Contains(result.URL, "bafybeigdemo.ipfs.w3s.link") {
		t.Fatalf("expected gateway URL to be derived, got %q", result.URL)
	}
}

func TestListPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("cursor"); got != "next-page" {
			t.Fatalf("unexpected cursor %q", got)
		}
		if got := r.URL.Query().Get("size"); got != "25" {
			t.Fatalf("unexpected size %q", got)
		}
		_ = json.NewEncoder(w).Encode(Page{
			Uploads: []RemoteUpload{{CID: "bafy1", Name: "one.jpg"}},
			Cursor:  "",
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	page, err := client.List(context.Background(), "next-page", 25)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page.Uploads) != 1 || page.Uploads[0].CID != "bafy1" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/status/") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(PinStatus{CID: "bafy1", Pinned: true})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	status, err := client.Status(context.Background(), "bafy1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Pinned {
		t.Fatal("expected pinned status")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("client without base URL should not report configured")
	}
	if _, err := client.CreateSession(context.Background(), "fan@example.com", "space"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := client.Status(context.Background(), "bafy1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
