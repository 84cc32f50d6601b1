package archive

import (
	"strings"
	"time"
)

// MockCIDPrefix marks assets that were fabricated locally because the storage
// bridge was unavailable. Mock assets verify locally and are skipped by the
// pin-status syncer.
const MockCIDPrefix = "mock-cid-"

// Metadata describes an uploaded file for display and search.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Creator     string   `json:"creator,omitempty"`
	Date        string   `json:"date,omitempty"`
	Type        string   `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Asset is one archived media record: a content identifier plus the metadata
// needed to render it in the gallery.
type Asset struct {
	CID        string    `json:"cid"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mimeType,omitempty"`
	SizeBytes  int64     `json:"sizeBytes,omitempty"`
	URL        string    `json:"url,omitempty"`
	Metadata   Metadata  `json:"metadata"`
	Pinned     bool      `json:"pinned"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Mocked reports whether the asset was fabricated locally.
func (a Asset) Mocked() bool {
	return strings.HasPrefix(a.CID, MockCIDPrefix)
}

// SearchText flattens the asset's descriptive fields for keyword matching.
func (a Asset) SearchText() string {
	parts := []string{
		a.Name,
		a.Metadata.Title,
		a.Metadata.Description,
		a.Metadata.Type,
	}
	parts = append(parts, a.Metadata.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Outcome tags an operation result so callers can distinguish genuine backend
// success from a local degraded fallback.
type Outcome string

const (
	// OutcomeStored means the backend accepted the upload and returned a real
	// content identifier.
	OutcomeStored Outcome = "stored"
	// OutcomeMocked means the backend was unavailable and a local record with
	// a fabricated identifier was appended instead.
	OutcomeMocked Outcome = "mocked"
)

// UploadResult pairs the appended asset with how it was produced.
type UploadResult struct {
	Asset   Asset   `json:"asset"`
	Outcome Outcome `json:"outcome"`
}

// VerifyResult reports whether an asset is still retrievable and whether the
// answer came from the backend or a local shortcut.
type VerifyResult struct {
	CID      string `json:"cid"`
	Verified bool   `json:"verified"`
	Source   string `json:"source"`
}

// Upload carries one file handed to the archive.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

func seedAssets(now time.Time) []Asset {
	return []Asset{
		{
			CID:      MockCIDPrefix + "demo-roxy",
			Name:     "live-at-the-roxy.jpg",
			MimeType: "image/jpeg",
			Metadata: Metadata{
				Title:       "Live at the Roxy",
				Description: "Closing night of the winter tour",
				Type:        "photo",
				Tags:        []string{"live", "tour"},
			},
			UploadedAt: now,
		},
		{
			CID:      MockCIDPrefix + "demo-rehearsal",
			Name:     "rehearsal-take-3.mp3",
			MimeType: "audio/mpeg",
			Metadata: Metadata{
				Title:       "Rehearsal Take 3",
				Description: "Rough cut from the practice space",
				Type:        "audio",
				Tags:        []string{"demo", "rehearsal"},
			},
			UploadedAt: now,
		},
		{
			CID:      MockCIDPrefix + "demo-poster",
			Name:     "spring-tour-poster.png",
			MimeType: "image/png",
			Metadata: Metadata{
				Title:       "Spring Tour Poster",
				Description: "Announcement artwork for the spring dates",
				Type:        "artwork",
				Tags:        []string{"poster", "tour"},
			},
			UploadedAt: now,
		},
	}
}
