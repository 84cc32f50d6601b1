package api

import "time"

// Envelope carries the fields present on every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK returns a bare success envelope.
func OK() Envelope { return Envelope{Success: true} }

// Fail returns a failure envelope with a caller-facing message.
func Fail(message string) Envelope { return Envelope{Message: message} }

// Verify actions accepted by POST /api/ai/verify.
const (
	VerifyActionGenerate = "generate"
	VerifyActionEvaluate = "evaluate"
)

// VerifyRequest is the payload of POST /api/ai/verify.
type VerifyRequest struct {
	Action      string            `json:"action"`
	UserID      string            `json:"userId"`
	Difficulty  int               `json:"difficulty"`
	ChallengeID string            `json:"challengeId"`
	Responses   map[string]string `json:"responses"`
}

// Question is a challenge question with its correct answer stripped.
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
}

// Challenge is the client-facing quiz payload.
type Challenge struct {
	ID         string     `json:"id"`
	Difficulty int        `json:"difficulty"`
	AccessTier int        `json:"accessTier"`
	Questions  []Question `json:"questions"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// ChallengeResponse answers a generate action.
type ChallengeResponse struct {
	Envelope
	Challenge *Challenge `json:"challenge,omitempty"`
}

// EvaluationResponse answers an evaluate action.
type EvaluationResponse struct {
	Envelope
	Score          int    `json:"score"`
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Passed         bool   `json:"passed"`
	AccessGranted  bool   `json:"accessGranted"`
	NewAccessLevel int    `json:"newAccessLevel"`
	Feedback       string `json:"feedback"`
}

// Social actions accepted by POST /api/ai/social.
const (
	SocialActionGenerate     = "generate"
	SocialActionGetDrafts    = "getDrafts"
	SocialActionVoteDraft    = "voteDraft"
	SocialActionUpdateStatus = "updateStatus"
)

// Theme describes the desired generation batch.
type Theme struct {
	Topic        string   `json:"topic"`
	Tone         string   `json:"tone"`
	Platforms    []string `json:"platforms"`
	IncludeMedia bool     `json:"includeMedia"`
}

// SocialRequest is the payload of POST /api/ai/social.
type SocialRequest struct {
	Action    string `json:"action"`
	Theme     Theme  `json:"theme"`
	Count     int    `json:"count"`
	PostID    string `json:"postId"`
	Increment *bool  `json:"increment"`
	Status    string `json:"status"`
	Limit     int    `json:"limit"`
}

// Draft is the client-facing post draft payload.
type Draft struct {
	ID             string    `json:"id"`
	BatchID        string    `json:"batchId"`
	Content        string    `json:"content"`
	Platforms      []string  `json:"platforms"`
	SuggestedMedia string    `json:"suggestedMedia,omitempty"`
	MediaCID       string    `json:"mediaCid,omitempty"`
	Status         string    `json:"status"`
	Votes          int       `json:"votes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DraftsResponse answers generate and getDrafts actions.
type DraftsResponse struct {
	Envelope
	Drafts []Draft `json:"drafts"`
}

// DraftResponse answers voteDraft and updateStatus actions.
type DraftResponse struct {
	Envelope
	Draft *Draft `json:"draft,omitempty"`
}

// Asset is the client-facing archived media record.
type Asset struct {
	CID        string            `json:"cid"`
	Name       string            `json:"name"`
	MimeType   string            `json:"mimeType,omitempty"`
	SizeBytes  int64             `json:"sizeBytes,omitempty"`
	URL        string            `json:"url,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Pinned     bool              `json:"pinned"`
	Mocked     bool              `json:"mocked"`
	UploadedAt time.Time         `json:"uploadedAt"`
}

// UploadFile carries one file in a storage upload request. Data is
// base64-encoded on the wire by encoding/json.
type UploadFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// UploadMetadata mirrors the descriptive fields accepted on upload.
type UploadMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Creator     string   `json:"creator,omitempty"`
	Date        string   `json:"date,omitempty"`
	Type        string   `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UploadRequest is the payload of POST /api/storage/upload.
type UploadRequest struct {
	Files    []UploadFile   `json:"files"`
	Metadata UploadMetadata `json:"metadata"`
}

// UploadResult tags one stored asset with how it was produced.
type UploadResult struct {
	Asset   Asset  `json:"asset"`
	Outcome string `json:"outcome"`
}

// UploadResponse answers POST /api/storage/upload.
type UploadResponse struct {
	Envelope
	Results []UploadResult `json:"results"`
	URLs    []string       `json:"urls"`
}

// InitializeResponse answers POST /api/storage/initialize.
type InitializeResponse struct {
	Envelope
	Initialized bool   `json:"initialized"`
	SpaceDID    string `json:"spaceDid,omitempty"`
	AssetCount  int    `json:"assetCount"`
}

// ListResponse answers POST /api/storage/list.
type ListResponse struct {
	Envelope
	Assets []Asset `json:"assets"`
}

// VerifyAssetRequest is the payload of POST /api/storage/verify.
type VerifyAssetRequest struct {
	CID string `json:"cid"`
}

// VerifyAssetResponse answers POST /api/storage/verify.
type VerifyAssetResponse struct {
	Envelope
	CID      string `json:"cid"`
	Verified bool   `json:"verified"`
	Source   string `json:"source,omitempty"`
}

// DelegationCreateRequest is the payload of POST /api/storage/delegation/create.
type DelegationCreateRequest struct {
	AudienceDID string   `json:"audienceDid"`
	Abilities   []string `json:"abilities"`
	TTLSeconds  int      `json:"ttlSeconds"`
}

// DelegationUseRequest is the payload of POST /api/storage/delegation/use.
type DelegationUseRequest struct {
	Token string `json:"token"`
}

// DelegationRevokeRequest is the payload of POST /api/storage/delegation/revoke.
type DelegationRevokeRequest struct {
	GrantID string `json:"grantId"`
}

// Grant is the client-facing delegation record.
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

// GrantResponse answers delegation create and use requests.
type GrantResponse struct {
	Envelope
	Grant *Grant `json:"grant,omitempty"`
}

// AgentDIDResponse answers POST /api/storage/delegation/get-agent-did.
type AgentDIDResponse struct {
	Envelope
	DID string `json:"did"`
}

// Stage actions accepted by POST /api/stage.
const (
	StageActionAdvance = "advance"
	StageActionSelect  = "select"
	StageActionBack    = "back"
	StageActionToggle  = "toggle"
)

// StageRequest is the payload of POST /api/stage.
type StageRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// StageResponse reports the page stage machine state.
type StageResponse struct {
	Envelope
	Stage         string `json:"stage"`
	Animating     bool   `json:"animating"`
	SelectedIndex int    `json:"selectedIndex"`
	Applied       bool   `json:"applied"`
	Reason        string `json:"reason,omitempty"`
}

// StatusResponse answers GET /api/status.
type StatusResponse struct {
	Envelope
	Running          bool   `json:"running"`
	PID              int    `json:"pid"`
	DataDir          string `json:"dataDir"`
	LockFilePath     string `json:"lockFilePath"`
	LLMConfigured    bool   `json:"llmConfigured"`
	BridgeConfigured bool   `json:"bridgeConfigured"`
	RemoteConnected  bool   `json:"remoteConnected"`
	SpaceDID         string `json:"spaceDid,omitempty"`
	AssetCount       int    `json:"assetCount"`
	DraftCount       int    `json:"draftCount"`
	Stage            string `json:"stage"`
}
