package social

import "time"

// Draft statuses. A draft moves draft -> approved -> posted; rejected is
// reachable from draft and approved and is terminal, as is posted.
const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
	StatusPosted   = "posted"
	StatusRejected = "rejected"
)

// StatusAll filters nothing when listing drafts.
const StatusAll = "all"

// Theme describes the desired shape of a generation batch.
type Theme struct {
	Topic        string   `json:"topic"`
	Tone         string   `json:"tone"`
	Platforms    []string `json:"platforms"`
	IncludeMedia bool     `json:"includeMedia"`
}

// PostDraft is one generated social post awaiting moderation.
type PostDraft struct {
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

// ValidStatus reports whether a status string names a known draft state.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusApproved, StatusPosted, StatusRejected:
		return true
	}
	return false
}

// transitionAllowed encodes the moderation workflow. Rejected and posted are
// terminal states.
func transitionAllowed(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusPosted || to == StatusRejected
	default:
		return false
	}
}
