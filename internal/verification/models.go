package verification

import "time"

// Question types understood by the grader. All grading reduces to trimmed,
// case-insensitive string equality regardless of type.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeText           = "text"
	TypeBoolean        = "boolean"
)

// Question is one quiz entry with its exact-match reference answer.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Challenge is a generated quiz. ExpiresAt is recorded for every challenge
// but deliberately not checked during evaluation; see the engine docs.
type Challenge struct {
	ID         string     `json:"id"`
	Difficulty int        `json:"difficulty"`
	AccessTier int        `json:"accessTier"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// Evaluation is the graded outcome of a submitted challenge.
type Evaluation struct {
	ChallengeID    string `json:"challengeId"`
	Score          int    `json:"score"`
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Success        bool   `json:"success"`
	AccessGranted  bool   `json:"accessGranted"`
	NewAccessLevel int    `json:"newAccessLevel"`
	Feedback       string `json:"feedback"`
}

// Session tracks a user's verification standing. The level only ever rises;
// access lapses when the expiration passes.
type Session struct {
	UserID            string    `json:"userId"`
	VerificationLevel int       `json:"verificationLevel"`
	AccessExpiration  time.Time `json:"accessExpiration"`
	VerifiedAt        time.Time `json:"verifiedAt"`
}
