package api

import (
	"bandstand/internal/archive"
	"bandstand/internal/delegation"
	"bandstand/internal/social"
	"bandstand/internal/verification"
)

// FromChallenge converts an internal challenge for clients, stripping the
// correct answers so the quiz cannot be solved by inspecting the payload.
func FromChallenge(challenge *verification.Challenge) *Challenge {
	if challenge == nil {
		return nil
	}
	questions := make([]Question, 0, len(challenge.Questions))
	for _, q := range challenge.Questions {
		questions = append(questions, Question{
			ID:       q.ID,
			Question: q.Question,
			Type:     q.Type,
			Options:  append([]string(nil), q.Options...),
		})
	}
	return &Challenge{
		ID:         challenge.ID,
		Difficulty: challenge.Difficulty,
		AccessTier: challenge.AccessTier,
		Questions:  questions,
		ExpiresAt:  challenge.ExpiresAt,
	}
}

// FromEvaluation converts a graded evaluation into its response payload.
func FromEvaluation(evaluation *verification.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		Envelope:       OK(),
		Score:          evaluation.Score,
		Correct:        evaluation.Correct,
		Total:          evaluation.Total,
		Passed:         evaluation.Success,
		AccessGranted:  evaluation.AccessGranted,
		NewAccessLevel: evaluation.NewAccessLevel,
		Feedback:       evaluation.Feedback,
	}
}

// FromDraft converts an internal post draft.
func FromDraft(draft social.PostDraft) Draft {
	return Draft{
		ID:             draft.ID,
		BatchID:        draft.BatchID,
		Content:        draft.Content,
		Platforms:      append([]string(nil), draft.Platforms...),
		SuggestedMedia: draft.SuggestedMedia,
		MediaCID:       draft.MediaCID,
		Status:         draft.Status,
		Votes:          draft.Votes,
		CreatedAt:      draft.CreatedAt,
	}
}

// FromDrafts converts a draft slice, never returning nil.
func FromDrafts(drafts []social.PostDraft) []Draft {
	out := make([]Draft, 0, len(drafts))
	for _, draft := range drafts {
		out = append(out, FromDraft(draft))
	}
	return out
}

// FromAsset converts an internal archive asset.
func FromAsset(asset archive.Asset) Asset {
	metadata := map[string]string{}
	if asset.Metadata.Title != "" {
		metadata["title"] = asset.Metadata.Title
	}
	if asset.Metadata.Description != "" {
		metadata["description"] = asset.Metadata.Description
	}
	if asset.Metadata.Creator != "" {
		metadata["creator"] = asset.Metadata.Creator
	}
	if asset.Metadata.Date != "" {
		metadata["date"] = asset.Metadata.Date
	}
	if asset.Metadata.Type != "" {
		metadata["type"] = asset.Metadata.Type
	}
	return Asset{
		CID:        asset.CID,
		Name:       asset.Name,
		MimeType:   asset.MimeType,
		SizeBytes:  asset.SizeBytes,
		URL:        asset.URL,
		Metadata:   metadata,
		Tags:       append([]string(nil), asset.Metadata.Tags...),
		Pinned:     asset.Pinned,
		Mocked:     asset.Mocked(),
		UploadedAt: asset.UploadedAt,
	}
}

// FromAssets converts an asset slice, never returning nil.
func FromAssets(assets []archive.Asset) []Asset {
	out := make([]Asset, 0, len(assets))
	for _, asset := range assets {
		out = append(out, FromAsset(asset))
	}
	return out
}

// ToMetadata converts upload metadata into the archive's shape.
func ToMetadata(meta UploadMetadata) archive.Metadata {
	return archive.Metadata{
		Title:       meta.Title,
		Description: meta.Description,
		Creator:     meta.Creator,
		Date:        meta.Date,
		Type:        meta.Type,
		Tags:        append([]string(nil), meta.Tags...),
	}
}

// FromGrant converts an internal delegation grant.
func FromGrant(grant *delegation.Grant) *Grant {
	if grant == nil {
		return nil
	}
	return &Grant{
		ID:        grant.ID,
		Issuer:    grant.Issuer,
		Audience:  grant.Audience,
		Abilities: append([]string(nil), grant.Abilities...),
		IssuedAt:  grant.IssuedAt,
		ExpiresAt: grant.ExpiresAt,
		Token:     grant.Token,
		Revoked:   grant.Revoked,
	}
}
