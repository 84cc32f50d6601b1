package server

import (
	"errors"
	"net/http"
	"strings"

	"bandstand/internal/api"
	"bandstand/internal/logging"
	"bandstand/internal/social"
	"bandstand/internal/verification"
)

func (s *apiServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch req.Action {
	case api.VerifyActionGenerate:
		challenge, err := s.daemon.engine.GenerateChallenge(r.Context(), req.Difficulty)
		if err != nil {
			s.logger.Error("challenge generation failed", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "challenge generation failed")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ChallengeResponse{
			Envelope:  api.OK(),
			Challenge: api.FromChallenge(challenge),
		})

	case api.VerifyActionEvaluate:
		if strings.TrimSpace(req.UserID) == "" {
			s.writeError(w, http.StatusBadRequest, "userId required")
			return
		}
		evaluation, err := s.daemon.engine.EvaluateResponses(r.Context(), req.UserID, req.ChallengeID, req.Responses)
		if errors.Is(err, verification.ErrChallengeNotFound) {
			s.writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		if err != nil {
			s.logger.Error("evaluation failed", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "evaluation failed")
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromEvaluation(evaluation))

	default:
		s.writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *apiServer) handleSocial(w http.ResponseWriter, r *http.Request) {
	var req api.SocialRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch req.Action {
	case api.SocialActionGenerate:
		drafts, err := s.daemon.board.GeneratePosts(r.Context(), social.Theme{
			Topic:        req.Theme.Topic,
			Tone:         req.Theme.Tone,
			Platforms:    req.Theme.Platforms,
			IncludeMedia: req.Theme.IncludeMedia,
		}, req.Count)
		if err != nil {
			s.logger.Error("draft generation failed", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "draft generation failed")
			return
		}
		s.writeJSON(w, http.StatusOK, api.DraftsResponse{
			Envelope: api.OK(),
			Drafts:   api.FromDrafts(drafts),
		})

	case api.SocialActionGetDrafts:
		drafts := s.daemon.board.Drafts(req.Status, req.Limit)
		s.writeJSON(w, http.StatusOK, api.DraftsResponse{
			Envelope: api.OK(),
			Drafts:   api.FromDrafts(drafts),
		})

	case api.SocialActionVoteDraft:
		up := true
		if req.Increment != nil {
			up = *req.Increment
		}
		draft, err := s.daemon.board.VoteDraft(r.Context(), req.PostID, up)
		if errors.Is(err, social.ErrDraftNotFound) {
			s.writeError(w, http.StatusNotFound, "draft not found")
			return
		}
		if err != nil {
			s.logger.Error("vote failed", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "vote failed")
			return
		}
		converted := api.FromDraft(*draft)
		s.writeJSON(w, http.StatusOK, api.DraftResponse{Envelope: api.OK(), Draft: &converted})

	case api.SocialActionUpdateStatus:
		draft, err := s.daemon.board.UpdateStatus(r.Context(), req.PostID, req.Status)
		if errors.Is(err, social.ErrDraftNotFound) {
			s.writeError(w, http.StatusNotFound, "draft not found")
			return
		}
		if errors.Is(err, social.ErrInvalidTransition) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		converted := api.FromDraft(*draft)
		s.writeJSON(w, http.StatusOK, api.DraftResponse{Envelope: api.OK(), Draft: &converted})

	default:
		s.writeError(w, http.StatusBadRequest, "unknown action")
	}
}
