package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bandstand/internal/api"
	"bandstand/internal/archive"
	"bandstand/internal/logging"
)

func (s *apiServer) handleStorageInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, &req) {
		return
	}

	timeout := time.Duration(s.daemon.cfg.Storage.InitTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	response := api.InitializeResponse{
		Envelope:   api.OK(),
		AssetCount: len(s.daemon.archive.Assets()),
	}
	if err := s.daemon.archive.ConnectRemote(ctx); err != nil {
		// Local-only operation is a supported mode, not a failure.
		s.logger.Warn("remote initialization failed, staying local-only",
			logging.Error(err),
			logging.Bool(logging.FieldFallback, true),
		)
		response.Message = "remote storage unavailable, operating on local data"
	} else {
		response.Initialized = true
		response.SpaceDID = s.daemon.archive.SpaceDID()
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *apiServer) handleStorageUpload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Files) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	uploads := make([]archive.Upload, 0, len(req.Files))
	for _, file := range req.Files {
		uploads = append(uploads, archive.Upload{
			Name:     file.Name,
			MimeType: file.MimeType,
			Data:     file.Data,
		})
	}

	results, err := s.daemon.archive.UploadMany(r.Context(), uploads, api.ToMetadata(req.Metadata))
	if err != nil {
		s.logger.Error("upload batch failed", logging.Error(err))
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	converted := make([]api.UploadResult, 0, len(results))
	urls := make([]string, 0, len(results))
	for _, result := range results {
		converted = append(converted, api.UploadResult{
			Asset:   api.FromAsset(result.Asset),
			Outcome: string(result.Outcome),
		})
		urls = append(urls, result.Asset.URL)
	}
	s.writeJSON(w, http.StatusOK, api.UploadResponse{
		Envelope: api.OK(),
		Results:  converted,
		URLs:     urls,
	})
}

func (s *apiServer) handleStorageList(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, &req) {
		return
	}
	assets, err := s.daemon.archive.Refresh(r.Context())
	if err != nil {
		s.logger.Error("archive refresh failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "archive refresh failed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ListResponse{
		Envelope: api.OK(),
		Assets:   api.FromAssets(assets),
	})
}

func (s *apiServer) handleStorageVerify(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyAssetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CID) == "" {
		s.writeError(w, http.StatusBadRequest, "cid required")
		return
	}

	result, err := s.daemon.archive.Verify(r.Context(), req.CID)
	if err != nil {
		// Backend unavailability degrades to an unverified verdict rather
		// than an opaque failure.
		s.logger.Warn("asset verification degraded",
			logging.String("cid", req.CID),
			logging.Error(err),
			logging.Bool(logging.FieldFallback, true),
		)
		s.writeJSON(w, http.StatusOK, api.VerifyAssetResponse{
			Envelope: api.Fail("verification unavailable"),
			CID:      req.CID,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, api.VerifyAssetResponse{
		Envelope: api.OK(),
		CID:      result.CID,
		Verified: result.Verified,
		Source:   result.Source,
	})
}

func (s *apiServer) handleDelegationCreate(w http.ResponseWriter, r *http.Request) {
	var req api.DelegationCreateRequest
	if !s.decode(w, r, &req) {
		return
	}
	grant, err := s.daemon.delegation.CreateGrant(r.Context(), req.AudienceDID, req.Abilities,
		time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.GrantResponse{
		Envelope: api.OK(),
		Grant:    api.FromGrant(grant),
	})
}

func (s *apiServer) handleDelegationUse(w http.ResponseWriter, r *http.Request) {
	var req api.DelegationUseRequest
	if !s.decode(w, r, &req) {
		return
	}
	grant, err := s.daemon.delegation.UseGrant(r.Context(), req.Token)
	if err != nil {
		s.writeJSON(w, http.StatusOK, api.GrantResponse{Envelope: api.Fail(err.Error())})
		return
	}
	s.writeJSON(w, http.StatusOK, api.GrantResponse{
		Envelope: api.OK(),
		Grant:    api.FromGrant(grant),
	})
}

func (s *apiServer) handleDelegationRevoke(w http.ResponseWriter, r *http.Request) {
	var req api.DelegationRevokeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.daemon.delegation.RevokeGrant(r.Context(), req.GrantID); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.OK())
}

func (s *apiServer) handleDelegationAgentDID(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, &req) {
		return
	}
	did, err := s.daemon.delegation.AgentDID(r.Context())
	if err != nil {
		s.logger.Error("agent identity unavailable", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "agent identity unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, api.AgentDIDResponse{Envelope: api.OK(), DID: did})
}
