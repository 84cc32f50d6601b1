package server

import (
	"net/http"

	"bandstand/internal/api"
	"bandstand/internal/stage"
)

func (s *apiServer) handleStage(w http.ResponseWriter, r *http.Request) {
	machine := s.daemon.machine
	if r.Method == http.MethodGet {
		snap := machine.Snapshot()
		s.writeJSON(w, http.StatusOK, api.StageResponse{
			Envelope:      api.OK(),
			Stage:         snap.Stage,
			Animating:     snap.Animating,
			SelectedIndex: snap.SelectedIndex,
			Applied:       true,
		})
		return
	}

	var req api.StageRequest
	if !s.decode(w, r, &req) {
		return
	}

	var result stage.Result
	switch req.Action {
	case api.StageActionAdvance:
		result = machine.Advance(r.Context())
	case api.StageActionSelect:
		result = machine.Select(r.Context(), req.Index)
	case api.StageActionBack:
		result = machine.Retreat(r.Context())
	case api.StageActionToggle:
		result = machine.Toggle(r.Context())
	default:
		s.writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	snap := machine.Snapshot()
	s.writeJSON(w, http.StatusOK, api.StageResponse{
		Envelope:      api.OK(),
		Stage:         snap.Stage,
		Animating:     snap.Animating,
		SelectedIndex: snap.SelectedIndex,
		Applied:       result.Applied,
		Reason:        result.Reason,
	})
}
