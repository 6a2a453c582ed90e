package server

import (
	"net/http"
	"strconv"

	"github.com/wellmind/assessment-api/internal/geo"
	"github.com/wellmind/assessment-api/internal/model"
	"github.com/wellmind/assessment-api/internal/store"
)

func (s *Server) handleListProfessionals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ProfessionalFilter{
		Search:         q.Get("search"),
		Specialization: q.Get("specialization"),
		City:           q.Get("city"),
		SortBy:         q.Get("sort_by"),
		SortDesc:       q.Get("sort_desc") == "true" || q.Get("sort_desc") == "1",
	}
	if v := q.Get("type"); v != "" {
		t := model.ProfessionalType(v)
		if !t.Valid() {
			writeBadRequest(w, "invalid type: must be psychologist or psychiatrist")
			return
		}
		f.Type = t
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid page")
			return
		}
		f.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid page_size")
			return
		}
		f.PageSize = n
	}

	page, err := s.store.ListProfessionals(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateProfessional(w http.ResponseWriter, r *http.Request) {
	var p model.Professional
	if err := decodeBody(r, &p); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if msg, ok := validateProfessional(&p); !ok {
		writeBadRequest(w, msg)
		return
	}

	if err := s.store.CreateProfessional(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfessional(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	p, err := s.store.GetProfessional(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfessional(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var p model.Professional
	if err := decodeBody(r, &p); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if msg, ok := validateProfessional(&p); !ok {
		writeBadRequest(w, msg)
		return
	}
	p.ID = id

	if err := s.store.UpdateProfessional(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfessional(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	if err := s.store.DeleteProfessional(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNearbyProfessionals is the standalone proximity query: lat, lng
// and radius_km are required, type is optional. Results are sorted
// ascending by distance and not capped; callers page as needed.
func (s *Server) handleNearbyProfessionals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeBadRequest(w, "lat is required and must be a number")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeBadRequest(w, "lng is required and must be a number")
		return
	}
	radius, err := strconv.ParseFloat(q.Get("radius_km"), 64)
	if err != nil || radius <= 0 {
		writeBadRequest(w, "radius_km is required and must be > 0")
		return
	}

	origin := geo.Point{Lat: lat, Lng: lng}
	if !origin.Valid() {
		writeBadRequest(w, "coordinates out of range")
		return
	}

	var t model.ProfessionalType
	if v := q.Get("type"); v != "" {
		t = model.ProfessionalType(v)
		if !t.Valid() {
			writeBadRequest(w, "invalid type: must be psychologist or psychiatrist")
			return
		}
	}

	candidates, err := s.store.ProfessionalsByType(r.Context(), t, true)
	if err != nil {
		writeError(w, err)
		return
	}

	nearby := geo.Nearby(candidates, geo.Filter{
		Type:     t,
		Center:   origin,
		RadiusKM: radius,
	})
	if nearby == nil {
		nearby = []model.NearbyProfessional{}
	}
	writeJSON(w, http.StatusOK, nearby)
}

func (s *Server) handleSpecializations(w http.ResponseWriter, r *http.Request) {
	var (
		specs []string
		err   error
	)
	if v := r.URL.Query().Get("type"); v != "" {
		t := model.ProfessionalType(v)
		if !t.Valid() {
			writeBadRequest(w, "invalid type: must be psychologist or psychiatrist")
			return
		}
		specs, err = s.store.SpecializationsByType(r.Context(), t)
	} else {
		specs, err = s.store.Specializations(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if specs == nil {
		specs = []string{}
	}
	writeJSON(w, http.StatusOK, specs)
}

// validateProfessional checks the write-path invariants before the store
// sees the record.
func validateProfessional(p *model.Professional) (string, bool) {
	if p.FirstName == "" || p.LastName == "" {
		return "first_name and last_name are required", false
	}
	if p.Email == "" {
		return "email is required", false
	}
	if !p.Type.Valid() {
		return "invalid type: must be psychologist or psychiatrist", false
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return "latitude and longitude must be provided together", false
	}
	if p.HasCoordinates() {
		if !(geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}).Valid() {
			return "coordinates out of range", false
		}
	}
	return "", true
}
