package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/strategic-matchmaker/internal/matching"
	"github.com/jonathan/strategic-matchmaker/internal/server/middleware"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

type listMatchesResponse struct {
	Matches []types.MatchResult `json:"matches"`
}

type actionRequest struct {
	Status string `json:"status"`
}

// requesterID returns the authenticated user. The auth middleware guarantees
// it is present; a missing value is reported as unauthorized.
func requesterID(r *http.Request) (uuid.UUID, error) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, &matching.Error{Kind: matching.KindUnauthorized, Message: "a valid requester identity is required", Err: err}
	}
	return id, nil
}

// handleComputeMatches recomputes and stores the caller's matches.
func (s *Server) handleComputeMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.matches.ComputeMatches(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListMatches returns the caller's stored matches.
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	matches, err := s.matches.ListMatches(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []types.MatchResult{}
	}
	s.jsonResponse(w, http.StatusOK, listMatchesResponse{Matches: matches})
}

// handleRecordAction stores the caller's response to one match.
func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	matchedID, err := uuid.Parse(r.PathValue("matched_user_id"))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "matched_user_id", Message: "must be a UUID"})
		return
	}

	var req actionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := types.ParseActionStatus(req.Status)
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "status", Message: "must be one of pending, accepted, declined"})
		return
	}

	action, err := s.matches.RecordAction(r.Context(), userID, matchedID, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, action)
}

// handleGetProfile returns the caller's own profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	profile, err := s.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if profile == nil {
		s.errorResponse(w, http.StatusNotFound, codeNotFound, "profile not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handlePutProfile creates or replaces the caller's own profile.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var profile types.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	// identity comes from the token and timestamps from the store
	profile.UserID = userID
	profile.CreatedAt = time.Time{}
	profile.UpdatedAt = time.Time{}

	if err := profile.Validate(); err != nil {
		s.writeError(w, r, validationError(err))
		return
	}

	stored, err := s.profiles.UpsertProfile(r.Context(), &profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("profile saved",
		zap.String("user_id", userID.String()),
		zap.Bool("onboarding_complete", stored.OnboardingComplete),
	)
	s.jsonResponse(w, http.StatusOK, stored)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validationError converts validator failures into an ErrValidation naming the first bad field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{
			Field:   strings.ToLower(fe.Field()),
			Message: "failed " + fe.Tag() + " check",
		}
	}
	return &ErrValidation{Field: "profile", Message: err.Error()}
}
