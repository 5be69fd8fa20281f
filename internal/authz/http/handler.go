// Package authzhttp exposes the access decision engine over four
// resource-scoped policy endpoints. The handler performs no
// authorization itself: it validates the envelope, resolves the policy
// table entry for the caller's role, and forwards to the matching
// engine action.
package authzhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-sis/meridian/internal/audit"
	"github.com/meridian-sis/meridian/internal/authz"
	"github.com/meridian-sis/meridian/internal/observability"
	"github.com/meridian-sis/meridian/internal/policy"
)

// DecisionRecorder receives every computed decision for auditing.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, event audit.DecisionEvent)
}

// Handler dispatches policy requests to the decision engine.
type Handler struct {
	logger    *slog.Logger
	engine    *authz.Service
	recorder  DecisionRecorder
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs the policy HTTP handler. recorder and metrics
// may be nil.
func NewHandler(logger *slog.Logger, engine *authz.Service, recorder DecisionRecorder, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		engine:    engine,
		recorder:  recorder,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers the four policy endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/students", h.handleStudents)
	r.Post("/assignments", h.handleAssignments)
	r.Post("/attendance", h.handleAttendance)
	r.Post("/grades", h.handleGrades)
}

// policyRequest is the shared request envelope. Resource endpoints read
// only the fields that apply to them; unknown actions are rejected
// against each endpoint's enumeration.
type policyRequest struct {
	Action   string `json:"action" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
	UserRole string `json:"userRole" validate:"required"`

	AssignmentID  string   `json:"assignmentId"`
	AssignmentIDs []string `json:"assignmentIds"`
	AttendanceID  string   `json:"attendanceId"`
	AttendanceIDs []string `json:"attendanceIds"`
	GradeID       string   `json:"gradeId"`
	GradeIDs      []string `json:"gradeIds"`
	StudentID     string   `json:"studentId"`
	StudentIDs    []string `json:"studentIds"`
	ClassID       string   `json:"classId"`

	DateRange      json.RawMessage `json:"dateRange,omitempty"`
	GradingPeriod  string          `json:"gradingPeriod,omitempty"`
	AcademicPeriod string          `json:"academicPeriod,omitempty"`
}

func (p policyRequest) actor() authz.Actor {
	return authz.Actor{UserID: p.UserID, Role: policy.Role(p.UserRole)}
}

var validStudentActions = []string{"canView", "canEdit", "canDelete", "canCreate", "filterStudents"}

func (h *Handler) handleStudents(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, policy.ResourceStudent, validStudentActions, func(ctx context.Context, pol policy.Policy, req policyRequest) (authz.Decision, string, error) {
		actor := req.actor()
		switch req.Action {
		case "canView":
			d, err := h.engine.CanViewStudent(ctx, pol, actor, req.StudentID, req.StudentIDs)
			return d, req.StudentID, err
		case "canEdit":
			d, err := h.engine.CanEditStudent(ctx, pol, actor, req.StudentID)
			return d, req.StudentID, err
		case "canDelete":
			d, err := h.engine.CanDeleteStudent(ctx, pol, actor, req.StudentID)
			return d, req.StudentID, err
		case "canCreate":
			d, err := h.engine.CanCreateStudent(ctx, pol, actor)
			return d, "", err
		case "filterStudents":
			d, err := h.engine.FilterStudents(ctx, pol, actor, req.StudentIDs)
			return d, "", err
		default:
			return authz.Decision{}, "", errUnknownAction
		}
	})
}

var validAssignmentActions = []string{
	"canViewAssignment", "canEditAssignment", "canGradeAssignment",
	"canCreateAssignment", "canDeleteAssignment", "filterAssignments",
	"getAssignmentsByStudent",
}

func (h *Handler) handleAssignments(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, policy.ResourceAssignment, validAssignmentActions, func(ctx context.Context, pol policy.Policy, req policyRequest) (authz.Decision, string, error) {
		actor := req.actor()
		switch req.Action {
		case "canViewAssignment":
			d, err := h.engine.CanViewAssignment(ctx, pol, actor, req.AssignmentID)
			return d, req.AssignmentID, err
		case "canEditAssignment":
			d, err := h.engine.CanEditAssignment(ctx, pol, actor, req.AssignmentID)
			return d, req.AssignmentID, err
		case "canGradeAssignment":
			d, err := h.engine.CanGradeAssignment(ctx, pol, actor, req.AssignmentID, req.StudentID)
			return d, req.AssignmentID, err
		case "canCreateAssignment":
			d, err := h.engine.CanCreateAssignment(ctx, pol, actor, req.ClassID)
			return d, req.ClassID, err
		case "canDeleteAssignment":
			d, err := h.engine.CanDeleteAssignment(ctx, pol, actor, req.AssignmentID)
			return d, req.AssignmentID, err
		case "filterAssignments":
			d, err := h.engine.FilterAssignments(ctx, pol, actor, req.AssignmentIDs)
			return d, "", err
		case "getAssignmentsByStudent":
			d, err := h.engine.AssignmentsByStudent(ctx, pol, actor, req.StudentID)
			return d, req.StudentID, err
		default:
			return authz.Decision{}, "", errUnknownAction
		}
	})
}

var validAttendanceActions = []string{
	"canViewAttendance", "canMarkAttendance", "canEditAttendance",
	"canDeleteAttendance", "filterAttendance", "getStudentAttendance",
	"getClassAttendance", "canBulkMarkAttendance", "canExportAttendance",
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, policy.ResourceAttendance, validAttendanceActions, func(ctx context.Context, pol policy.Policy, req policyRequest) (authz.Decision, string, error) {
		actor := req.actor()
		switch req.Action {
		case "canViewAttendance":
			d, err := h.engine.CanViewAttendance(ctx, pol, actor, req.AttendanceID, req.StudentID, req.ClassID)
			return d, req.AttendanceID, err
		case "canMarkAttendance":
			d, err := h.engine.CanMarkAttendance(ctx, pol, actor, req.StudentID, req.ClassID)
			return d, req.ClassID, err
		case "canEditAttendance":
			d, err := h.engine.CanEditAttendance(ctx, pol, actor, req.AttendanceID, req.StudentID, req.ClassID)
			return d, req.AttendanceID, err
		case "canDeleteAttendance":
			d, err := h.engine.CanDeleteAttendance(ctx, pol, actor, req.AttendanceID)
			return d, req.AttendanceID, err
		case "filterAttendance":
			d, err := h.engine.FilterAttendance(ctx, pol, actor, req.AttendanceIDs)
			return d, "", err
		case "getStudentAttendance":
			d, err := h.engine.StudentAttendance(ctx, pol, actor, req.StudentID)
			return d, req.StudentID, err
		case "getClassAttendance":
			d, err := h.engine.ClassAttendance(ctx, pol, actor, req.ClassID)
			return d, req.ClassID, err
		case "canBulkMarkAttendance":
			d, err := h.engine.CanBulkMarkAttendance(ctx, pol, actor, req.ClassID)
			return d, req.ClassID, err
		case "canExportAttendance":
			d, err := h.engine.CanExportAttendance(ctx, pol, actor, req.ClassID, req.StudentID)
			return d, req.ClassID, err
		default:
			return authz.Decision{}, "", errUnknownAction
		}
	})
}

var validGradeActions = []string{
	"canViewGrade", "canEditGrade", "canCreateGrade", "canDeleteGrade",
	"filterGrades", "getStudentGrades", "getClassGrades", "canExportGrades",
}

func (h *Handler) handleGrades(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, policy.ResourceGrade, validGradeActions, func(ctx context.Context, pol policy.Policy, req policyRequest) (authz.Decision, string, error) {
		actor := req.actor()
		switch req.Action {
		case "canViewGrade":
			d, err := h.engine.CanViewGrade(ctx, pol, actor, req.GradeID, req.StudentID)
			return d, req.GradeID, err
		case "canEditGrade":
			d, err := h.engine.CanEditGrade(ctx, pol, actor, req.GradeID, req.StudentID, req.AssignmentID)
			return d, req.GradeID, err
		case "canCreateGrade":
			d, err := h.engine.CanCreateGrade(ctx, pol, actor, req.StudentID, req.AssignmentID)
			return d, req.AssignmentID, err
		case "canDeleteGrade":
			d, err := h.engine.CanDeleteGrade(ctx, pol, actor, req.GradeID)
			return d, req.GradeID, err
		case "filterGrades":
			d, err := h.engine.FilterGrades(ctx, pol, actor, req.GradeIDs)
			return d, "", err
		case "getStudentGrades":
			d, err := h.engine.StudentGrades(ctx, pol, actor, req.StudentID)
			return d, req.StudentID, err
		case "getClassGrades":
			d, err := h.engine.ClassGrades(ctx, pol, actor, req.ClassID)
			return d, req.ClassID, err
		case "canExportGrades":
			d, err := h.engine.CanExportGrades(ctx, pol, actor, req.ClassID, req.StudentID)
			return d, req.ClassID, err
		default:
			return authz.Decision{}, "", errUnknownAction
		}
	})
}

var errUnknownAction = errors.New("unknown action")

type dispatchFunc func(ctx context.Context, pol policy.Policy, req policyRequest) (authz.Decision, string, error)

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, resource policy.Resource, validActions []string, dispatch dispatchFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("policy dispatch panic",
				slog.String("resource", string(resource)),
				slog.Any("panic", rec),
			)
			writeEnvelope(w, http.StatusInternalServerError, envelope{
				Success: false,
				Error:   fmt.Sprintf("Internal server error processing %s access policy", resource),
			})
		}
	}()

	var req policyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, envelope{
			Success: false,
			Error:   "Invalid JSON in request body",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, envelope{
			Success: false,
			Error:   "Missing required fields: action, userId, and userRole are required",
		})
		return
	}

	pol := policy.Resolve(resource, policy.Role(req.UserRole))

	decision, resourceID, err := dispatch(r.Context(), pol, req)
	if errors.Is(err, errUnknownAction) {
		writeEnvelope(w, http.StatusBadRequest, envelope{
			Success:      false,
			Error:        "Invalid action specified",
			ValidActions: validActions,
		})
		return
	}
	if err != nil {
		h.logger.Error("policy decision failed",
			slog.String("resource", string(resource)),
			slog.String("action", req.Action),
			slog.String("actor_id", req.UserID),
			slog.String("resource_id", resourceID),
			slog.Any("error", err),
		)
		h.record(r.Context(), resource, req, resourceID, authz.Decision{})
		h.metrics.ObserveDecision(string(resource), req.Action, false, false)
		writeEnvelope(w, http.StatusOK, envelope{
			Success: false,
			Error:   fmt.Sprintf("Error processing %s access policy", resource),
			Details: err.Error(),
		})
		return
	}

	h.record(r.Context(), resource, req, resourceID, decision)
	h.metrics.ObserveDecision(string(resource), req.Action, decision.Success, decision.Allowed)
	writeDecision(w, decision)
}

func (h *Handler) record(ctx context.Context, resource policy.Resource, req policyRequest, resourceID string, decision authz.Decision) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordDecision(ctx, audit.DecisionEvent{
		Resource:   string(resource),
		Action:     req.Action,
		ActorID:    req.UserID,
		ActorRole:  req.UserRole,
		ResourceID: resourceID,
		Success:    decision.Success,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
	})
}
