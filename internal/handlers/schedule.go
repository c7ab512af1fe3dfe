package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/db"
	"github.com/ukydev/garage-workboard/internal/lifecycle"
	"github.com/ukydev/garage-workboard/internal/models"
	"github.com/ukydev/garage-workboard/internal/sources"
)

// ScheduleHandler exposes the scheduling engine over JSON.
type ScheduleHandler struct {
	board      *board.Board
	aggregator *sources.Aggregator
	machine    *lifecycle.Machine
	store      db.BoardStore
	tools      db.ToolCollection
	events     db.WorkflowEventCollection
}

// NewScheduleHandler creates a new schedule handler. store, tools and
// events may be nil when the backing collections are not configured.
func NewScheduleHandler(b *board.Board, agg *sources.Aggregator, m *lifecycle.Machine, store db.BoardStore, tools db.ToolCollection, events db.WorkflowEventCollection) *ScheduleHandler {
	return &ScheduleHandler{board: b, aggregator: agg, machine: m, store: store, tools: tools, events: events}
}

// Candidates returns the ranked waiting queue.
func (h *ScheduleHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cands := h.aggregator.Aggregate(r.Context(), h.board.ScheduledCodes())
	writeJSON(w, http.StatusOK, cands)
}

// Board returns the current day's snapshot.
func (h *ScheduleHandler) Board(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.board.Snapshot())
}

// AssignRequest places a vehicle into a slot.
type AssignRequest struct {
	SlotID            string                  `json:"slot_id"`
	VehicleCode       string                  `json:"vehicle_code"`
	Model             string                  `json:"model"`
	CustomerName      string                  `json:"customer_name"`
	WorkType          models.WorkType         `json:"work_type"`
	Priority          models.Priority         `json:"priority"`
	EstimatedDuration string                  `json:"estimated_duration"`
	Notes             string                  `json:"notes"`
	Tools             []models.ToolAssignment `json:"tools"`
}

// Assign instantiates a job from a candidate or manual entry and places
// it into a slot.
func (h *ScheduleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.EstimatedDuration == "" {
		req.EstimatedDuration = "1h"
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	job, err := h.board.Assign(models.Job{
		VehicleCode:       req.VehicleCode,
		Model:             req.Model,
		CustomerName:      req.CustomerName,
		WorkType:          req.WorkType,
		Priority:          req.Priority,
		EstimatedDuration: req.EstimatedDuration,
		Notes:             req.Notes,
		Tools:             req.Tools,
	}, req.SlotID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.persist()
	writeJSON(w, http.StatusCreated, job)
}

// MoveRequest relocates a job between slots.
type MoveRequest struct {
	JobID    string `json:"job_id"`
	FromSlot string `json:"from_slot"`
	ToSlot   string `json:"to_slot"`
}

// Move relocates a job between slots.
func (h *ScheduleHandler) Move(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.board.Move(req.JobID, req.FromSlot, req.ToSlot); err != nil {
		writeError(w, err)
		return
	}
	h.persist()
	job, _ := h.board.Job(req.JobID)
	writeJSON(w, http.StatusOK, job)
}

// ReleaseRequest returns a job to the waiting pool.
type ReleaseRequest struct {
	JobID string `json:"job_id"`
}

// Release removes a job from the board and returns the waiting
// candidate it converts back into.
func (h *ScheduleHandler) Release(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ReleaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cand, err := h.board.Release(req.JobID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.persist()
	writeJSON(w, http.StatusOK, cand)
}

// TransitionRequest advances a job through the lifecycle state machine.
type TransitionRequest struct {
	JobID           string              `json:"job_id"`
	Action          string              `json:"action"` // "start", "complete", "pause", "resume", "await_parts", "parts_arrived"
	Mechanic        string              `json:"mechanic"`
	Reason          string              `json:"reason"`
	By              string              `json:"by"`
	Notes           string              `json:"notes"`
	EstimatedResume *time.Time          `json:"estimated_resume,omitempty"`
	Parts           *models.PartsNeeded `json:"parts,omitempty"`
}

// Transition applies a lifecycle action to a job.
func (h *ScheduleHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req TransitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	var job models.Job
	var err error
	switch req.Action {
	case "start":
		job, err = h.machine.Start(ctx, req.JobID, req.Mechanic)
	case "complete":
		job, err = h.machine.Complete(ctx, req.JobID, req.Notes)
	case "pause":
		job, err = h.machine.Pause(ctx, req.JobID, req.Reason, req.By, req.EstimatedResume)
	case "resume":
		job, err = h.machine.Resume(ctx, req.JobID)
	case "await_parts":
		var parts models.PartsNeeded
		if req.Parts != nil {
			parts = *req.Parts
		}
		job, err = h.machine.AwaitParts(ctx, req.JobID, parts)
	case "parts_arrived":
		job, err = h.machine.PartsArrived(ctx, req.JobID)
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.persist()
	writeJSON(w, http.StatusOK, job)
}

// Conflicts returns the contested tools per slot.
func (h *ScheduleHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.board.RecomputeConflicts()
	out := make(map[string]map[string][]string)
	for _, slotID := range h.board.SlotIDs() {
		if conflicts := h.board.SlotConflicts(slotID); len(conflicts) > 0 {
			out[slotID] = conflicts
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Tools lists the active tool catalogue.
func (h *ScheduleHandler) Tools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tools := []models.Tool{}
	if h.tools != nil {
		cursor, err := h.tools.FindTools(r.Context(), bson.M{"active": true})
		if err != nil {
			writeError(w, err)
			return
		}
		defer cursor.Close(r.Context())
		if err := cursor.All(r.Context(), &tools); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, tools)
}

// History returns the transition audit trail for one vehicle, newest
// first.
func (h *ScheduleHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	vehicle := r.URL.Query().Get("vehicle")
	if vehicle == "" {
		http.Error(w, "vehicle query parameter is required", http.StatusBadRequest)
		return
	}
	events := []models.WorkflowEvent{}
	if h.events != nil {
		found, err := h.events.FindEvents(r.Context(), vehicle)
		if err != nil {
			writeError(w, err)
			return
		}
		if found != nil {
			events = found
		}
	}
	writeJSON(w, http.StatusOK, events)
}

// Register mounts the handler routes on a mux.
func (h *ScheduleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/candidates", h.Candidates)
	mux.HandleFunc("/api/board", h.Board)
	mux.HandleFunc("/api/board/assign", h.Assign)
	mux.HandleFunc("/api/board/move", h.Move)
	mux.HandleFunc("/api/board/release", h.Release)
	mux.HandleFunc("/api/jobs/transition", h.Transition)
	mux.HandleFunc("/api/board/conflicts", h.Conflicts)
	mux.HandleFunc("/api/tools", h.Tools)
	mux.HandleFunc("/api/jobs/history", h.History)
}

// persist writes the board snapshot behind the mutation that just
// committed; a store failure degrades durability, not the mutation.
func (h *ScheduleHandler) persist() {
	if h.store == nil {
		return
	}
	snap := h.board.Snapshot()
	go func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		if err := h.store.SaveBoard(ctx, snap); err != nil {
			log.WithError(err).WithField("date", snap.Date).Warn("Failed to persist board snapshot")
		}
	}()
}

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
