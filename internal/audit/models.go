// Package audit records who did what to the exam register. Registration,
// score updates and threshold changes are board decisions with regulatory
// weight, so their audit writes are fail-closed: the business operation
// does not commit unless its audit event is durably queued.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names one audited operation.
type Action string

const (
	ActionRegistrantRegistered Action = "registrant_registered"
	ActionRegistrantUpdated    Action = "registrant_updated"
	ActionRegistrantDeleted    Action = "registrant_deleted"
	ActionExamScoresUpdated    Action = "exam_scores_updated"
	ActionPassScoreCreated     Action = "pass_score_created"
	ActionPassScoreUpdated     Action = "pass_score_updated"
)

// failClosed lists the actions whose emission must block the business
// operation on failure. Everything else is best-effort.
var failClosed = map[Action]bool{
	ActionRegistrantRegistered: true,
	ActionRegistrantDeleted:    true,
	ActionExamScoresUpdated:    true,
	ActionPassScoreCreated:     true,
	ActionPassScoreUpdated:     true,
}

// FailClosed reports whether this action requires guaranteed persistence.
func (a Action) FailClosed() bool {
	return failClosed[a]
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Action       Action    `json:"action"`
	ActorID      uuid.UUID `json:"actorId,omitempty"`
	RegistrantID uuid.UUID `json:"registrantId,omitempty"`
	ExamID       uuid.UUID `json:"examId,omitempty"`
	ExamNumber   string    `json:"examNumber,omitempty"`
	ExamType     string    `json:"examType,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
}
