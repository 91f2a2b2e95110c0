// Package queue defines the audit events the API publishes to RabbitMQ and
// the consumer that records them.
package queue

import "time"

// AuditQueueName is the durable queue audit events are routed to.
const AuditQueueName = "fitness.audit"

// EventType names what happened.
type EventType string

const (
	EventUserRegistered  EventType = "user.registered"
	EventEmailVerified   EventType = "user.email_verified"
	EventUserLoggedIn    EventType = "user.logged_in"
	EventProgramCreated  EventType = "program.created"
	EventProgramUpdated  EventType = "program.updated"
	EventProgramDeleted  EventType = "program.deleted"
	EventWeeklyPlanSaved EventType = "program.weekly_plan_saved"
)

// AuditEvent is published after a state change commits. It carries enough
// context for the audit log without a database lookup.
type AuditEvent struct {
	Type       EventType `json:"type"`
	UserID     uint64    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	ProgramID  uint64    `json:"program_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
