package models

import "time"

// CommunicationType classifies a log entry for UI color-coding.
type CommunicationType string

const (
	CommTypeInfo    CommunicationType = "info"
	CommTypeSuccess CommunicationType = "success"
	CommTypeWarning CommunicationType = "warning"
	CommTypeError   CommunicationType = "error"
)

// Communication actions recorded by the orchestrator.
const (
	ActionAgentSelection = "agent_selection"
	ActionAgentCall      = "agent_call"
	ActionAgentResult    = "agent_result"
	ActionAgentError     = "agent_error"
	ActionSessionCache   = "session_cache"
)

// Communication is one entry in the session-scoped communication log.
// The log is a bounded ring buffer; see orchestrator.CommunicationLog.
type Communication struct {
	Timestamp time.Time         `json:"timestamp"`
	SessionID string            `json:"session_id"`
	AgentName string            `json:"agent_name"`
	Action    string            `json:"action"`
	Input     string            `json:"input,omitempty"`
	Output    string            `json:"output,omitempty"`
	Type      CommunicationType `json:"type"`
	Message   string            `json:"message"`
}
