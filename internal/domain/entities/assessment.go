package entities

// Urgency is the triage urgency band suggested by the assistant
type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyModerate  Urgency = "moderate"
	UrgencyLow       Urgency = "low"
)

// InjuryAssessment is the structured triage output parsed from a completed
// assistant turn. All four fields are present or the assessment does not
// exist; there is no partial form.
type InjuryAssessment struct {
	Severity          int     `json:"severity"`
	Urgency           Urgency `json:"urgency"`
	RecommendedAction string  `json:"recommended_action"`
	EstimatedWaitTime int     `json:"estimated_wait_time"`
}

// IsKnownUrgency reports whether the urgency is one of the documented bands.
// Unrecognized values are carried through unchanged; callers render them with
// a neutral style.
func (a *InjuryAssessment) IsKnownUrgency() bool {
	switch a.Urgency {
	case UrgencyEmergency, UrgencyUrgent, UrgencyModerate, UrgencyLow:
		return true
	}
	return false
}

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single turn in a triage conversation
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
