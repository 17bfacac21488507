package models

// User is a directory entry for someone the session user may not know yet.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ChatMessage carries the text attached to an invite or a chat command.
// Timestamp is unix milliseconds, matching the wire format.
type ChatMessage struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// RelationshipState is the lifecycle state of a relationship. The confirmed
// values are named from the recipient's point of view and arrive verbatim on
// the wire; StateInviteIntent is the one locally chosen value, set when a user
// is picked from directory search before any acknowledgement exists.
type RelationshipState string

const (
	StateInviteIntent RelationshipState = "INVITE"
	StateInviter      RelationshipState = "INVITER"
	StateAccepter     RelationshipState = "ACCEPTER"
	StateDecliner     RelationshipState = "DECLINER"
	StateBlocker      RelationshipState = "BLOCKER"
	StateUnblocker    RelationshipState = "UNBLOCKER"
	StateMessanger    RelationshipState = "MESSANGER"
)

// RelationshipPhase separates a locally chosen pending intent from a
// server-confirmed, counterpart-reported outcome. The two were previously
// conflated in the state string itself.
type RelationshipPhase string

const (
	PhasePendingIntent RelationshipPhase = "pending_intent"
	PhaseConfirmed     RelationshipPhase = "confirmed"
)

// Relationship tracks the connection between the session user and one
// counterpart. Username is the unique key within a collection.
type Relationship struct {
	Username string            `json:"username"`
	Email    string            `json:"email"`
	State    RelationshipState `json:"state"`
	Phase    RelationshipPhase `json:"phase"`
	Message  *ChatMessage      `json:"message,omitempty"`
}

// WithState returns a copy carrying the new confirmed state. All other
// fields, including any attached message, are preserved.
func (r Relationship) WithState(state RelationshipState) Relationship {
	out := r
	out.State = state
	out.Phase = PhaseConfirmed
	out.Message = cloneMessage(r.Message)
	return out
}

// WithMessage returns a copy with the message replaced. A nil message keeps
// the existing one.
func (r Relationship) WithMessage(msg *ChatMessage) Relationship {
	out := r
	if msg != nil {
		out.Message = cloneMessage(msg)
	} else {
		out.Message = cloneMessage(r.Message)
	}
	return out
}

func cloneMessage(msg *ChatMessage) *ChatMessage {
	if msg == nil {
		return nil
	}
	copied := *msg
	return &copied
}

// CloneRelationships copies a collection so reducer states never alias.
func CloneRelationships(rels []Relationship) []Relationship {
	out := make([]Relationship, len(rels))
	for i, r := range rels {
		out[i] = r
		out[i].Message = cloneMessage(r.Message)
	}
	return out
}
