package models

// Screen identifies which screen the presentation layer should render for the
// active relationship. It is a pure projection of state and phase; the router
// never consumes the raw state string.
type Screen string

const (
	ScreenDirectory     Screen = "directory"
	ScreenInvitePrompt  Screen = "invite_prompt"
	ScreenInvitePending Screen = "invite_pending"
	ScreenChat          Screen = "chat"
	ScreenDeclined      Screen = "declined"
	ScreenBlocked       Screen = "blocked"
	ScreenUnknown       Screen = "unknown"
)

// ScreenFor maps a relationship to its screen. The switch is exhaustive over
// the closed state set; anything else lands on ScreenUnknown so the router
// can surface it instead of rendering garbage.
func ScreenFor(rel Relationship) Screen {
	if rel.Phase == PhasePendingIntent {
		return ScreenInvitePrompt
	}
	switch rel.State {
	case StateInviteIntent:
		return ScreenInvitePrompt
	case StateInviter:
		return ScreenInvitePending
	case StateAccepter, StateUnblocker, StateMessanger:
		return ScreenChat
	case StateDecliner:
		return ScreenDeclined
	case StateBlocker:
		return ScreenBlocked
	default:
		return ScreenUnknown
	}
}
