// Package protocol defines the closed wire vocabulary of the relationship
// sync channel: outbound command kinds, inbound message categories, and
// inbound peer-event kinds.
package protocol

import (
	"fmt"

	"hangout-chat/go-client/pkg/models"
)

// Command is an outbound verb the session user can send.
type Command string

const (
	CommandInvite  Command = "INVITE"
	CommandAccept  Command = "ACCEPT"
	CommandDecline Command = "DECLINE"
	CommandBlock   Command = "BLOCK"
	CommandUnblock Command = "UNBLOCK"
	CommandMessage Command = "MESSAGE"
)

// Category classifies an inbound envelope. ACKNOWLEDGEMENT confirms the
// sender's own prior command; PEER reports an action taken by the
// counterpart.
type Category string

const (
	CategoryAcknowledgement Category = "ACKNOWLEDGEMENT"
	CategoryPeer            Category = "PEER"
)

// PeerEvent names an action from the recipient's point of view; one exists
// per command.
type PeerEvent string

const (
	PeerInviter   PeerEvent = "INVITER"
	PeerAccepter  PeerEvent = "ACCEPTER"
	PeerDecliner  PeerEvent = "DECLINER"
	PeerBlocker   PeerEvent = "BLOCKER"
	PeerUnblocker PeerEvent = "UNBLOCKER"
	PeerMessanger PeerEvent = "MESSANGER"
)

// Error reports an inbound envelope that does not belong to the closed
// vocabulary. It is surfaced through the same path as network failures and
// must never escape a handler as a panic.
type Error struct {
	Field string
	Value string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol: unrecognized %s %q", e.Field, e.Value)
}

func ParseCommand(raw string) (Command, error) {
	switch Command(raw) {
	case CommandInvite, CommandAccept, CommandDecline, CommandBlock, CommandUnblock, CommandMessage:
		return Command(raw), nil
	}
	return "", &Error{Field: "command", Value: raw}
}

func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryAcknowledgement, CategoryPeer:
		return Category(raw), nil
	}
	return "", &Error{Field: "category", Value: raw}
}

func ParsePeerEvent(raw string) (PeerEvent, error) {
	switch PeerEvent(raw) {
	case PeerInviter, PeerAccepter, PeerDecliner, PeerBlocker, PeerUnblocker, PeerMessanger:
		return PeerEvent(raw), nil
	}
	return "", &Error{Field: "event kind", Value: raw}
}

// State returns the relationship state an event kind confirms. The wire kind
// and the state namespace are the same strings by contract.
func (e PeerEvent) State() models.RelationshipState {
	return models.RelationshipState(e)
}
