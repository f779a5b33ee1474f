package events

import "time"

// EventType identifies a relationship state transition.
type EventType string

const (
	EventLikeReceived EventType = "like.received"
	EventMatchCreated EventType = "match.created"
	EventMatchDeleted EventType = "match.deleted"
	EventBlockCreated EventType = "block.created"
	EventMessageSent  EventType = "message.sent"
)

// RelationshipEvent is the payload published to the events topic after a
// relationship transition has been committed. RecipientID is the user the
// notify server should push the event to.
type RelationshipEvent struct {
	Type        EventType `json:"type"`
	ActorID     uint      `json:"actorId"`
	RecipientID uint      `json:"recipientId"`
	MatchID     uint      `json:"matchId,omitempty"`
	LikeID      uint      `json:"likeId,omitempty"`
	MessageID   uint      `json:"messageId,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}
