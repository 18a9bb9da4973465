package entities

import "github.com/Terugav10/Bot-Dc-Ticket/pkg/custom"

// Ticket is the archived record of a closed ticket. Records are
// written exactly once at close time and never mutated.
type Ticket struct {
	// ID is the number of the ticket, assigned by the repository in
	// increasing order.
	ID int `json:"id" bson:"id"`

	// GuildID is the ID of the guild the ticket was opened in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the channel the ticket lived in. The
	// channel no longer exists once the record does.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// UserID is the ID of the user the close interaction came from.
	UserID string `json:"user_id" bson:"user_id"`

	// CreatedAt is when the ticket channel was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// ClosedAt is when the ticket was closed.
	ClosedAt custom.Datetime `json:"closed_at" bson:"closed_at"`

	// Transcript is the full text capture of the conversation, one
	// line per message, oldest first.
	Transcript string `json:"transcript" bson:"transcript"`
}
