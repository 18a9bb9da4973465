package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/custom"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/entities"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/logging"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/messages"
	"github.com/bwmarrin/discordgo"
)

const (
	// TicketSelectMenuID is the custom ID of the panel select menu.
	TicketSelectMenuID = "ticket_select"

	// CloseTicketButtonID is the custom ID of the close ticket button.
	CloseTicketButtonID = "close_ticket"
)

// closeTicketMessage is the welcome message posted into every new
// ticket channel, carrying the persistent close button.
func closeTicketMessage(userMention string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf(messages.TicketWelcome, userMention),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    messages.CloseTicketLabel,
						Style:    discordgo.DangerButton,
						CustomID: CloseTicketButtonID,
					},
				},
			},
		},
	}
}

// ticketOverwrites builds the permission set of a ticket channel: the
// guild at large is denied, the requester and the routed role can see
// and write.
func ticketOverwrites(guildID, userID, roleID string) []*discordgo.PermissionOverwrite {
	const memberPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory

	return []*discordgo.PermissionOverwrite{
		// Deny @everyone from seeing the ticket.
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		// The creator of the ticket can see the ticket.
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPerms,
		},
		// The configured support role can see the ticket.
		{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberPerms,
		},
	}
}

// createTicket handles a selection on the panel menu: it resolves the
// guild's routing, provisions a private channel for the requester and
// acknowledges the selection with a link to it.
func createTicket(a IApp, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("interaction carries no user")
	}

	if !a.TicketLimiter().Allow(user.ID) {
		return respondEphemeral(a, i, messages.ErrTicketRateLimited)
	}

	cfg, err := a.ConfigDal().GetOrCreate(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	// Routing must point at a live category and role before any
	// channel is created.
	if !cfg.Routed() {
		return respondEphemeral(a, i, messages.ErrNotConfigured)
	}

	category, err := a.Session().Channel(cfg.CategoryID)
	if err != nil || category.Type != discordgo.ChannelTypeGuildCategory {
		a.Log().Warn("Configured ticket category is not usable",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String("category_id", cfg.CategoryID),
		)
		return respondEphemeral(a, i, messages.ErrNotConfigured)
	}

	if !roleExists(a, i.GuildID, cfg.RoleID) {
		a.Log().Warn("Configured ticket role does not exist",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String("role_id", cfg.RoleID),
		)
		return respondEphemeral(a, i, messages.ErrNotConfigured)
	}

	// Create the ticket channel. The name is derived from the
	// requester; Discord tolerates duplicates, so no uniqueness is
	// enforced here.
	channel, err := a.Session().GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 "ticket-" + strings.ToLower(user.Username),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Ticket criado por %s", user.Username),
		ParentID:             category.ID,
		PermissionOverwrites: ticketOverwrites(i.GuildID, user.ID, cfg.RoleID),
	})
	if err != nil {
		return fmt.Errorf("error creating ticket channel: %w", err)
	}

	// Post the welcome message with the persistent close button.
	if _, err := a.Session().ChannelMessageSendComplex(channel.ID, closeTicketMessage(user.Mention())); err != nil {
		return fmt.Errorf("error sending welcome message: %w", err)
	}

	TicketsCreated.Inc()
	a.Log().Info("Ticket created",
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, channel.ID),
		slog.String(logging.KeyUserID, user.ID),
	)

	return respondEphemeral(a, i, fmt.Sprintf(messages.TicketCreated, channel.Mention()))
}

func roleExists(a IApp, guildID, roleID string) bool {
	roles, err := a.Session().GuildRoles(guildID)
	if err != nil {
		return false
	}
	for _, r := range roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// closeTicket handles the close button: it captures the transcript,
// posts it back into the channel, persists the ticket record and only
// then deletes the channel. Closure is serialized per channel, so a
// racing second press fails harmlessly.
func closeTicket(a IApp, i *discordgo.InteractionCreate) error {
	channelID := i.ChannelID

	if !a.CloseLocks().TryLock(channelID) {
		return respondEphemeral(a, i, messages.ErrCloseInProgress)
	}
	defer a.CloseLocks().Unlock(channelID)

	// A close that lost the race sees the channel already gone.
	channel, err := a.Session().Channel(channelID)
	if err != nil {
		a.Log().Debug("Close requested for a channel that no longer exists",
			slog.String(logging.KeyChannelID, channelID))
		return respondEphemeral(a, i, messages.ErrCloseInProgress)
	}

	// Archive fully before anything destructive happens. A capture
	// failure leaves the ticket open.
	text, path, err := a.Transcripts().Collect(channelID)
	if err != nil {
		a.Log().Error("Transcript capture failed, ticket stays open",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
		return respondEphemeral(a, i, messages.ErrCaptureFailed)
	}

	// Post the transcript into the channel so it is visible in-platform.
	if _, err := a.Session().ChannelFileSend(channelID, filepath.Base(path), strings.NewReader(text)); err != nil {
		return fmt.Errorf("error posting transcript file: %w", err)
	}

	createdAt, err := discordgo.SnowflakeTimestamp(channel.ID)
	if err != nil {
		return fmt.Errorf("error deriving channel creation time: %w", err)
	}

	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("interaction carries no user")
	}

	ticket := &entities.Ticket{
		GuildID:    i.GuildID,
		ChannelID:  channelID,
		UserID:     user.ID,
		CreatedAt:  custom.Datetime(createdAt),
		ClosedAt:   custom.Now(),
		Transcript: text,
	}

	// The record must be durable before the channel goes away.
	id, err := a.TicketDal().Append(context.Background(), ticket)
	if err != nil {
		return fmt.Errorf("error persisting ticket record: %w", err)
	}

	if _, err := a.Session().ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting ticket channel: %w", err)
	}

	TicketsClosed.Inc()
	a.Log().Info("Ticket closed",
		slog.Int("ticket_id", id),
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, channelID),
		slog.String(logging.KeyUserID, user.ID),
	)
	return nil
}
