// Package transcript renders a channel's full message history into a
// linear text artifact, one line per message, oldest first.
package transcript

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/logging"
	"github.com/bwmarrin/discordgo"
)

// pageSize is the largest page the message history endpoint serves.
const pageSize = 100

// HistoryService is the slice of the Discord session the collector
// needs. *discordgo.Session satisfies it.
type HistoryService interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// Collector reads channel histories and materializes transcripts.
type Collector struct {
	// l is the logger.
	l *slog.Logger

	// session is the message history source.
	session HistoryService

	// dir is where transcript files are written.
	dir string
}

// NewCollector creates a collector writing artifacts into dir.
func NewCollector(l *slog.Logger, session HistoryService, dir string) *Collector {
	return &Collector{
		l:       l,
		session: session,
		dir:     dir,
	}
}

// Collect captures the entire history of a channel and writes it to a
// transcript file. It returns the rendered text and the file path. Any
// transport or write failure aborts the capture; a partial transcript
// is never returned.
func (c *Collector) Collect(channelID string) (text, path string, err error) {
	msgs, err := c.history(channelID)
	if err != nil {
		return "", "", fmt.Errorf("error reading channel history: %w", err)
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, renderLine(m))
	}
	text = strings.Join(lines, "\n")

	path = filepath.Join(c.dir, fmt.Sprintf("transcript_%s.txt", channelID))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", "", fmt.Errorf("error writing transcript file: %w", err)
	}

	c.l.Debug("Transcript captured",
		slog.String(logging.KeyChannelID, channelID),
		slog.Int("messages", len(msgs)),
	)
	return text, path, nil
}

// history fetches every message in the channel, oldest first. The
// endpoint serves newest first, so pages are walked backwards with
// before-ids and the result reversed. Walking by message id means a
// page boundary can never skip or duplicate a message.
func (c *Collector) history(channelID string) ([]*discordgo.Message, error) {
	var all []*discordgo.Message

	beforeID := ""
	for {
		batch, err := c.session.ChannelMessages(channelID, pageSize, beforeID, "", "")
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		all = append(all, batch...)
		beforeID = batch[len(batch)-1].ID

		if len(batch) < pageSize {
			break
		}
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// renderLine formats one message as "[timestamp] displayName: content".
func renderLine(m *discordgo.Message) string {
	ts := m.Timestamp.UTC().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("[%s] %s: %s", ts, displayName(m), m.Content)
}

// displayName picks the best available name for a message author: the
// guild nick, then the global display name, then the username.
func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author == nil {
		return "unknown"
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
