package entities

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxMenuOptions is the maximum number of options Discord accepts in a
// single select menu.
const MaxMenuOptions = 25

var (
	// ErrNotConfigured is returned when a guild has no usable ticket
	// category or role.
	ErrNotConfigured = errors.New("ticket category or role not configured")

	// ErrInvalidColor is returned when a panel color does not parse as
	// a 24-bit hex value.
	ErrInvalidColor = errors.New("invalid panel color")

	// ErrTooManyOptions is returned when a guild has more options than
	// a select menu can carry.
	ErrTooManyOptions = fmt.Errorf("panel has more than %d options", MaxMenuOptions)

	// ErrNoOptions is returned when a panel is rendered with an empty
	// option list.
	ErrNoOptions = errors.New("panel has no options")
)

// GuildConfig is the ticket configuration for a single guild.
type GuildConfig struct {
	// GuildID is the ID of the guild this configuration belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// CategoryID is the ID of the category that ticket channels are
	// created under. Empty until configured.
	CategoryID string `json:"category_id" bson:"category_id"`

	// RoleID is the ID of the role granted access to ticket channels.
	// Empty until configured.
	RoleID string `json:"role_id" bson:"role_id"`

	// Panel is the appearance of the ticket panel.
	Panel Panel `json:"panel" bson:"panel"`

	// Options are the selectable ticket categories, in menu order.
	Options []PanelOption `json:"options" bson:"options"`
}

// Panel is the appearance of the panel embed and its select menu.
type Panel struct {
	// Title is the embed title.
	Title string `json:"title" bson:"title"`

	// Description is the embed description.
	Description string `json:"description" bson:"description"`

	// Color is the embed color as a 24-bit RGB value.
	Color int `json:"color" bson:"color"`

	// Thumbnail is an optional embed thumbnail URL.
	Thumbnail string `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`

	// Footer is an optional embed footer text.
	Footer string `json:"footer,omitempty" bson:"footer,omitempty"`

	// MenuPlaceholder is the placeholder text of the select menu.
	MenuPlaceholder string `json:"menu_placeholder" bson:"menu_placeholder"`
}

// PanelOption is a single selectable entry in the ticket menu.
type PanelOption struct {
	// Label is the text shown in the menu.
	Label string `json:"label" bson:"label"`

	// Description is the help text shown under the label.
	Description string `json:"description" bson:"description"`

	// Value identifies the option within the guild.
	Value string `json:"value" bson:"value"`
}

// DefaultGuildConfig returns the configuration a guild starts with
// before any administrator has touched it.
func DefaultGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		GuildID: guildID,
		Panel: Panel{
			Title:           "Suporte",
			Description:     "Selecione uma opção abaixo para abrir um ticket.",
			Color:           0x00ff00,
			MenuPlaceholder: "Selecione uma opção...",
		},
		Options: []PanelOption{},
	}
}

// ParseColor parses a hex color string such as "#ff0000" or "ff0000"
// into a 24-bit RGB value.
func ParseColor(s string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "#")

	c, err := strconv.ParseInt(trimmed, 16, 64)
	if err != nil || c < 0 || c > 0xFFFFFF {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return int(c), nil
}

// ValidatePanel reports whether the configuration can be rendered as a
// panel with a select menu.
func (c *GuildConfig) ValidatePanel() error {
	if len(c.Options) == 0 {
		return ErrNoOptions
	}
	if len(c.Options) > MaxMenuOptions {
		return ErrTooManyOptions
	}
	return nil
}

// Routed reports whether both routing fields have been configured.
func (c *GuildConfig) Routed() bool {
	return c.CategoryID != "" && c.RoleID != ""
}
