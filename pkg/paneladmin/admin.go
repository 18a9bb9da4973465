// Package paneladmin mutates guild ticket configurations. Every
// operation is a read-modify-write against the configuration store,
// serialized per guild so concurrent admins cannot clobber each
// other's edits. Different guilds never block each other.
package paneladmin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/dataaccess"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/entities"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/keyed"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/logging"
)

// Admin performs guild configuration mutations.
type Admin struct {
	// l is the logger.
	l *slog.Logger

	// dal is the configuration store.
	dal dataaccess.ConfigDal

	// locks serializes mutations per guild.
	locks *keyed.Mutex
}

// New creates a new panel administration layer over a configuration
// store.
func New(l *slog.Logger, dal dataaccess.ConfigDal) *Admin {
	return &Admin{
		l:     l,
		dal:   dal,
		locks: keyed.NewMutex(),
	}
}

// Get returns the guild's configuration, creating the defaults on
// first access.
func (a *Admin) Get(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	return a.dal.GetOrCreate(ctx, guildID)
}

// AddOption appends an option to the guild's menu. Adding a value that
// already exists replaces the existing option in place, keeping its
// menu position.
func (a *Admin) AddOption(ctx context.Context, guildID, label, description, value string) error {
	a.locks.Lock(guildID)
	defer a.locks.Unlock(guildID)

	cfg, err := a.dal.GetOrCreate(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	opt := entities.PanelOption{Label: label, Description: description, Value: value}

	replaced := false
	for i := range cfg.Options {
		if cfg.Options[i].Value == value {
			cfg.Options[i] = opt
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Options = append(cfg.Options, opt)
	}

	if err := a.dal.Save(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}

	a.l.Debug("Panel option added",
		slog.String(logging.KeyGuildID, guildID),
		slog.String("value", value),
	)
	return nil
}

// RemoveOption removes all options with the given value. It reports
// whether anything was removed; when nothing matched, the stored
// configuration is not rewritten.
func (a *Admin) RemoveOption(ctx context.Context, guildID, value string) (bool, error) {
	a.locks.Lock(guildID)
	defer a.locks.Unlock(guildID)

	cfg, err := a.dal.GetOrCreate(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("error getting guild config: %w", err)
	}

	kept := cfg.Options[:0]
	for _, opt := range cfg.Options {
		if opt.Value != value {
			kept = append(kept, opt)
		}
	}

	if len(kept) == len(cfg.Options) {
		return false, nil
	}
	cfg.Options = kept

	if err := a.dal.Save(ctx, cfg); err != nil {
		return false, fmt.Errorf("error saving guild config: %w", err)
	}

	a.l.Debug("Panel option removed",
		slog.String(logging.KeyGuildID, guildID),
		slog.String("value", value),
	)
	return true, nil
}

// Update is a partial panel appearance update. Empty fields are left
// unchanged.
type Update struct {
	Title           string
	Description     string
	Color           string
	Thumbnail       string
	Footer          string
	MenuPlaceholder string
}

// Customize applies a partial appearance update. All supplied fields
// are validated before any of them is applied, so an invalid color
// leaves the whole panel untouched.
func (a *Admin) Customize(ctx context.Context, guildID string, u Update) error {
	a.locks.Lock(guildID)
	defer a.locks.Unlock(guildID)

	// Validate before touching anything.
	color := 0
	if u.Color != "" {
		var err error
		color, err = entities.ParseColor(u.Color)
		if err != nil {
			return err
		}
	}

	cfg, err := a.dal.GetOrCreate(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	if u.Title != "" {
		cfg.Panel.Title = u.Title
	}
	if u.Description != "" {
		cfg.Panel.Description = u.Description
	}
	if u.Color != "" {
		cfg.Panel.Color = color
	}
	if u.Thumbnail != "" {
		cfg.Panel.Thumbnail = u.Thumbnail
	}
	if u.Footer != "" {
		cfg.Panel.Footer = u.Footer
	}
	if u.MenuPlaceholder != "" {
		cfg.Panel.MenuPlaceholder = u.MenuPlaceholder
	}

	if err := a.dal.Save(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}

	a.l.Debug("Panel customized", slog.String(logging.KeyGuildID, guildID))
	return nil
}

// SetRouting overwrites the ticket category and role together.
func (a *Admin) SetRouting(ctx context.Context, guildID, categoryID, roleID string) error {
	a.locks.Lock(guildID)
	defer a.locks.Unlock(guildID)

	cfg, err := a.dal.GetOrCreate(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	cfg.CategoryID = categoryID
	cfg.RoleID = roleID

	if err := a.dal.Save(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}

	a.l.Debug("Routing configured",
		slog.String(logging.KeyGuildID, guildID),
		slog.String("category_id", categoryID),
		slog.String("role_id", roleID),
	)
	return nil
}
