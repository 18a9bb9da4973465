package paneladmin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/entities"
	"github.com/stretchr/testify/require"
)

// memoryConfigDal is an in-memory stand-in for the Mongo store. It
// copies on read and write so callers only observe saved state, like
// the real store.
type memoryConfigDal struct {
	mu    sync.Mutex
	docs  map[string]*entities.GuildConfig
	saves int
}

func newMemoryConfigDal() *memoryConfigDal {
	return &memoryConfigDal{docs: make(map[string]*entities.GuildConfig)}
}

func copyConfig(cfg *entities.GuildConfig) *entities.GuildConfig {
	c := *cfg
	c.Options = append(make([]entities.PanelOption, 0, len(cfg.Options)), cfg.Options...)
	return &c
}

func (d *memoryConfigDal) GetOrCreate(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg, ok := d.docs[guildID]
	if !ok {
		cfg = entities.DefaultGuildConfig(guildID)
		d.docs[guildID] = copyConfig(cfg)
		d.saves++
	}
	return copyConfig(cfg), nil
}

func (d *memoryConfigDal) Save(_ context.Context, cfg *entities.GuildConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.docs[cfg.GuildID] = copyConfig(cfg)
	d.saves++
	return nil
}

func newTestAdmin() (*Admin, *memoryConfigDal) {
	dal := newMemoryConfigDal()
	return New(slog.Default(), dal), dal
}

func TestGetCreatesAndPersistsDefaults(t *testing.T) {
	admin, dal := newTestAdmin()
	ctx := context.Background()

	cfg, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, entities.DefaultGuildConfig("g1"), cfg)
	require.Equal(t, 1, dal.saves, "defaults must be persisted on first access")

	// The exact same value is durably retrievable afterwards.
	again, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, cfg, again)
	require.Equal(t, 1, dal.saves)
}

func TestOptionRoundTrip(t *testing.T) {
	admin, _ := newTestAdmin()
	ctx := context.Background()

	require.NoError(t, admin.AddOption(ctx, "g1", "A", "d", "v"))

	cfg, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, []entities.PanelOption{{Label: "A", Description: "d", Value: "v"}}, cfg.Options)

	removed, err := admin.RemoveOption(ctx, "g1", "v")
	require.NoError(t, err)
	require.True(t, removed)

	cfg, err = admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Empty(t, cfg.Options)
}

func TestAddOptionDuplicateValueReplaces(t *testing.T) {
	admin, _ := newTestAdmin()
	ctx := context.Background()

	require.NoError(t, admin.AddOption(ctx, "g1", "First", "d1", "v"))
	require.NoError(t, admin.AddOption(ctx, "g1", "Other", "d2", "w"))
	require.NoError(t, admin.AddOption(ctx, "g1", "Second", "d3", "v"))

	cfg, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, []entities.PanelOption{
		{Label: "Second", Description: "d3", Value: "v"},
		{Label: "Other", Description: "d2", Value: "w"},
	}, cfg.Options)
}

func TestRemoveOptionNotFound(t *testing.T) {
	admin, dal := newTestAdmin()
	ctx := context.Background()

	require.NoError(t, admin.AddOption(ctx, "g1", "A", "d", "v"))
	savesBefore := dal.saves

	removed, err := admin.RemoveOption(ctx, "g1", "nonexistent")
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, savesBefore, dal.saves, "a miss must not rewrite storage")
}

func TestCustomizePartialUpdate(t *testing.T) {
	admin, _ := newTestAdmin()
	ctx := context.Background()

	require.NoError(t, admin.Customize(ctx, "g1", Update{
		Title: "Ajuda",
		Color: "#ff00ff",
	}))

	cfg, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "Ajuda", cfg.Panel.Title)
	require.Equal(t, 0xff00ff, cfg.Panel.Color)
	// Unsupplied fields keep their defaults.
	require.Equal(t, "Selecione uma opção abaixo para abrir um ticket.", cfg.Panel.Description)
	require.Equal(t, "Selecione uma opção...", cfg.Panel.MenuPlaceholder)
}

func TestCustomizeInvalidColorIsAtomic(t *testing.T) {
	admin, _ := newTestAdmin()
	ctx := context.Background()

	before, err := admin.Get(ctx, "g1")
	require.NoError(t, err)

	err = admin.Customize(ctx, "g1", Update{
		Title:  "Novo título",
		Footer: "Novo rodapé",
		Color:  "#zz0000",
	})
	require.ErrorIs(t, err, entities.ErrInvalidColor)

	// Every field, including the valid ones in the same call, must be
	// unchanged.
	after, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestSetRouting(t *testing.T) {
	admin, _ := newTestAdmin()
	ctx := context.Background()

	require.NoError(t, admin.SetRouting(ctx, "g1", "cat1", "role1"))

	cfg, err := admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "cat1", cfg.CategoryID)
	require.Equal(t, "role1", cfg.RoleID)
	require.True(t, cfg.Routed())

	// Unconditional overwrite of both fields together.
	require.NoError(t, admin.SetRouting(ctx, "g1", "cat2", "role2"))
	cfg, err = admin.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "cat2", cfg.CategoryID)
	require.Equal(t, "role2", cfg.RoleID)
}

func TestConcurrentMutationsCrossGuildIsolation(t *testing.T) {
	admin, _ := newTestAdmin()
	ctx := context.Background()

	const perGuild = 20
	guilds := []string{"gA", "gB"}

	var wg sync.WaitGroup
	for _, g := range guilds {
		for i := 0; i < perGuild; i++ {
			wg.Add(1)
			go func(g string, i int) {
				defer wg.Done()
				require.NoError(t, admin.AddOption(ctx, g,
					fmt.Sprintf("%s-label-%d", g, i), "d", fmt.Sprintf("%s-%d", g, i)))
			}(g, i)
		}
	}
	wg.Wait()

	for _, g := range guilds {
		cfg, err := admin.Get(ctx, g)
		require.NoError(t, err)
		require.Len(t, cfg.Options, perGuild, "no mutation may be lost")
		for _, opt := range cfg.Options {
			require.Contains(t, opt.Value, g+"-", "guilds must not interleave")
		}
	}
}
