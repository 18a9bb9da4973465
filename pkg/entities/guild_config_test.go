package entities

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultGuildConfig(t *testing.T) {
	cfg := DefaultGuildConfig("123")

	require.Equal(t, "123", cfg.GuildID)
	require.Empty(t, cfg.CategoryID)
	require.Empty(t, cfg.RoleID)
	require.Equal(t, "Suporte", cfg.Panel.Title)
	require.Equal(t, "Selecione uma opção abaixo para abrir um ticket.", cfg.Panel.Description)
	require.Equal(t, 0x00ff00, cfg.Panel.Color)
	require.Empty(t, cfg.Panel.Thumbnail)
	require.Empty(t, cfg.Panel.Footer)
	require.Equal(t, "Selecione uma opção...", cfg.Panel.MenuPlaceholder)
	require.Empty(t, cfg.Options)
	require.False(t, cfg.Routed())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr error
	}{
		{
			name: "WithHash",
			in:   "#ff0000",
			want: 0xff0000,
		},
		{
			name: "WithoutHash",
			in:   "00ff7f",
			want: 0x00ff7f,
		},
		{
			name: "UpperCase",
			in:   "#ABCDEF",
			want: 0xabcdef,
		},
		{
			name: "Whitespace",
			in:   "  #123456  ",
			want: 0x123456,
		},
		{
			name:    "NotHex",
			in:      "#zz0000",
			wantErr: ErrInvalidColor,
		},
		{
			name:    "Empty",
			in:      "",
			wantErr: ErrInvalidColor,
		},
		{
			name:    "OutOfRange",
			in:      "1000000",
			wantErr: ErrInvalidColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePanel(t *testing.T) {
	cfg := DefaultGuildConfig("1")
	require.ErrorIs(t, cfg.ValidatePanel(), ErrNoOptions)

	cfg.Options = append(cfg.Options, PanelOption{Label: "A", Value: "a"})
	require.NoError(t, cfg.ValidatePanel())

	for i := 0; i < MaxMenuOptions; i++ {
		cfg.Options = append(cfg.Options, PanelOption{
			Label: fmt.Sprintf("opt-%d", i),
			Value: fmt.Sprintf("v-%d", i),
		})
	}
	require.ErrorIs(t, cfg.ValidatePanel(), ErrTooManyOptions)
}
