package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/entities"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/messages"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/paneladmin"
	"github.com/bwmarrin/discordgo"
)

const (
	// PanelCmdName is the command that posts the ticket panel.
	PanelCmdName = "panel"

	// AddCmdName is the command that adds a menu option.
	AddCmdName = "add"

	// RemoveCmdName is the command that removes a menu option.
	RemoveCmdName = "remove"

	// CustomizeCmdName is the command that customizes the panel.
	CustomizeCmdName = "customize"

	// ConfigureCmdName is the command that sets the ticket category
	// and role.
	ConfigureCmdName = "configure"
)

// slashCommands are all commands registered for every guild.
var slashCommands = []*discordgo.ApplicationCommand{
	{
		Name:        PanelCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Envia o painel de tickets.",
	},
	{
		Name:        AddCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Adiciona uma opção ao menu de seleção.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "label",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Rótulo",
				Required:    true,
			},
			{
				Name:        "description",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Descrição",
				Required:    true,
			},
			{
				Name:        "value",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Valor",
				Required:    true,
			},
		},
	},
	{
		Name:        RemoveCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Remove uma opção do menu.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "value",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Valor da opção",
				Required:    true,
			},
		},
	},
	{
		Name:        CustomizeCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Personaliza o painel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "title",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Título",
			},
			{
				Name:        "description",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Descrição",
			},
			{
				Name:        "color",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Cor (#hex)",
			},
			{
				Name:        "thumbnail",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "URL thumbnail",
			},
			{
				Name:        "footer",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Rodapé",
			},
			{
				Name:        "menu_placeholder",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Nome do menu",
			},
		},
	},
	{
		Name:        ConfigureCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Define categoria e cargo.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "category",
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Categoria dos tickets",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
			},
			{
				Name:        "role",
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "Cargo responsável",
				Required:    true,
			},
		},
	},
}

// commandOptions indexes the options of a command interaction by name.
func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, o := range data.Options {
		opts[o.Name] = o
	}
	return opts
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok {
		return o.StringValue()
	}
	return ""
}

// panelCmdController renders the ticket panel into the channel the
// command was invoked in. The panel message is public; everything else
// the admin commands produce is ephemeral.
func panelCmdController(a IApp, i *discordgo.InteractionCreate) error {
	cfg, err := a.ConfigDal().GetOrCreate(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	if err := cfg.ValidatePanel(); err != nil {
		switch {
		case errors.Is(err, entities.ErrNoOptions):
			return respondEphemeral(a, i, messages.ErrNoOptions)
		case errors.Is(err, entities.ErrTooManyOptions):
			return respondEphemeral(a, i, messages.ErrTooManyOptions)
		default:
			return err
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       cfg.Panel.Title,
		Description: cfg.Panel.Description,
		Color:       cfg.Panel.Color,
	}
	if cfg.Panel.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cfg.Panel.Thumbnail}
	}
	if cfg.Panel.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: cfg.Panel.Footer}
	}

	menuOptions := make([]discordgo.SelectMenuOption, 0, len(cfg.Options))
	for _, opt := range cfg.Options {
		menuOptions = append(menuOptions, discordgo.SelectMenuOption{
			Label:       opt.Label,
			Description: opt.Description,
			Value:       opt.Value,
		})
	}

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:    discordgo.StringSelectMenu,
							CustomID:    TicketSelectMenuID,
							Placeholder: cfg.Panel.MenuPlaceholder,
							Options:     menuOptions,
						},
					},
				},
			},
		},
	})
}

func addCmdController(a IApp, i *discordgo.InteractionCreate) error {
	opts := commandOptions(i)
	label := stringOption(opts, "label")

	err := a.PanelAdmin().AddOption(context.Background(), i.GuildID,
		label, stringOption(opts, "description"), stringOption(opts, "value"))
	if err != nil {
		return fmt.Errorf("error adding option: %w", err)
	}

	return respondEphemeral(a, i, fmt.Sprintf(messages.OptionAdded, label))
}

func removeCmdController(a IApp, i *discordgo.InteractionCreate) error {
	opts := commandOptions(i)

	removed, err := a.PanelAdmin().RemoveOption(context.Background(), i.GuildID, stringOption(opts, "value"))
	if err != nil {
		return fmt.Errorf("error removing option: %w", err)
	}

	if !removed {
		return respondEphemeral(a, i, messages.OptionNotFound)
	}
	return respondEphemeral(a, i, messages.OptionRemoved)
}

func customizeCmdController(a IApp, i *discordgo.InteractionCreate) error {
	opts := commandOptions(i)

	err := a.PanelAdmin().Customize(context.Background(), i.GuildID, paneladmin.Update{
		Title:           stringOption(opts, "title"),
		Description:     stringOption(opts, "description"),
		Color:           stringOption(opts, "color"),
		Thumbnail:       stringOption(opts, "thumbnail"),
		Footer:          stringOption(opts, "footer"),
		MenuPlaceholder: stringOption(opts, "menu_placeholder"),
	})
	if errors.Is(err, entities.ErrInvalidColor) {
		return respondEphemeral(a, i, messages.ErrInvalidColor)
	} else if err != nil {
		return fmt.Errorf("error customizing panel: %w", err)
	}

	return respondEphemeral(a, i, messages.PanelCustomized)
}

func configureCmdController(a IApp, i *discordgo.InteractionCreate) error {
	opts := commandOptions(i)

	var categoryID, roleID string
	if o, ok := opts["category"]; ok {
		categoryID = o.ChannelValue(nil).ID
	}
	if o, ok := opts["role"]; ok {
		roleID = o.RoleValue(nil, "").ID
	}

	if err := a.PanelAdmin().SetRouting(context.Background(), i.GuildID, categoryID, roleID); err != nil {
		return fmt.Errorf("error saving routing: %w", err)
	}

	return respondEphemeral(a, i, messages.RoutingSaved)
}
