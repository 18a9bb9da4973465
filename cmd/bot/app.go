package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/dataaccess"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/keyed"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/logging"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/paneladmin"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/request"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/transcript"
	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// DiscordSession is the slice of the Discord session the interaction
// controllers use. *discordgo.Session satisfies it; tests substitute a
// fake.
type DiscordSession interface {
	// Channel returns a channel by ID.
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)

	// GuildChannelCreateComplex creates a channel in a guild.
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)

	// GuildRoles returns all roles of a guild.
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)

	// ChannelMessageSendComplex sends a message to a channel.
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)

	// ChannelFileSend sends a file to a channel.
	ChannelFileSend(channelID, name string, r io.Reader, options ...discordgo.RequestOption) (*discordgo.Message, error)

	// ChannelDelete deletes a channel.
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)

	// InteractionRespond responds to an interaction.
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// TranscriptCollector captures a channel's history into text and a
// file artifact.
type TranscriptCollector interface {
	Collect(channelID string) (text, path string, err error)
}

// IApp is the interface for the application, as seen by the
// interaction controllers.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() DiscordSession

	// ConfigDal returns the guild configuration store.
	ConfigDal() dataaccess.ConfigDal

	// TicketDal returns the archived ticket store.
	TicketDal() dataaccess.TicketDal

	// PanelAdmin returns the panel administration layer.
	PanelAdmin() *paneladmin.Admin

	// Transcripts returns the transcript collector.
	Transcripts() TranscriptCollector

	// CloseLocks returns the per-channel close serialization locks.
	CloseLocks() *keyed.Mutex

	// TicketLimiter returns the per-user ticket creation limiter.
	TicketLimiter() *keyed.Limiter
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// registeredCmds are the slash commands registered per guild, kept
	// for deregistration on shutdown.
	registeredCmds map[string][]*discordgo.ApplicationCommand

	configDal   dataaccess.ConfigDal
	ticketDal   dataaccess.TicketDal
	admin       *paneladmin.Admin
	transcripts TranscriptCollector

	// closeLocks serializes closure per channel.
	closeLocks *keyed.Mutex

	// ticketLimiter bounds ticket creation per user.
	ticketLimiter *keyed.Limiter
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger:         l,
		r:              r,
		registeredCmds: make(map[string][]*discordgo.ApplicationCommand),
		closeLocks:     keyed.NewMutex(),
		// One ticket every 30 seconds per user, with a burst of 3.
		ticketLimiter: keyed.NewLimiter(rate.Limit(1.0/30.0), 3),
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Register slash commands. This needs the session open so the
	// joined guilds are known.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	a.s = dg
	a.transcripts = transcript.NewCollector(a.Logger, dg, TranscriptDir)
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash command controllers.
		map[string]commandProcessor{
			PanelCmdName:     panelCmdController,
			AddCmdName:       addCmdController,
			RemoveCmdName:    removeCmdController,
			CustomizeCmdName: customizeCmdController,
			ConfigureCmdName: configureCmdController,
		},
		// Component controllers, by custom ID.
		map[string]commandProcessor{
			TicketSelectMenuID:  createTicket,
			CloseTicketButtonID: closeTicket,
		}))
	return nil
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		for _, cmd := range slashCommands {
			created, err := a.s.ApplicationCommandCreate(ApplicationId, g.ID, cmd)
			if err != nil {
				return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, g.ID, err)
			}
			a.registeredCmds[g.ID] = append(a.registeredCmds[g.ID], created)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	for guildID, cmds := range a.registeredCmds {
		for _, cmd := range cmds {
			if err := a.s.ApplicationCommandDelete(ApplicationId, guildID, cmd.ID); err != nil {
				return fmt.Errorf("error deleting %s command for guild %s: %w", cmd.Name, guildID, err)
			}
		}
	}
	return nil
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() DiscordSession {
	return a.s
}

func (a *App) ConfigDal() dataaccess.ConfigDal {
	if a.configDal == nil {
		a.configDal = dataaccess.NewConfigDal(a.Logger)
	}
	return a.configDal
}

func (a *App) TicketDal() dataaccess.TicketDal {
	if a.ticketDal == nil {
		a.ticketDal = dataaccess.NewTicketDal(a.Logger)
	}
	return a.ticketDal
}

func (a *App) PanelAdmin() *paneladmin.Admin {
	if a.admin == nil {
		a.admin = paneladmin.New(a.Logger, a.ConfigDal())
	}
	return a.admin
}

func (a *App) Transcripts() TranscriptCollector {
	return a.transcripts
}

func (a *App) CloseLocks() *keyed.Mutex {
	return a.closeLocks
}

func (a *App) TicketLimiter() *keyed.Limiter {
	return a.ticketLimiter
}
