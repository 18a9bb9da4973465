package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/dataaccess"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/entities"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/keyed"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/messages"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/paneladmin"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// ticketChannelID is a valid snowflake so channel creation timestamps
// can be derived from it.
const ticketChannelID = "1100000000000000001"

// eventLog records the order of the archive and delete steps.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeSession is an in-memory DiscordSession.
type fakeSession struct {
	mu sync.Mutex

	channels map[string]*discordgo.Channel
	roles    []*discordgo.Role

	created   []discordgo.GuildChannelCreateData
	sent      map[string][]*discordgo.MessageSend
	files     []string
	deletions int
	responses []*discordgo.InteractionResponseData

	log *eventLog
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		channels: make(map[string]*discordgo.Channel),
		sent:     make(map[string][]*discordgo.MessageSend),
		log:      &eventLog{},
	}
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return c, nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, data)
	c := &discordgo.Channel{
		ID:       ticketChannelID,
		GuildID:  guildID,
		Name:     data.Name,
		Type:     data.Type,
		ParentID: data.ParentID,
	}
	f.channels[c.ID] = c
	return c, nil
}

func (f *fakeSession) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelFileSend(channelID, name string, _ io.Reader, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, name)
	return &discordgo.Message{ID: "m2", ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	delete(f.channels, channelID)
	f.deletions++
	f.log.add("delete")
	return c, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp.Data)
	return nil
}

func (f *fakeSession) responseContents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.responses))
	for _, r := range f.responses {
		out = append(out, r.Content)
	}
	return out
}

// memoryConfigDal is an in-memory configuration store.
type memoryConfigDal struct {
	mu   sync.Mutex
	docs map[string]*entities.GuildConfig
}

func newMemoryConfigDal() *memoryConfigDal {
	return &memoryConfigDal{docs: make(map[string]*entities.GuildConfig)}
}

func (d *memoryConfigDal) GetOrCreate(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, ok := d.docs[guildID]
	if !ok {
		cfg = entities.DefaultGuildConfig(guildID)
		d.docs[guildID] = cfg
	}
	c := *cfg
	c.Options = append([]entities.PanelOption(nil), cfg.Options...)
	return &c, nil
}

func (d *memoryConfigDal) Save(_ context.Context, cfg *entities.GuildConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *cfg
	c.Options = append([]entities.PanelOption(nil), cfg.Options...)
	d.docs[cfg.GuildID] = &c
	return nil
}

// memoryTicketDal is an in-memory append-only ticket store.
type memoryTicketDal struct {
	mu        sync.Mutex
	seq       int
	records   []*entities.Ticket
	appendErr error
	log       *eventLog
}

func (d *memoryTicketDal) Append(_ context.Context, ticket *entities.Ticket) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.appendErr != nil {
		return 0, d.appendErr
	}
	d.seq++
	ticket.ID = d.seq
	d.records = append(d.records, ticket)
	if d.log != nil {
		d.log.add("append")
	}
	return d.seq, nil
}

func (d *memoryTicketDal) GetByGuild(_ context.Context, guildID string) ([]*entities.Ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*entities.Ticket
	for _, r := range d.records {
		if r.GuildID == guildID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *memoryTicketDal) GetByChannel(_ context.Context, guildID, channelID string) (*entities.Ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.records {
		if r.GuildID == guildID && r.ChannelID == channelID {
			return r, nil
		}
	}
	return nil, errors.New("ticket not found")
}

// fakeCollector is a canned transcript collector.
type fakeCollector struct {
	text  string
	path  string
	err   error
	delay time.Duration
}

func (c *fakeCollector) Collect(string) (string, string, error) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return "", "", c.err
	}
	return c.text, c.path, nil
}

// fakeApp wires the fakes together behind IApp.
type fakeApp struct {
	session     *fakeSession
	configDal   *memoryConfigDal
	ticketDal   *memoryTicketDal
	admin       *paneladmin.Admin
	transcripts TranscriptCollector
	closeLocks  *keyed.Mutex
	limiter     *keyed.Limiter
}

func newFakeApp() *fakeApp {
	cfgDal := newMemoryConfigDal()
	log := &eventLog{}
	session := newFakeSession()
	session.log = log
	return &fakeApp{
		session:     session,
		configDal:   cfgDal,
		ticketDal:   &memoryTicketDal{log: log},
		admin:       paneladmin.New(slog.Default(), cfgDal),
		transcripts: &fakeCollector{text: "transcript", path: "transcript_1.txt"},
		closeLocks:  keyed.NewMutex(),
		limiter:     keyed.NewLimiter(rate.Inf, 0),
	}
}

func (a *fakeApp) Log() *slog.Logger                { return slog.Default() }
func (a *fakeApp) Session() DiscordSession          { return a.session }
func (a *fakeApp) ConfigDal() dataaccess.ConfigDal  { return a.configDal }
func (a *fakeApp) TicketDal() dataaccess.TicketDal  { return a.ticketDal }
func (a *fakeApp) PanelAdmin() *paneladmin.Admin    { return a.admin }
func (a *fakeApp) Transcripts() TranscriptCollector { return a.transcripts }
func (a *fakeApp) CloseLocks() *keyed.Mutex         { return a.closeLocks }
func (a *fakeApp) TicketLimiter() *keyed.Limiter    { return a.limiter }

func componentInteraction(guildID, channelID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   guildID,
			ChannelID: channelID,
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "u1", Username: "alice"},
			},
		},
	}
}

// configureGuild sets up routing pointing at live objects in the fake
// session.
func configureGuild(t *testing.T, a *fakeApp, guildID string) {
	t.Helper()

	a.session.channels["cat1"] = &discordgo.Channel{
		ID:   "cat1",
		Type: discordgo.ChannelTypeGuildCategory,
	}
	a.session.roles = []*discordgo.Role{{ID: "role1"}}

	require.NoError(t, a.admin.SetRouting(context.Background(), guildID, "cat1", "role1"))
}

func TestCreateTicketUnconfiguredGuild(t *testing.T) {
	a := newFakeApp()
	i := componentInteraction("g1", "panelchan")

	require.NoError(t, createTicket(a, i))

	require.Empty(t, a.session.created, "no channel may be created")
	require.Equal(t, []string{messages.ErrNotConfigured}, a.session.responseContents())
}

func TestCreateTicketDeadCategory(t *testing.T) {
	a := newFakeApp()
	configureGuild(t, a, "g1")
	// The configured category no longer resolves.
	delete(a.session.channels, "cat1")

	require.NoError(t, createTicket(a, componentInteraction("g1", "panelchan")))
	require.Empty(t, a.session.created)
	require.Equal(t, []string{messages.ErrNotConfigured}, a.session.responseContents())
}

func TestCreateTicketProvisionsChannel(t *testing.T) {
	a := newFakeApp()
	configureGuild(t, a, "g1")

	require.NoError(t, createTicket(a, componentInteraction("g1", "panelchan")))

	require.Len(t, a.session.created, 1)
	created := a.session.created[0]
	require.Equal(t, "ticket-alice", created.Name)
	require.Equal(t, "cat1", created.ParentID)

	// Deny everyone, allow requester and routed role.
	require.Len(t, created.PermissionOverwrites, 3)
	require.Equal(t, "g1", created.PermissionOverwrites[0].ID)
	require.EqualValues(t, discordgo.PermissionViewChannel, created.PermissionOverwrites[0].Deny)
	require.Equal(t, "u1", created.PermissionOverwrites[1].ID)
	require.Equal(t, "role1", created.PermissionOverwrites[2].ID)

	// Welcome message carries the close button.
	welcome := a.session.sent[ticketChannelID]
	require.Len(t, welcome, 1)
	row, ok := welcome[0].Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	button, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	require.Equal(t, CloseTicketButtonID, button.CustomID)

	// Requester got a private link to the channel.
	contents := a.session.responseContents()
	require.Len(t, contents, 1)
	require.Contains(t, contents[0], "<#"+ticketChannelID+">")
}

func TestCreateTicketRateLimited(t *testing.T) {
	a := newFakeApp()
	configureGuild(t, a, "g1")
	a.limiter = keyed.NewLimiter(rate.Every(time.Hour), 1)

	require.NoError(t, createTicket(a, componentInteraction("g1", "panelchan")))
	require.NoError(t, createTicket(a, componentInteraction("g1", "panelchan")))

	require.Len(t, a.session.created, 1)
	contents := a.session.responseContents()
	require.Equal(t, messages.ErrTicketRateLimited, contents[len(contents)-1])
}

func TestCloseTicketArchivesBeforeDestroying(t *testing.T) {
	a := newFakeApp()
	a.session.channels[ticketChannelID] = &discordgo.Channel{
		ID:      ticketChannelID,
		GuildID: "g1",
		Type:    discordgo.ChannelTypeGuildText,
	}
	transcriptText := "[2024-05-01 12:00:00] alice: one\n[2024-05-01 12:01:00] alice: two\n[2024-05-01 12:02:00] alice: three"
	a.transcripts = &fakeCollector{text: transcriptText, path: "transcript_" + ticketChannelID + ".txt"}

	require.NoError(t, closeTicket(a, componentInteraction("g1", ticketChannelID)))

	// Exactly one record, with the full transcript.
	require.Len(t, a.ticketDal.records, 1)
	record := a.ticketDal.records[0]
	require.Equal(t, 1, record.ID)
	require.Equal(t, "g1", record.GuildID)
	require.Equal(t, ticketChannelID, record.ChannelID)
	require.Equal(t, "u1", record.UserID)
	require.Equal(t, transcriptText, record.Transcript)
	require.False(t, record.ClosedAt.Time().IsZero())

	// The transcript file was posted in-channel.
	require.Equal(t, []string{"transcript_" + ticketChannelID + ".txt"}, a.session.files)

	// The channel is gone, and it went away only after the record was
	// persisted.
	require.NotContains(t, a.session.channels, ticketChannelID)
	require.Equal(t, []string{"append", "delete"}, a.session.log.all())
}

func TestCloseTicketCaptureFailureLeavesChannelOpen(t *testing.T) {
	a := newFakeApp()
	a.session.channels[ticketChannelID] = &discordgo.Channel{ID: ticketChannelID, GuildID: "g1"}
	a.transcripts = &fakeCollector{err: errors.New("history read failed")}

	require.NoError(t, closeTicket(a, componentInteraction("g1", ticketChannelID)))

	require.Empty(t, a.ticketDal.records, "no record may be written")
	require.Contains(t, a.session.channels, ticketChannelID, "channel must still exist")
	require.Zero(t, a.session.deletions)
	require.Equal(t, []string{messages.ErrCaptureFailed}, a.session.responseContents())
}

func TestCloseTicketPersistenceFailureKeepsChannel(t *testing.T) {
	a := newFakeApp()
	a.session.channels[ticketChannelID] = &discordgo.Channel{ID: ticketChannelID, GuildID: "g1"}
	a.ticketDal.appendErr = errors.New("write failed")

	err := closeTicket(a, componentInteraction("g1", ticketChannelID))
	require.Error(t, err)

	require.Contains(t, a.session.channels, ticketChannelID, "deletion must not follow a failed write")
	require.Zero(t, a.session.deletions)
}

func TestCloseTicketConcurrentDoubleClose(t *testing.T) {
	a := newFakeApp()
	a.session.channels[ticketChannelID] = &discordgo.Channel{ID: ticketChannelID, GuildID: "g1"}
	// Stretch the capture window so the second close overlaps it.
	a.transcripts = &fakeCollector{text: "transcript", path: "t.txt", delay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for n := 0; n < 2; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = closeTicket(a, componentInteraction("g1", ticketChannelID))
		}(n)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Exactly one record and one deletion; the loser answered with a
	// harmless ephemeral message.
	require.Len(t, a.ticketDal.records, 1)
	require.Equal(t, 1, a.session.deletions)
	require.Equal(t, []string{messages.ErrCloseInProgress}, a.session.responseContents())
}

func TestCloseTicketChannelAlreadyGone(t *testing.T) {
	a := newFakeApp()

	require.NoError(t, closeTicket(a, componentInteraction("g1", ticketChannelID)))

	require.Empty(t, a.ticketDal.records)
	require.Zero(t, a.session.deletions)
	require.Len(t, a.session.responseContents(), 1)
}

func TestCloseTicketRecordTimestamps(t *testing.T) {
	a := newFakeApp()
	a.session.channels[ticketChannelID] = &discordgo.Channel{ID: ticketChannelID, GuildID: "g1"}

	require.NoError(t, closeTicket(a, componentInteraction("g1", ticketChannelID)))

	record := a.ticketDal.records[0]
	created, err := discordgo.SnowflakeTimestamp(ticketChannelID)
	require.NoError(t, err)
	require.Equal(t, created.UTC(), record.CreatedAt.Time().UTC())
	require.True(t, strings.Contains(record.CreatedAt.String(), "T"), "timestamps are RFC3339 text")
}
