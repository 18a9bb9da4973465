package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Terugav10/Bot-Dc-Ticket/pkg/dataaccess/monitoring"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/entities"
	"github.com/Terugav10/Bot-Dc-Ticket/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

// ticketSequence is the counter document id for ticket numbering.
const ticketSequence = "tickets"

// TicketDal is the data access layer for archived tickets. The ticket
// collection is append-only: records are inserted once at close time
// and there are no update or delete operations.
type TicketDal interface {
	// Append assigns the next ticket id and inserts the record. The
	// assigned id is returned and also set on the ticket.
	Append(ctx context.Context, ticket *entities.Ticket) (int, error)

	// GetByGuild returns all archived tickets for a guild, newest
	// first.
	GetByGuild(ctx context.Context, guildID string) ([]*entities.Ticket, error)

	// GetByChannel returns the archived ticket for a channel.
	GetByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(l *slog.Logger) TicketDal {
	l = l.With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDal{
		l:      l,
		client: MongoDB,
	}
}

// nextID increments and returns the ticket sequence. The counter
// update is a single findOneAndUpdate, so concurrent closes get
// distinct increasing ids.
func (d *ticketDal) nextID(ctx context.Context) (int, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionCounters)

	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "next_id", mongoDatabase, collectionCounters).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "next_id", mongoDatabase, collectionCounters))
	defer t.ObserveDuration()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": ticketSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error incrementing ticket sequence: %w", err)
	}
	return counter.Seq, nil
}

func (d *ticketDal) Append(ctx context.Context, ticket *entities.Ticket) (int, error) {
	id, err := d.nextID(ctx)
	if err != nil {
		return 0, err
	}
	ticket.ID = id

	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "append_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "append_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	if _, err := collection.InsertOne(ctx, ticket); err != nil {
		return 0, fmt.Errorf("error inserting ticket: %w", err)
	}
	return id, nil
}

func (d *ticketDal) GetByGuild(ctx context.Context, guildID string) ([]*entities.Ticket, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_by_guild", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_by_guild", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	opts := options.Find().SetSort(bson.M{"id": -1})
	cursor, err := collection.Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding tickets: %w", err)
	}

	var tickets []*entities.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}

func (d *ticketDal) GetByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_by_channel", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_by_channel", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := collection.FindOne(ctx, bson.M{
		"guild_id":   guildID,
		"channel_id": channelID,
	}).Decode(ticket)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}
