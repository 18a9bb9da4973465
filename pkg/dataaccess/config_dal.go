package dataaccess

import (
	"context"
	"errors"
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

const configDalName = "config_dal"

// ConfigDal is the data access layer for guild configurations.
type ConfigDal interface {
	// GetOrCreate returns the configuration for a guild. A guild seen
	// for the first time gets the default configuration, which is
	// persisted before it is returned.
	GetOrCreate(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// Save persists the full configuration for its guild.
	Save(ctx context.Context, cfg *entities.GuildConfig) error
}

type configDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewConfigDal creates a new guild configuration data access layer.
func NewConfigDal(l *slog.Logger) ConfigDal {
	l = l.With(slog.String(logging.KeyDal, configDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &configDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *configDal) GetOrCreate(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionGuildConfigs)

	monitoring.MongoTotalRequests.WithLabelValues(configDalName, "get_or_create", mongoDatabase, collectionGuildConfigs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(configDalName, "get_or_create", mongoDatabase, collectionGuildConfigs))
	defer t.ObserveDuration()

	cfg := new(entities.GuildConfig)
	err := collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// First time this guild is seen. Persist the defaults so the
		// next read observes the same document.
		cfg = entities.DefaultGuildConfig(guildID)
		if err := d.Save(ctx, cfg); err != nil {
			return nil, fmt.Errorf("error saving default config: %w", err)
		}
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

func (d *configDal) Save(ctx context.Context, cfg *entities.GuildConfig) error {
	collection := d.client.Database(mongoDatabase).Collection(collectionGuildConfigs)

	monitoring.MongoTotalRequests.WithLabelValues(configDalName, "save_config", mongoDatabase, collectionGuildConfigs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(configDalName, "save_config", mongoDatabase, collectionGuildConfigs))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"guild_id": cfg.GuildID}, bson.M{"$set": cfg}, opts)
	if err != nil {
		return fmt.Errorf("error updating guild config: %w", err)
	}
	return nil
}
