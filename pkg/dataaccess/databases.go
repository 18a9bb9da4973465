package dataaccess

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const mongoDatabase = "ticketbot"

const (
	// collectionGuildConfigs holds one configuration document per guild.
	collectionGuildConfigs = "guild_configs"

	// collectionTickets holds the append-only closed ticket records.
	collectionTickets = "tickets"

	// collectionCounters holds the id sequences.
	collectionCounters = "counters"
)
