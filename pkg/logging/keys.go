package logging

const (
	// KeyAppName is the structured logging key for the application name.
	KeyAppName = "app"

	// KeyError is the structured logging key for errors.
	KeyError = "err"

	// KeyDal is the structured logging key for the data access layer name.
	KeyDal = "dal"

	// KeyGuildID is the structured logging key for guild identifiers.
	KeyGuildID = "guild_id"

	// KeyChannelID is the structured logging key for channel identifiers.
	KeyChannelID = "channel_id"

	// KeyUserID is the structured logging key for user identifiers.
	KeyUserID = "user_id"
)
