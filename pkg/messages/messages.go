// Package messages holds every user-facing string the bot sends. The bot
// talks to its users in Portuguese, matching the communities it serves.
package messages

const (
	// ErrUserErrorProcessing is the generic response when a command fails.
	ErrUserErrorProcessing = "Ocorreu um erro ao processar o comando. Tente novamente."

	// ErrNotConfigured is sent when the ticket category or role is missing.
	ErrNotConfigured = "Categoria ou cargo não configurado."

	// ErrInvalidColor is sent when the customize color does not parse.
	ErrInvalidColor = "Cor inválida, use formato #hex."

	// ErrNoOptions is sent when the panel is rendered with no options.
	ErrNoOptions = "Nenhuma opção configurada. Use /add antes de enviar o painel."

	// ErrTooManyOptions is sent when the panel exceeds the menu limit.
	ErrTooManyOptions = "O menu suporta no máximo 25 opções. Remova algumas com /remove."

	// ErrCloseInProgress is sent when a second close races an ongoing one.
	ErrCloseInProgress = "Este ticket já está sendo fechado."

	// ErrCaptureFailed is sent when the transcript cannot be captured.
	// The ticket stays open.
	ErrCaptureFailed = "Não foi possível gerar a transcrição. O ticket continua aberto."

	// ErrTicketRateLimited is sent when a user opens tickets too fast.
	ErrTicketRateLimited = "Você está abrindo tickets rápido demais. Aguarde um momento."

	// OptionAdded confirms an option append. Formatted with the label.
	OptionAdded = "Opção '%s' adicionada."

	// OptionRemoved confirms an option removal.
	OptionRemoved = "Opção removida."

	// OptionNotFound reports that no option matched the given value.
	OptionNotFound = "Opção não encontrada."

	// PanelCustomized confirms a customize command.
	PanelCustomized = "Painel personalizado."

	// RoutingSaved confirms a configure command.
	RoutingSaved = "Configuração salva."

	// TicketCreated acknowledges a new ticket. Formatted with the
	// channel mention.
	TicketCreated = "Ticket criado: %s"

	// TicketWelcome greets the requester inside the new channel.
	// Formatted with the user mention.
	TicketWelcome = "%s, seu ticket foi criado."

	// CloseTicketLabel is the label of the close button.
	CloseTicketLabel = "Fechar Ticket"
)
