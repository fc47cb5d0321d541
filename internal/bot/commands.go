package bot

// Command constants for Telegram bot commands.
const (
	CommandStart  = "/start"
	CommandHelp   = "/help"
	CommandCancel = "/cancel"
)

// Callback prefix constants for inline button interactions.
const (
	CallbackGetSession = "get_session"
)
