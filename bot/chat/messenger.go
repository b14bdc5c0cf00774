package chat

// Messenger delivers text replies on a platform.
type Messenger interface {
	SendText(chatID, text string) error
	SendTyping(chatID string) error
}
