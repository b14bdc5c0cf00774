package telegram

import (
	"strconv"

	"VerifyFlow/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// TelegramAPI defines the Telegram bot methods needed by the messenger.
type TelegramAPI interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	SendChatAction(chatId int64, action string, opts *tgbotapi.SendChatActionOpts) (bool, error)
}

// Messenger implements chat.Messenger for Telegram. Replies are sent as plain text.
type Messenger struct {
	api TelegramAPI
}

func NewMessenger(api TelegramAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) SendText(chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return err
	}
	_, err = m.api.SendMessage(id, text, &tgbotapi.SendMessageOpts{})
	return err
}

func (m *Messenger) SendTyping(chatID string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return err
	}
	_, err = m.api.SendChatAction(id, "typing", nil)
	return err
}

// SendStep sends text with the keyboard that fits the user's next step.
func (m *Messenger) SendStep(chatID, text string, step entity.WorkflowStep) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return err
	}
	_, err = m.api.SendMessage(id, text, &tgbotapi.SendMessageOpts{
		ReplyMarkup: StepMarkup(step),
	})
	return err
}
