package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"VerifyFlow/bot/chat"
	"VerifyFlow/bot/chat/telegram"
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

const processTimeout = 30 * time.Second

// Handler runs a message through the verification workflow.
type Handler interface {
	Process(ctx context.Context, userID, message string) (string, *entity.UserState)
}

type TgBot struct {
	log       *slog.Logger
	api       *tgbotapi.Bot
	messenger chat.Messenger
	handler   Handler
}

func NewTgBot(apiKey string, handler Handler, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:     log.With(sl.Module("tgbot")),
		handler: handler,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api
	tgBot.messenger = telegram.NewMessenger(api)

	return tgBot, nil
}

// UserID namespaces Telegram chats so they never collide with other transports.
func UserID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.handleStart))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Equal(telegram.AcceptCallback), t.handleAccept))
	dispatcher.AddHandler(handlers.NewMessage(message.Contact, t.handleContact))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, t.handleMessage))

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("telegram bot started", slog.String("username", t.api.Username))

	// Idle, to keep updates coming in, and avoid bot stopping.
	updater.Idle()

	return nil
}

func (t *TgBot) handleStart(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.relay(ctx.EffectiveChat.Id, "hello")
}

func (t *TgBot) handleAccept(b *tgbotapi.Bot, ctx *ext.Context) error {
	if _, err := ctx.CallbackQuery.Answer(b, nil); err != nil {
		t.log.Debug("answer callback", sl.Err(err))
	}
	return t.relay(ctx.EffectiveChat.Id, telegram.AcceptCallback)
}

// handleContact treats a shared contact as the typed phone number.
func (t *TgBot) handleContact(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.relay(ctx.EffectiveChat.Id, ctx.EffectiveMessage.Contact.PhoneNumber)
}

func (t *TgBot) handleMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.relay(ctx.EffectiveChat.Id, ctx.EffectiveMessage.Text)
}

func (t *TgBot) relay(chatID int64, text string) error {
	return Relay(t.handler, t.messenger, chatID, text, t.log)
}

// StepMessenger can attach a keyboard that fits the next step.
type StepMessenger interface {
	chat.Messenger
	SendStep(chatID, text string, step entity.WorkflowStep) error
}

// Relay processes one Telegram message and sends the reply back to the chat.
func Relay(handler Handler, m chat.Messenger, chatID int64, text string, log *slog.Logger) error {
	id := strconv.FormatInt(chatID, 10)
	if err := m.SendTyping(id); err != nil {
		log.Debug("typing action", sl.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()
	reply, state := handler.Process(ctx, UserID(chatID), text)
	if reply == "" {
		return nil
	}
	var err error
	if sm, ok := m.(StepMessenger); ok && state != nil {
		err = sm.SendStep(id, reply, state.CurrentStep)
	} else {
		err = m.SendText(id, reply)
	}
	if err != nil {
		log.With(slog.Int64("id", chatID)).Error("sending message", sl.Err(err))
		return err
	}
	return nil
}
