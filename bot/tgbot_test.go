package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VerifyFlow/bot/chat/telegram"
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/logger"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

type fakeAPI struct {
	sent    []string
	markups []tgbotapi.ReplyMarkup
	actions int
	fail    error
}

func (f *fakeAPI) SendMessage(_ int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.sent = append(f.sent, text)
	if opts != nil {
		f.markups = append(f.markups, opts.ReplyMarkup)
	}
	return &tgbotapi.Message{Text: text}, nil
}

func (f *fakeAPI) SendChatAction(int64, string, *tgbotapi.SendChatActionOpts) (bool, error) {
	f.actions++
	return true, nil
}

type recordingHandler struct {
	userID  string
	message string
	reply   string
	state   *entity.UserState
}

func (h *recordingHandler) Process(_ context.Context, userID, message string) (string, *entity.UserState) {
	h.userID, h.message = userID, message
	return h.reply, h.state
}

func TestUserID(t *testing.T) {
	assert.Equal(t, "tg:42", UserID(42))
	assert.Equal(t, "tg:-1001", UserID(-1001))
}

func TestRelay(t *testing.T) {
	api := &fakeAPI{}
	h := &recordingHandler{reply: "Welcome!"}

	require.NoError(t, Relay(h, telegram.NewMessenger(api), 42, "hi", logger.Discard()))
	assert.Equal(t, "tg:42", h.userID)
	assert.Equal(t, "hi", h.message)
	assert.Equal(t, []string{"Welcome!"}, api.sent)
	assert.Equal(t, 1, api.actions)

	h.reply = ""
	require.NoError(t, Relay(h, telegram.NewMessenger(api), 42, "hi", logger.Discard()))
	assert.Len(t, api.sent, 1)

	h.reply = "x"
	api.fail = errors.New("blocked by user")
	assert.Error(t, Relay(h, telegram.NewMessenger(api), 42, "hi", logger.Discard()))
}

func TestRelayAttachesStepKeyboard(t *testing.T) {
	api := &fakeAPI{}
	state := entity.NewUserState("tg:42", time.Now())
	h := &recordingHandler{reply: "Please accept the terms.", state: state}

	require.NoError(t, Relay(h, telegram.NewMessenger(api), 42, "hi", logger.Discard()))
	require.Len(t, api.markups, 1)
	kb, ok := api.markups[0].(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, telegram.AcceptCallback, kb.InlineKeyboard[0][0].CallbackData)

	state.CurrentStep = entity.StepAwaitingPhone
	require.NoError(t, Relay(h, telegram.NewMessenger(api), 42, "x", logger.Discard()))
	contact, ok := api.markups[1].(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, contact.Keyboard[0][0].RequestContact)

	state.CurrentStep = entity.StepActive
	require.NoError(t, Relay(h, telegram.NewMessenger(api), 42, "x", logger.Discard()))
	assert.Nil(t, api.markups[2])
}
