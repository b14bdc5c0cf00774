package telegram

import (
	"VerifyFlow/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// AcceptCallback is the callback data of the terms button.
const AcceptCallback = "TERMS_ACCEPTED"

func AcceptKeyboard(text string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{
				{Text: text, CallbackData: AcceptCallback},
			},
		},
	}
}

// ContactRequestKeyboard lets the user share the phone number of their account.
func ContactRequestKeyboard(buttonText string) tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		Keyboard: [][]tgbotapi.KeyboardButton{
			{
				{Text: buttonText, RequestContact: true},
			},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func RemoveKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.ReplyKeyboardRemove{
		RemoveKeyboard: true,
	}
}

// StepMarkup picks the keyboard shown while the user is in step.
func StepMarkup(step entity.WorkflowStep) tgbotapi.ReplyMarkup {
	switch step {
	case entity.StepAwaitingTerms:
		return AcceptKeyboard("I accept")
	case entity.StepAwaitingPhone:
		return ContactRequestKeyboard("Share my phone number")
	case entity.StepAwaitingOTP:
		return RemoveKeyboard()
	}
	return nil
}
