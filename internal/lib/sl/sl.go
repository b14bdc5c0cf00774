package sl

import (
	"VerifyFlow/internal/lib/mask"
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func Module(name string) slog.Attr {
	return slog.String("module", name)
}

// Secret logs only the edges of a credential.
func Secret(key, value string) slog.Attr {
	return slog.String(key, mask.ForLogging(value, 4))
}

func Email(email string) slog.Attr {
	return slog.String("email", mask.Email(email))
}

func Phone(phone string) slog.Attr {
	return slog.String("phone", mask.Phone(phone))
}

func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}
