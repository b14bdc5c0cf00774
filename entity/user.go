package entity

import (
	"fmt"
	"github.com/google/uuid"
	"strings"
	"time"
)

// User is the durable record materialized after the passcode is verified.
type User struct {
	UUID         string    `json:"uuid" bson:"uuid"`
	SessionID    string    `json:"session_id" bson:"session_id"`
	FirstName    string    `json:"first_name" bson:"first_name" validate:"required"`
	LastName     string    `json:"last_name" bson:"last_name" validate:"required"`
	LastNameKey  string    `json:"-" bson:"last_name_key"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	Phone        string    `json:"phone" bson:"phone" validate:"required,e164"`
	CountryCode  string    `json:"country_code" bson:"country_code" validate:"omitempty"`
	Blocked      bool      `json:"blocked" bson:"blocked"`
	VerifiedAt   time.Time `json:"verified_at" bson:"verified_at"`
	LastSeen     time.Time `json:"last_seen" bson:"last_seen"`
	TermsAgreed  time.Time `json:"terms_agreed" bson:"terms_agreed"`
	Verification string    `json:"verification" bson:"verification"`
}

func NewUser(sessionID, firstName, lastName, email, phone string) *User {
	now := time.Now()
	return &User{
		UUID:         uuid.NewString(),
		SessionID:    sessionID,
		FirstName:    firstName,
		LastName:     lastName,
		LastNameKey:  NameKey(lastName),
		Email:        strings.ToLower(email),
		Phone:        phone,
		VerifiedAt:   now,
		LastSeen:     now,
		Verification: "email_otp",
	}
}

// NameKey normalizes a last name for case-insensitive lookups.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RecordID is the user id derived from one verification state. Retrying a
// verification after a failed state write yields the same id.
func RecordID(state *UserState) string {
	seed := fmt.Sprintf("%s|%d", state.UserID, state.CreatedAt.UnixMilli())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// UserFromState assembles a record from the data collected during verification.
func UserFromState(state *UserState) *User {
	u := NewUser(
		state.UserID,
		state.GetString(KeyFirstName),
		state.GetString(KeyLastName),
		state.GetString(KeyEmail),
		state.GetString(KeyPhone),
	)
	u.UUID = RecordID(state)
	u.CountryCode = state.GetString(KeyCountryCode)
	if state.TermsAgreedAt != nil {
		u.TermsAgreed = *state.TermsAgreedAt
	}
	return u
}
