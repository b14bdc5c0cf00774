package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"VerifyFlow/entity"
)

const (
	CodeLength         = 6
	DefaultTTL         = 5 * time.Minute
	DefaultMaxAttempts = 3
)

// Manager issues and verifies salted email passcodes.
type Manager struct {
	salt        string
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	random      io.Reader
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.random = r }
}

func NewManager(salt string, opts ...Option) *Manager {
	m := &Manager{
		salt:        salt,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) MaxAttempts() int { return m.maxAttempts }

// Generate draws every digit independently from the secure source.
// Bytes >= 250 are rejected so each digit stays uniform over 0-9.
func (m *Manager) Generate() (string, error) {
	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(code) < CodeLength {
		if _, err := io.ReadFull(m.random, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= 250 || len(code) == CodeLength {
				continue
			}
			code = append(code, '0'+b%10)
		}
	}
	return string(code), nil
}

func (m *Manager) Hash(code string) string {
	sum := sha256.Sum256([]byte(code + m.salt))
	return hex.EncodeToString(sum[:])
}

// Issue returns the plaintext code for dispatch together with its storable form.
func (m *Manager) Issue() (string, *entity.OtpData, error) {
	code, err := m.Generate()
	if err != nil {
		return "", nil, err
	}
	data := &entity.OtpData{
		Hash:        m.Hash(code),
		ExpiresAt:   m.now().Add(m.ttl),
		Attempts:    0,
		MaxAttempts: m.maxAttempts,
	}
	return code, data, nil
}

type Verdict struct {
	Status    entity.OtpStatus
	Remaining int
	Message   string
}

func (v Verdict) Ok() bool { return v.Status == entity.OtpVerified }

// Verify checks input against data. A mismatch increments data.Attempts.
func (m *Manager) Verify(input string, data *entity.OtpData) Verdict {
	digits := Digits(input)
	if len(digits) != CodeLength {
		return Verdict{
			Status:    entity.OtpMalformed,
			Remaining: remaining(data),
			Message:   fmt.Sprintf("Please enter a %d-digit code.", CodeLength),
		}
	}
	if data == nil || data.Hash == "" {
		return Verdict{
			Status:  entity.OtpExpired,
			Message: "There is no active code. Please request a new one.",
		}
	}
	if m.now().After(data.ExpiresAt) {
		return Verdict{
			Status:    entity.OtpExpired,
			Remaining: data.Remaining(),
			Message:   "This code has expired. Please request a new one.",
		}
	}
	if data.Attempts >= data.MaxAttempts {
		return Verdict{
			Status:  entity.OtpExhausted,
			Message: "Too many failed attempts. Please request a new code.",
		}
	}

	if subtle.ConstantTimeCompare([]byte(m.Hash(digits)), []byte(data.Hash)) == 1 {
		return Verdict{Status: entity.OtpVerified, Remaining: data.Remaining()}
	}

	data.Attempts++
	left := data.Remaining()
	if left == 0 {
		return Verdict{
			Status:  entity.OtpMismatch,
			Message: "Invalid code. No attempts remaining. Please request a new code.",
		}
	}
	return Verdict{
		Status:    entity.OtpMismatch,
		Remaining: left,
		Message:   fmt.Sprintf("Invalid code. You have %d attempt(s) remaining.", left),
	}
}

// Digits strips everything except ASCII digits. Leading zeros are preserved.
func Digits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func remaining(data *entity.OtpData) int {
	if data == nil {
		return 0
	}
	return data.Remaining()
}
