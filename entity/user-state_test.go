package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewUserState("u1", now)
	s.MergeData(map[string]any{KeyFirstName: "John"})
	s.CompletedSteps = append(s.CompletedSteps, MarkTerms)
	s.OtpExpiresAt = &now

	c := s.Clone()
	c.MergeData(map[string]any{KeyLastName: "Smith"})
	c.CompletedSteps = append(c.CompletedSteps, MarkName)
	later := now.Add(time.Hour)
	*c.OtpExpiresAt = later

	assert.Equal(t, "", s.GetString(KeyLastName))
	assert.Equal(t, []string{MarkTerms}, s.CompletedSteps)
	assert.Equal(t, now, *s.OtpExpiresAt)
	assert.Equal(t, "Smith", c.GetString(KeyLastName))
}

func TestOtpDataRoundTrip(t *testing.T) {
	s := NewUserState("u1", time.Now())
	assert.Nil(t, s.OtpData())

	exp := time.Now().Add(5 * time.Minute)
	s.ApplyOtp(&OtpData{Hash: "abc", ExpiresAt: exp, Attempts: 1, MaxAttempts: 3})

	o := s.OtpData()
	require.NotNil(t, o)
	assert.Equal(t, "abc", o.Hash)
	assert.Equal(t, 2, o.Remaining())

	s.ApplyOtp(nil)
	assert.Nil(t, s.OtpData())
	assert.Equal(t, 0, s.FailedOtpAttempts)
}

func TestUserFromState(t *testing.T) {
	s := NewUserState("tg:1", time.Now())
	s.MergeData(map[string]any{
		KeyFirstName: "John",
		KeyLastName:  "Smith",
		KeyEmail:     "John@X.com",
		KeyPhone:     "+16502530000",
	})
	u := UserFromState(s)
	assert.Equal(t, "john@x.com", u.Email)
	assert.Equal(t, "smith", u.LastNameKey)
	assert.Equal(t, "John Smith", u.FullName())
	assert.NotEmpty(t, u.UUID)
}
