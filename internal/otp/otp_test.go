package otp

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"VerifyFlow/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(c *clock, random []byte) *Manager {
	return NewManager("pepper", WithClock(c.now), WithRandom(bytes.NewReader(random)))
}

func TestGenerateUsesSourceAndKeepsLeadingZero(t *testing.T) {
	m := newTestManager(&clock{t: time.Now()}, []byte{0, 1, 2, 3, 4, 5})
	code, err := m.Generate()
	require.NoError(t, err)
	assert.Equal(t, "012345", code)
}

func TestGenerateRejectsBiasedBytes(t *testing.T) {
	m := newTestManager(&clock{t: time.Now()}, []byte{255, 251, 19, 7, 8, 9, 10, 11, 12, 13, 14, 15})
	code, err := m.Generate()
	require.NoError(t, err)
	assert.Equal(t, "978901", code)
}

func TestGenerateDefaultSource(t *testing.T) {
	m := NewManager("pepper")
	code, err := m.Generate()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
}

func TestIssueStoresHashOnly(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(c, []byte{1, 2, 3, 4, 5, 6})

	code, data, err := m.Issue()
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.NotContains(t, data.Hash, code)
	assert.Len(t, data.Hash, 64)
	assert.Equal(t, c.t.Add(5*time.Minute), data.ExpiresAt)
	assert.Equal(t, 0, data.Attempts)
	assert.Equal(t, 3, data.MaxAttempts)
}

func TestVerifySuccess(t *testing.T) {
	c := &clock{t: time.Now()}
	m := newTestManager(c, []byte{1, 2, 3, 4, 5, 6})
	_, data, err := m.Issue()
	require.NoError(t, err)

	v := m.Verify("code: 123-456", data)
	assert.True(t, v.Ok())
	assert.Equal(t, 0, data.Attempts)
}

func TestVerifyWrongLengthDoesNotConsumeAttempt(t *testing.T) {
	c := &clock{t: time.Now()}
	m := newTestManager(c, []byte{1, 2, 3, 4, 5, 6})
	_, data, err := m.Issue()
	require.NoError(t, err)

	for _, in := range []string{"12345", "1234567", "", "abc"} {
		v := m.Verify(in, data)
		assert.Equal(t, entity.OtpMalformed, v.Status, in)
	}
	assert.Equal(t, 0, data.Attempts)
}

func TestVerifyExhaustion(t *testing.T) {
	c := &clock{t: time.Now()}
	m := newTestManager(c, []byte{1, 2, 3, 4, 5, 6})
	_, data, err := m.Issue()
	require.NoError(t, err)

	v := m.Verify("000000", data)
	assert.Equal(t, entity.OtpMismatch, v.Status)
	assert.Equal(t, 2, v.Remaining)
	assert.Contains(t, v.Message, "2 attempt(s)")

	m.Verify("000000", data)
	v = m.Verify("000000", data)
	assert.Equal(t, 0, v.Remaining)
	assert.Contains(t, v.Message, "No attempts remaining")

	v = m.Verify("123456", data)
	assert.Equal(t, entity.OtpExhausted, v.Status)
	assert.False(t, v.Ok())
	assert.Equal(t, 3, data.Attempts)
}

func TestVerifyExpired(t *testing.T) {
	c := &clock{t: time.Now()}
	m := newTestManager(c, []byte{1, 2, 3, 4, 5, 6})
	_, data, err := m.Issue()
	require.NoError(t, err)

	c.t = c.t.Add(5*time.Minute + time.Second)
	v := m.Verify("123456", data)
	assert.Equal(t, entity.OtpExpired, v.Status)
	assert.Equal(t, 0, data.Attempts)
}

func TestVerifyWithoutCode(t *testing.T) {
	m := NewManager("pepper")
	v := m.Verify("123456", nil)
	assert.Equal(t, entity.OtpExpired, v.Status)
}

func TestHashDependsOnSalt(t *testing.T) {
	a := NewManager("a").Hash("123456")
	b := NewManager("b").Hash("123456")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, NewManager("a").Hash("123456"))
}
