package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	out         map[string]any
	err         error
	calls       int
	instruction string
}

func (f *fakeExtractor) Extract(_ context.Context, instruction, _ string, _ entity.ToolSchema) (map[string]any, error) {
	f.calls++
	f.instruction = instruction
	return f.out, f.err
}

type fakeLookup struct {
	user  *entity.User
	err   error
	calls int
}

func (f *fakeLookup) FindByEmailAndLastName(_ context.Context, _, _ string) (*entity.User, error) {
	f.calls++
	return f.user, f.err
}

func stateWith(data map[string]any) *entity.UserState {
	s := entity.NewUserState("u1", time.Now())
	s.MergeData(data)
	return s
}

func TestNameFull(t *testing.T) {
	ex := &fakeExtractor{out: map[string]any{
		"has_first_name": true, "has_last_name": true,
		"first_name": "John", "last_name": "Smith",
	}}
	v := NewName(ex, logger.Discard())

	res := v.Validate(context.Background(), "My name is John Smith", stateWith(nil))
	require.True(t, res.Success)
	assert.Equal(t, "John", res.String(entity.KeyFirstName))
	assert.Equal(t, "Smith", res.String(entity.KeyLastName))
}

func TestNamePartialEchoesFirstName(t *testing.T) {
	ex := &fakeExtractor{out: map[string]any{
		"has_first_name": true, "has_last_name": false, "first_name": "John",
	}}
	v := NewName(ex, logger.Discard())

	res := v.Validate(context.Background(), "I'm John", stateWith(nil))
	assert.False(t, res.Success)
	assert.Equal(t, "John", res.String(entity.KeyFirstName))
	assert.Equal(t, true, res.Metadata[MetaIncomplete])
	assert.Contains(t, res.ErrorMessage, "last name")
}

func TestNameCompletesFromKnownFirstName(t *testing.T) {
	ex := &fakeExtractor{out: map[string]any{
		"has_first_name": false, "has_last_name": true, "last_name": "Smith",
	}}
	v := NewName(ex, logger.Discard())

	res := v.Validate(context.Background(), "Smith", stateWith(map[string]any{entity.KeyFirstName: "John"}))
	require.True(t, res.Success)
	assert.Equal(t, "John", res.String(entity.KeyFirstName))
	assert.Equal(t, "Smith", res.String(entity.KeyLastName))
	assert.Equal(t, 1, ex.calls)
	assert.Contains(t, ex.instruction, `"John"`)

	res = NewName(nil, logger.Discard()).Validate(context.Background(), "Smith", stateWith(map[string]any{entity.KeyFirstName: "John"}))
	require.True(t, res.Success)
	assert.Equal(t, "Smith", res.String(entity.KeyLastName))
}

func TestNameRejectsFillerAsLastName(t *testing.T) {
	known := stateWith(map[string]any{entity.KeyFirstName: "John"})
	ex := &fakeExtractor{}
	for _, v := range []*Name{NewName(nil, logger.Discard()), NewName(ex, logger.Discard())} {
		for _, input := range []string{"Hello", "ok", "thanks", "yes", "Thank you!", "hi there"} {
			res := v.Validate(context.Background(), input, known)
			assert.False(t, res.Success, input)
			assert.Equal(t, "John", res.String(entity.KeyFirstName), input)
			assert.Empty(t, res.String(entity.KeyLastName), input)
		}
	}
	assert.Equal(t, 0, ex.calls)

	// filler the extractor mistakes for a surname is dropped
	ex = &fakeExtractor{out: map[string]any{
		"has_first_name": true, "has_last_name": true, "first_name": "John", "last_name": "Thanks",
	}}
	res := NewName(ex, logger.Discard()).Validate(context.Background(), "John, thanks", stateWith(nil))
	assert.False(t, res.Success)
	assert.Equal(t, "John", res.String(entity.KeyFirstName))

	res = NewName(nil, logger.Discard()).Validate(context.Background(), "hello John Smith", stateWith(nil))
	require.True(t, res.Success)
	assert.Equal(t, "John", res.String(entity.KeyFirstName))
	assert.Equal(t, "Smith", res.String(entity.KeyLastName))
}

func TestNameToleratesMalformedExtraction(t *testing.T) {
	cases := []map[string]any{
		nil,
		{},
		{"first_name": 42, "last_name": []string{"x"}},
		{"has_first_name": true, "first_name": "   "},
	}
	for _, out := range cases {
		v := NewName(&fakeExtractor{out: out}, logger.Discard())
		res := v.Validate(context.Background(), "hmm", stateWith(nil))
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.ErrorMessage)
	}
}

func TestNameExtractionError(t *testing.T) {
	v := NewName(&fakeExtractor{err: errors.New("boom")}, logger.Discard())
	res := v.Validate(context.Background(), "John Smith", stateWith(nil))
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "trouble")
}

func TestNameEmptyInput(t *testing.T) {
	ex := &fakeExtractor{}
	v := NewName(ex, logger.Discard())
	res := v.Validate(context.Background(), "   ", stateWith(nil))
	assert.False(t, res.Success)
	assert.Equal(t, 0, ex.calls)
}

func TestNameFallbackWithoutExtractor(t *testing.T) {
	v := NewName(nil, logger.Discard())

	res := v.Validate(context.Background(), "Jean-Luc Picard", stateWith(nil))
	require.True(t, res.Success)
	assert.Equal(t, "Picard", res.String(entity.KeyLastName))

	res = v.Validate(context.Background(), "Sarah", stateWith(nil))
	assert.False(t, res.Success)
	assert.Equal(t, "Sarah", res.String(entity.KeyFirstName))
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", ExtractEmail("contact me at a@b.com"))
	assert.Equal(t, "john.doe@company.co.uk", ExtractEmail("mail John.Doe@Company.co.uk or x@y.org"))
	assert.Equal(t, "", ExtractEmail("no address here"))
}

func TestEmailFormat(t *testing.T) {
	v := NewEmail(nil, logger.Discard())

	assert.False(t, v.Check(context.Background(), "a@b", "").Success)
	assert.False(t, v.Check(context.Background(), "a@@b.com", "").Success)
	assert.False(t, v.Check(context.Background(), "", "").Success)

	long := make([]byte, 320)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, IsValidEmail(string(long)+"@b.com"))

	res := v.Check(context.Background(), "a@b.com", "")
	require.True(t, res.Success)
	assert.Equal(t, false, res.Data[entity.KeyReturningUser])
}

func TestEmailReturningUser(t *testing.T) {
	lookup := &fakeLookup{user: &entity.User{UUID: "uuid-1", Phone: "+16502530000"}}
	v := NewEmail(lookup, logger.Discard())

	res := v.Validate(context.Background(), "it's JOHN@x.com", stateWith(map[string]any{entity.KeyLastName: "Smith"}))
	require.True(t, res.Success)
	assert.Equal(t, "john@x.com", res.String(entity.KeyEmail))
	assert.Equal(t, true, res.Data[entity.KeyReturningUser])
	assert.Equal(t, "uuid-1", res.String(entity.KeyExistingUUID))
	assert.Equal(t, 1, lookup.calls)
}

func TestEmailLookupSkippedWithoutLastName(t *testing.T) {
	lookup := &fakeLookup{user: &entity.User{UUID: "uuid-1"}}
	v := NewEmail(lookup, logger.Discard())

	res := v.Validate(context.Background(), "a@b.com", stateWith(nil))
	require.True(t, res.Success)
	assert.Equal(t, false, res.Data[entity.KeyReturningUser])
	assert.Equal(t, 0, lookup.calls)
}

func TestEmailLookupErrorIsReported(t *testing.T) {
	cause := errors.New("db down")
	v := NewEmail(&fakeLookup{err: cause}, logger.Discard())
	res := v.Check(context.Background(), "a@b.com", "Smith")
	require.False(t, res.Success)
	assert.Equal(t, ErrorTypeLookupFailed, res.Metadata[MetaErrorType])
	assert.ErrorIs(t, res.Metadata[MetaCause].(error), cause)
	assert.Nil(t, res.Data)
}

func TestPhoneNormalizes(t *testing.T) {
	v := NewPhone("US", logger.Discard())

	res := v.Validate(context.Background(), "+1 650-253-0000", nil)
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "+16502530000", res.String(entity.KeyPhone))
	assert.Equal(t, "+1", res.String(entity.KeyCountryCode))
	assert.Equal(t, "US", res.String(entity.KeyRegion))

	res = v.Validate(context.Background(), "(650) 253-0000", nil)
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "+16502530000", res.String(entity.KeyPhone))
}

func TestPhoneFromText(t *testing.T) {
	v := NewPhone("US", logger.Discard())
	assert.Equal(t, "+442070313000", v.Extract("call me at +44 20 7031 3000 after six"))
	assert.Equal(t, "", v.Extract("nothing to see"))
}

func TestPhoneCategories(t *testing.T) {
	noRegion := NewPhone("", logger.Discard())
	res := noRegion.Validate(context.Background(), "555-123-4567", nil)
	assert.False(t, res.Success)
	assert.Equal(t, PhoneInvalidCountryCode, res.Metadata[MetaErrorType])

	us := NewPhone("US", logger.Discard())
	cases := map[string]string{
		"hello":                  PhoneNotANumber,
		"+1 650":                 PhoneTooShort,
		"+1 650253000012345678":  PhoneTooLong,
		"":                       PhoneEmpty,
		"+1 555-123-4567":        PhoneInvalidNumber,
	}
	for in, want := range cases {
		res := us.Check(in, "US")
		assert.False(t, res.Success, in)
		assert.Equal(t, want, res.Metadata[MetaErrorType], in)
		assert.NotEmpty(t, res.ErrorMessage, in)
	}
}
