package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

// Extractor fills a schema of named fields from free text.
type Extractor interface {
	Extract(ctx context.Context, instruction, utterance string, schema entity.ToolSchema) (map[string]any, error)
}

const nameInstruction = `You are a name parser. Extract the person's first and last name from their message.
Rules:
- Detect if they provided only a first name or a full name (first + last).
- Handle natural language such as "My name is X", "I'm X", "Call me X".
- Keep special characters in names: O'Brien, Jean-Luc, María.
- Do not include titles like Dr. or Mr.
- If only a first name is present set has_last_name to false.`

const nameFollowUp = `
- The user already gave the first name %q and was asked for their last name.
  A message holding a single name is their last name: return first_name %q and that name as last_name.
- Greetings, thanks and yes/no replies are not names.`

// fillers are conversational words that are never taken as a name.
var fillers = map[string]bool{
	"hello": true, "hi": true, "hey": true, "ok": true, "okay": true, "yes": true, "yeah": true,
	"yep": true, "no": true, "nope": true, "thanks": true, "thank": true, "you": true, "thx": true,
	"sure": true, "please": true, "hmm": true, "what": true, "why": true, "fine": true,
	"good": true, "morning": true, "afternoon": true, "evening": true, "great": true,
	"cool": true, "right": true, "correct": true, "same": true, "there": true,
}

var nameSchema = entity.ToolSchema{
	Type: "object",
	Properties: map[string]entity.ToolProperty{
		"has_first_name": {Type: "boolean", Description: "True if a first name is present"},
		"has_last_name":  {Type: "boolean", Description: "True if a last name is present"},
		"first_name":     {Type: "string", Description: "The person's first name, if detected"},
		"last_name":      {Type: "string", Description: "The person's last name, if detected"},
	},
	Required: []string{"has_first_name", "has_last_name"},
}

type Name struct {
	extractor Extractor
	log       *slog.Logger
}

func NewName(extractor Extractor, log *slog.Logger) *Name {
	return &Name{
		extractor: extractor,
		log:       log.With(sl.Module("validation.name")),
	}
}

func (v *Name) Validate(ctx context.Context, input string, state *entity.UserState) entity.ValidationResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return entity.Invalid("I didn't catch your name. Could you please tell me your full name?").
			WithMeta(MetaType, "name")
	}

	known := ""
	if state != nil {
		known = state.GetString(entity.KeyFirstName)
	}

	if isFiller(input) {
		if known != "" {
			return partialName(known)
		}
		return entity.Invalid("I couldn't detect your name in that message. Could you please provide your full name (first and last)?").
			WithMeta(MetaType, "name")
	}

	if v.extractor == nil {
		return v.fallback(input, known)
	}

	instruction := nameInstruction
	if known != "" {
		instruction += fmt.Sprintf(nameFollowUp, known, known)
	}
	extracted, err := v.extractor.Extract(ctx, instruction, input, nameSchema)
	if err != nil {
		v.log.Error("name extraction", sl.Err(err))
		return entity.Invalid("I'm having trouble processing that. Could you please provide your full name (first and last)?").
			WithMeta(MetaType, "name").
			WithMeta(MetaErrorType, "extraction_failed")
	}

	first := stringField(extracted, "first_name")
	last := stringField(extracted, "last_name")
	if denied(extracted, "has_first_name") {
		first = ""
	}
	if denied(extracted, "has_last_name") || isFiller(last) {
		last = ""
	}
	if isFiller(first) {
		first = ""
	}
	if first == "" && known != "" && last != "" {
		first = known
	}

	if first == "" {
		return entity.Invalid("I couldn't detect your name in that message. Could you please provide your full name (first and last)?").
			WithMeta(MetaType, "name")
	}
	if last == "" {
		return partialName(first)
	}
	return completeName(first, last)
}

// fallback splits on whitespace when no extractor is configured.
func (v *Name) fallback(input, known string) entity.ValidationResult {
	var parts []string
	for _, p := range strings.Fields(input) {
		if !isFiller(p) {
			parts = append(parts, p)
		}
	}
	switch {
	case len(parts) >= 2 && isNameToken(parts[0]) && isNameToken(parts[len(parts)-1]):
		return completeName(parts[0], strings.Join(parts[1:], " "))
	case len(parts) == 1 && isNameToken(parts[0]):
		if known != "" && !strings.EqualFold(parts[0], known) {
			return completeName(known, parts[0])
		}
		return partialName(parts[0])
	}
	return entity.Invalid("I couldn't detect your name in that message. Could you please provide your full name (first and last)?").
		WithMeta(MetaType, "name")
}

func partialName(first string) entity.ValidationResult {
	return entity.ValidationResult{
		Success:      false,
		Data:         map[string]any{entity.KeyFirstName: first},
		ErrorMessage: fmt.Sprintf("Thanks, %s! Could you also provide your last name? I need your full name to continue.", first),
		Metadata: map[string]any{
			MetaType:       "name",
			MetaIncomplete: true,
			MetaMissing:    entity.KeyLastName,
		},
	}
}

func completeName(first, last string) entity.ValidationResult {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	return entity.Valid(map[string]any{
		entity.KeyFirstName: first,
		entity.KeyLastName:  last,
		"full_name":         first + " " + last,
	}).WithMeta(MetaType, "name")
}

// isFiller reports text made only of filler words.
func isFiller(s string) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !fillers[w] {
			return false
		}
	}
	return true
}

func isNameToken(s string) bool {
	if len([]rune(s)) < 2 || len(s) > 100 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// denied reports an explicit false flag. A missing flag defers to the value.
func denied(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return !v
	case string:
		return strings.EqualFold(v, "false")
	}
	return false
}
