package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"VerifyFlow/bot/chat"
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/mask"
	"VerifyFlow/internal/lib/sl"
	"VerifyFlow/internal/otp"
	"VerifyFlow/internal/validation"
)

// TermsAcceptedMarker is sent by clients with an explicit accept button.
const TermsAcceptedMarker = "TERMS_ACCEPTED"

// TermsStep waits for the user to accept the terms of service.
type TermsStep struct {
	now func() time.Time
}

func (s *TermsStep) ID() entity.WorkflowStep { return entity.StepAwaitingTerms }
func (s *TermsStep) Marker() string          { return entity.MarkTerms }

func (s *TermsStep) HandleInput(_ context.Context, state *entity.UserState, input string) chat.StepResult {
	if !Accepts(input) {
		return chat.StepResult{Reply: entity.TermsPending{}}
	}
	at := s.now()
	state.TermsAgreedAt = &at
	return chat.StepResult{Complete: true, Reply: entity.TermsAccepted{}}
}

// Accepts recognizes the accept marker or an agreement without negation.
func Accepts(input string) bool {
	if strings.EqualFold(strings.TrimSpace(input), TermsAcceptedMarker) {
		return true
	}
	if chat.IsNegated(input) {
		return false
	}
	return chat.HasWord(input, "accept", "accepted", "agree", "agreed", "yes", "ok", "okay", "sure") ||
		chat.HasPhrase(input, "i do")
}

// NameStep collects first and last name. A lone first name is kept while the last name is requested.
type NameStep struct {
	validator validation.Validator
}

func (s *NameStep) ID() entity.WorkflowStep { return entity.StepAwaitingName }
func (s *NameStep) Marker() string          { return entity.MarkName }

func (s *NameStep) HandleInput(ctx context.Context, state *entity.UserState, input string) chat.StepResult {
	res := s.validator.Validate(ctx, input, state)
	if res.Success {
		first, last := res.String(entity.KeyFirstName), res.String(entity.KeyLastName)
		return chat.StepResult{
			Complete:    true,
			UpdateState: map[string]any{entity.KeyFirstName: first, entity.KeyLastName: last},
			Reply:       entity.NameCollected{FirstName: first, LastName: last},
		}
	}
	if first := res.String(entity.KeyFirstName); first != "" {
		return chat.StepResult{
			Persist:     true,
			UpdateState: map[string]any{entity.KeyFirstName: first},
			Reply:       entity.NameIncomplete{FirstName: first},
		}
	}
	return chat.StepResult{Reply: entity.NameInvalid{Reason: res.ErrorMessage}}
}

// EmailStep collects the address and detects returning users.
type EmailStep struct {
	validator validation.Validator
}

func (s *EmailStep) ID() entity.WorkflowStep { return entity.StepAwaitingEmail }
func (s *EmailStep) Marker() string          { return entity.MarkEmail }

func (s *EmailStep) HandleInput(ctx context.Context, state *entity.UserState, input string) chat.StepResult {
	res := s.validator.Validate(ctx, input, state)
	if category, _ := res.Metadata[validation.MetaErrorType].(string); category == validation.ErrorTypeLookupFailed {
		cause, _ := res.Metadata[validation.MetaCause].(error)
		return chat.StepResult{Error: fmt.Errorf("returning user lookup: %w", cause), Reply: entity.ServiceUnavailable{}}
	}
	if !res.Success {
		return chat.StepResult{Reply: entity.EmailInvalid{Reason: res.ErrorMessage}}
	}
	returning := false
	if b, ok := res.Data[entity.KeyReturningUser].(bool); ok {
		returning = b
	}
	reply := entity.EmailCollected{FirstName: state.GetString(entity.KeyFirstName), Returning: returning}
	if returning {
		reply.PhoneHint = validation.PhoneHint(res.String(entity.KeyExistingPhone))
	}
	return chat.StepResult{Complete: true, UpdateState: res.Data, Reply: reply}
}

// codeIssuer creates a passcode and mails it. The code is never stored in plain text.
type codeIssuer struct {
	codes  *otp.Manager
	sender CodeSender
	now    func() time.Time
}

func (c *codeIssuer) issue(ctx context.Context, state *entity.UserState) (*entity.OtpData, error) {
	code, data, err := c.codes.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}
	email := state.GetString(entity.KeyEmail)
	if err = c.sender.SendOtp(ctx, email, state.GetString(entity.KeyFirstName), code, c.codes.TTL()); err != nil {
		return nil, fmt.Errorf("send code: %w", err)
	}
	return data, nil
}

// openWindow starts a fresh issue window with the code just sent as its first.
func (c *codeIssuer) openWindow(state *entity.UserState) {
	at := c.now()
	state.OtpWindowStart = &at
	state.OtpIssued = 1
}

func (c *codeIssuer) sent(state *entity.UserState, resent bool) entity.OtpSent {
	return entity.OtpSent{
		EmailHint:    mask.Email(state.GetString(entity.KeyEmail)),
		ValidMinutes: int(c.codes.TTL() / time.Minute),
		Resent:       resent,
	}
}

// PhoneStep normalizes the phone number and sends the first passcode.
type PhoneStep struct {
	validator *validation.Phone
	issuer    *codeIssuer
}

func (s *PhoneStep) ID() entity.WorkflowStep { return entity.StepAwaitingPhone }
func (s *PhoneStep) Marker() string          { return entity.MarkPhone }

func (s *PhoneStep) HandleInput(ctx context.Context, state *entity.UserState, input string) chat.StepResult {
	var res entity.ValidationResult
	existing := state.GetString(entity.KeyExistingPhone)
	if state.GetBool(entity.KeyReturningUser) && existing != "" &&
		s.validator.Extract(input) == "" && chat.IsAffirmative(input) {
		res = s.validator.Check(existing, "")
	} else {
		res = s.validator.Validate(ctx, input, state)
	}
	if !res.Success {
		category, _ := res.Metadata[validation.MetaErrorType].(string)
		return chat.StepResult{Reply: entity.PhoneInvalid{Reason: res.ErrorMessage, Category: category}}
	}

	data, err := s.issuer.issue(ctx, state)
	if err != nil {
		return chat.StepResult{Error: err, Reply: entity.OtpSendFailed{}}
	}
	state.ApplyOtp(data)
	s.issuer.openWindow(state)

	return chat.StepResult{
		Complete: true,
		UpdateState: map[string]any{
			entity.KeyPhone:       res.String(entity.KeyPhone),
			entity.KeyCountryCode: res.String(entity.KeyCountryCode),
			entity.KeyRegion:      res.String(entity.KeyRegion),
		},
		Reply: s.issuer.sent(state, false),
	}
}

// OtpStep checks the passcode, resends on request and materializes the user record.
type OtpStep struct {
	validator validation.Validator
	issuer    *codeIssuer
	users     UserRecords
	sender    CodeSender
	maxIssues int
	window    time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func (s *OtpStep) ID() entity.WorkflowStep { return entity.StepAwaitingOTP }
func (s *OtpStep) Marker() string          { return entity.MarkOTP }

// WantsResend recognizes a request for a fresh code.
func WantsResend(input string) bool {
	return chat.HasWord(input, "resend") ||
		chat.HasPhrase(input, "new code", "another code", "send again", "send it again", "send code again")
}

func (s *OtpStep) HandleInput(ctx context.Context, state *entity.UserState, input string) chat.StepResult {
	if otp.Digits(input) == "" && WantsResend(input) {
		return s.resend(ctx, state)
	}

	res := s.validator.Validate(ctx, input, state)
	if !res.Success {
		status, _ := res.Metadata[validation.MetaErrorType].(string)
		remaining, _ := res.Metadata[validation.MetaRemaining].(int)
		reply := entity.OtpInvalid{Reason: res.ErrorMessage, Status: entity.OtpStatus(status), AttemptsRemaining: remaining}
		if entity.OtpStatus(status) != entity.OtpMismatch {
			return chat.StepResult{Reply: reply}
		}
		attempts, _ := res.Metadata[validation.MetaAttempts].(int)
		state.FailedOtpAttempts = attempts
		return chat.StepResult{Persist: true, Reply: reply}
	}

	user, created, err := s.materialize(ctx, state)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	state.ClearOtp()

	if user.Blocked {
		s.log.Warn("blocked user verified, holding", sl.UserID(state.UserID))
		return chat.StepResult{
			Hold:        true,
			UpdateState: map[string]any{entity.KeyUserUUID: user.UUID},
			Reply:       entity.Suspended{},
		}
	}

	first := state.GetString(entity.KeyFirstName)
	if created {
		if err = s.sender.SendWelcome(ctx, state.GetString(entity.KeyEmail), first); err != nil {
			s.log.Warn("welcome mail", sl.UserID(state.UserID), sl.Err(err))
		}
	}

	return chat.StepResult{
		Complete:    true,
		UpdateState: map[string]any{entity.KeyUserUUID: user.UUID},
		Reply:       entity.Verified{FirstName: first, Returning: state.GetBool(entity.KeyReturningUser)},
	}
}

func (s *OtpStep) resend(ctx context.Context, state *entity.UserState) chat.StepResult {
	expired := true
	if state.OtpWindowStart != nil {
		reopens := state.OtpWindowStart.Add(s.window)
		if wait := reopens.Sub(s.now()); wait > 0 {
			expired = false
			if state.OtpIssued >= s.maxIssues {
				return chat.StepResult{Reply: entity.OtpResendLimit{RetryMinutes: int((wait + time.Minute - 1) / time.Minute)}}
			}
		}
	}
	data, err := s.issuer.issue(ctx, state)
	if err != nil {
		return chat.StepResult{Error: err, Reply: entity.OtpSendFailed{}}
	}
	state.ApplyOtp(data)
	if expired {
		s.issuer.openWindow(state)
	} else {
		state.OtpIssued++
	}
	return chat.StepResult{Persist: true, Reply: s.issuer.sent(state, true)}
}

// materialize writes the verified-user record. A returning user keeps their
// existing id; anyone else gets the id derived from the state, so a retried
// verification updates the record it created before. A blocked record is
// returned untouched.
func (s *OtpStep) materialize(ctx context.Context, state *entity.UserState) (*entity.User, bool, error) {
	user := entity.UserFromState(state)
	user.VerifiedAt = s.now()
	user.LastSeen = user.VerifiedAt
	derived := user.UUID

	ids := []string{derived}
	if existing := state.GetString(entity.KeyExistingUUID); existing != "" && existing != derived {
		ids = []string{existing, derived}
	}
	for _, id := range ids {
		record, err := s.users.GetUserByUUID(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("load user: %w", err)
		}
		if record == nil {
			continue
		}
		if record.Blocked {
			return record, false, nil
		}
		user.UUID = record.UUID
		if user.TermsAgreed.IsZero() {
			user.TermsAgreed = record.TermsAgreed
		}
		err = s.users.UpdateUser(ctx, user)
		if errors.Is(err, entity.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		s.log.Info("returning user verified", sl.UserID(state.UserID))
		return user, false, nil
	}

	user.UUID = derived
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user verified", sl.UserID(state.UserID))
	return user, true, nil
}

const assistantPrompt = `You are a helpful assistant for a verified user named %s.
Use the available tools to answer questions about their profile or verification.
Keep replies short. Never reveal full email addresses or phone numbers.`

// ActiveStep answers verified users with the assistant and the tool registry.
type ActiveStep struct {
	assistant Assistant
	tools     ToolRunner
	log       *slog.Logger
}

func (s *ActiveStep) ID() entity.WorkflowStep { return entity.StepActive }
func (s *ActiveStep) Marker() string          { return "" }

func (s *ActiveStep) HandleInput(ctx context.Context, state *entity.UserState, input string) chat.StepResult {
	if s.assistant == nil {
		return chat.StepResult{Reply: entity.AssistantAnswer{}}
	}
	tc := entity.NewToolContext(state)
	var defs []entity.ToolDefinition
	if s.tools != nil {
		defs = s.tools.Definitions()
	}
	exec := func(ctx context.Context, name, arguments string) entity.ToolResult {
		if s.tools == nil {
			return entity.ToolFail("no tools available")
		}
		return s.tools.ExecuteJSON(ctx, name, arguments, tc)
	}

	answer, err := s.assistant.Converse(ctx, fmt.Sprintf(assistantPrompt, tc.FirstName), input, defs, exec)
	if err != nil {
		s.log.Error("assistant", sl.UserID(state.UserID), sl.Err(err))
		return chat.StepResult{Reply: entity.ServiceUnavailable{}}
	}
	if !chat.Safe(answer) {
		return chat.StepResult{Reply: entity.AssistantAnswer{}}
	}
	return chat.StepResult{Reply: entity.AssistantAnswer{Text: answer}}
}
