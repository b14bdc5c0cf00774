package verification

import (
	"context"
	"log/slog"
	"time"

	"VerifyFlow/ai/gpt"
	"VerifyFlow/bot/chat"
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
	"VerifyFlow/internal/otp"
	"VerifyFlow/internal/validation"
)

const (
	// DefaultMaxIssues caps codes sent within one issue window, the first one included.
	DefaultMaxIssues = 3
	// DefaultIssueWindow is how long the cap holds after the first code of the window.
	DefaultIssueWindow = time.Hour
)

// UserRecords stores the verified-user record.
type UserRecords interface {
	CreateUser(ctx context.Context, user *entity.User) error
	UpdateUser(ctx context.Context, user *entity.User) error
	GetUserByUUID(ctx context.Context, uuid string) (*entity.User, error)
}

// CodeSender delivers passcodes and the welcome mail.
type CodeSender interface {
	SendOtp(ctx context.Context, to, firstName, code string, ttl time.Duration) error
	SendWelcome(ctx context.Context, to, firstName string) error
}

// Assistant answers verified users and may call tools.
type Assistant interface {
	Converse(ctx context.Context, system, message string, defs []entity.ToolDefinition, exec gpt.ToolExecutor) (string, error)
}

// ToolRunner exposes registered tools to the assistant.
type ToolRunner interface {
	Definitions() []entity.ToolDefinition
	ExecuteJSON(ctx context.Context, name, raw string, tc entity.ToolContext) entity.ToolResult
}

type Deps struct {
	Names     validation.Validator
	Emails    validation.Validator
	Phones    *validation.Phone
	Codes     *otp.Manager
	Sender    CodeSender
	Users     UserRecords
	Assistant Assistant
	Tools     ToolRunner
	MaxIssues   int
	IssueWindow time.Duration
	Now         func() time.Time
}

// Workflow is the terms, name, email, phone, passcode sequence followed by the assistant.
type Workflow struct {
	steps map[entity.WorkflowStep]chat.Step
}

func NewWorkflow(deps Deps, log *slog.Logger) *Workflow {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxIssues <= 0 {
		deps.MaxIssues = DefaultMaxIssues
	}
	if deps.IssueWindow <= 0 {
		deps.IssueWindow = DefaultIssueWindow
	}
	log = log.With(sl.Module("chat.verification"))

	issuer := &codeIssuer{codes: deps.Codes, sender: deps.Sender, now: deps.Now}

	w := &Workflow{steps: make(map[entity.WorkflowStep]chat.Step)}
	w.add(&TermsStep{now: deps.Now})
	w.add(&NameStep{validator: deps.Names})
	w.add(&EmailStep{validator: deps.Emails})
	w.add(&PhoneStep{validator: deps.Phones, issuer: issuer})
	w.add(&OtpStep{
		validator: validation.NewOtp(deps.Codes),
		issuer:    issuer,
		users:     deps.Users,
		sender:    deps.Sender,
		maxIssues: deps.MaxIssues,
		window:    deps.IssueWindow,
		now:       deps.Now,
		log:       log,
	})
	w.add(&ActiveStep{assistant: deps.Assistant, tools: deps.Tools, log: log})
	return w
}

func (w *Workflow) add(s chat.Step) {
	w.steps[s.ID()] = s
}

func (w *Workflow) InitialStep() entity.WorkflowStep { return entity.StepAwaitingTerms }

func (w *Workflow) GetStep(id entity.WorkflowStep) (chat.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}
