package main

import (
	"VerifyFlow/ai/gpt"
	"VerifyFlow/bot"
	"VerifyFlow/bot/chat"
	"VerifyFlow/bot/chat/verification"
	"VerifyFlow/impl/core"
	"VerifyFlow/internal/config"
	"VerifyFlow/internal/database"
	"VerifyFlow/internal/http-server/api"
	"VerifyFlow/internal/lib/logger"
	"VerifyFlow/internal/lib/sl"
	"VerifyFlow/internal/otp"
	"VerifyFlow/internal/service/auth"
	"VerifyFlow/internal/service/mail"
	"VerifyFlow/internal/service/secrets"
	"VerifyFlow/internal/tools"
	"VerifyFlow/internal/validation"
	"VerifyFlow/internal/ws"
	"context"
	"flag"
	"log/slog"

	"github.com/joho/godotenv"
)

// storage is what both the Mongo and the in-memory repositories provide.
type storage interface {
	chat.StateRepository
	verification.UserRecords
	validation.UserLookup
	core.Repository
	auth.Repository
	GenerateApiKey(username string) (string, error)
}

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file, empty to read env only")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	_ = godotenv.Load()

	conf := config.MustLoad(*configPath)
	if conf.LogPath != "" {
		*logPath = conf.LogPath
	}
	lg := logger.SetupLogger(conf.Env, *logPath)
	ctx := context.Background()

	lg.Info("starting verifyflow", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)
	authService := auth.NewAuthService(lg, conf.ApiKeys)

	var store storage = repository.NewMemory()
	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		if err = db.EnsureIndexes(ctx); err != nil {
			lg.Error("mongo indexes", sl.Err(err))
		}
		store = db
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	} else {
		lg.Warn("mongo disabled, state is kept in memory")
	}
	mcpKey, err := store.GenerateApiKey("mcp")
	if err != nil {
		lg.Error("generate mcp api key", sl.Err(err))
	} else {
		lg.Info("mcp api key ready", sl.Secret("key", mcpKey))
	}
	authService.SetRepository(store)
	handler.SetRepository(store)
	handler.SetAuthService(authService)

	var secretStore secrets.Store = secrets.NewEnvStore()
	if conf.Secrets.Provider == "gcp" {
		gcp, gcpErr := secrets.NewGCPStore(ctx, conf.Secrets.Project, conf.Secrets.CredentialsFile)
		if gcpErr != nil {
			lg.Error("gcp secret manager", sl.Err(gcpErr))
		} else {
			secretStore = gcp
		}
	}
	salt, _ := secrets.Resolve(ctx, secretStore, conf.Secrets.SaltName, lg)

	codes := otp.NewManager(salt,
		otp.WithTTL(conf.Verification.OtpTTL),
		otp.WithMaxAttempts(conf.Verification.OtpMaxAttempts),
	)

	var sender mail.Sender = mail.NewLogSender(lg)
	if conf.Gmail.Enabled {
		gmail, gmailErr := mail.NewGmail(ctx, conf.Gmail.ClientID, conf.Gmail.ClientSecret, conf.Gmail.RefreshToken, conf.Gmail.Sender)
		if gmailErr != nil {
			lg.Error("gmail sender", sl.Err(gmailErr))
		} else {
			sender = gmail
			lg.Info("gmail sender initialized", sl.Email(conf.Gmail.Sender))
		}
	}
	mailer := mail.NewService(sender, lg)

	stateStore := chat.NewRepositoryStateStore(store)
	registry := tools.NewRegistry(lg)
	tools.RegisterBuiltins(registry, stateStore)
	handler.SetTools(registry)

	deps := verification.Deps{
		Emails:      validation.NewEmail(store, lg),
		Phones:      validation.NewPhone(conf.Verification.DefaultRegion, lg),
		Codes:       codes,
		Sender:      mailer,
		Users:       store,
		Tools:       registry,
		MaxIssues:   conf.Verification.OtpMaxIssues,
		IssueWindow: conf.Verification.OtpIssueWindow,
	}
	var renderer *chat.Renderer
	if conf.OpenAI.ApiKey != "" {
		client := gpt.NewClient(conf.OpenAI.ApiKey, conf.OpenAI.BaseURL, conf.OpenAI.Model, lg)
		deps.Names = validation.NewName(client, lg)
		deps.Assistant = client
		renderer = chat.NewRenderer(client, lg)
		lg.With(
			sl.Secret("openai_key", conf.OpenAI.ApiKey),
			slog.String("model", conf.OpenAI.Model),
		).Info("openai client initialized")
	} else {
		deps.Names = validation.NewName(nil, lg)
		renderer = chat.NewRenderer(nil, lg)
		lg.Warn("openai disabled, using fixed replies")
	}

	hub := ws.NewHub(lg)
	hub.SetHandler(handler)
	go hub.Run(ctx)

	opts := []chat.Option{chat.WithListener(hub)}
	if conf.Redis.Enabled {
		client, redisErr := chat.ConnectRedis(ctx, conf.Redis.URL)
		if redisErr != nil {
			lg.Error("redis lock", sl.Err(redisErr))
		} else {
			opts = append(opts, chat.WithLocker(chat.NewRedisLocker(client, conf.Redis.LockTTL)))
			lg.Info("redis lock initialized", sl.Secret("url", conf.Redis.URL))
		}
	}

	engine := chat.NewEngine(verification.NewWorkflow(deps, lg), stateStore, renderer, lg, opts...)
	handler.SetEngine(engine)

	if conf.Telegram.Enabled {
		tgBot, tgErr := bot.NewTgBot(conf.Telegram.ApiKey, handler, lg)
		if tgErr != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(tgErr))
		} else {
			go func() {
				if err := tgBot.Start(); err != nil {
					lg.Error("telegram bot error", sl.Err(err))
				}
			}()
		}
	}

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
