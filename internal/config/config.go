package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
	"time"
)

type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	LogPath string `yaml:"log_path" env:"LOG_PATH" env-default:""`
	Listen  struct {
		BindIP  string        `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string        `yaml:"port" env:"PORT" env-default:"9100"`
		Timeout time.Duration `yaml:"timeout" env-default:"30s"`
	} `yaml:"listen"`
	ApiKeys []string `yaml:"api_keys" env:"API_KEYS" env-separator:","`
	Mongo   struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"verifyflow"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		URL     string        `yaml:"url" env:"REDIS_URL" env-default:"127.0.0.1:6379"`
		LockTTL time.Duration `yaml:"lock_ttl" env-default:"30s"`
	} `yaml:"redis"`
	OpenAI struct {
		ApiKey  string `yaml:"api_key" env:"OPENAI_API_KEY" env-default:""`
		Model   string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
		BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:""`
	} `yaml:"openai"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Gmail struct {
		Enabled      bool   `yaml:"enabled" env-default:"false"`
		ClientID     string `yaml:"client_id" env:"GMAIL_CLIENT_ID" env-default:""`
		ClientSecret string `yaml:"client_secret" env:"GMAIL_CLIENT_SECRET" env-default:""`
		RefreshToken string `yaml:"refresh_token" env:"GMAIL_REFRESH_TOKEN" env-default:""`
		Sender       string `yaml:"sender" env:"GMAIL_SENDER" env-default:""`
	} `yaml:"gmail"`
	Secrets struct {
		Provider        string `yaml:"provider" env:"SECRETS_PROVIDER" env-default:"env"`
		Project         string `yaml:"project" env:"GCP_PROJECT" env-default:""`
		CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:""`
		SaltName        string `yaml:"salt_name" env-default:"otp-salt"`
	} `yaml:"secrets"`
	Verification struct {
		DefaultRegion  string        `yaml:"default_region" env:"DEFAULT_REGION" env-default:"US"`
		OtpTTL         time.Duration `yaml:"otp_ttl" env-default:"5m"`
		OtpMaxAttempts int           `yaml:"otp_max_attempts" env-default:"3"`
		OtpMaxIssues   int           `yaml:"otp_max_issues" env-default:"3"`
		OtpIssueWindow time.Duration `yaml:"otp_issue_window" env-default:"1h"`
	} `yaml:"verification"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if path == "" {
			err = cleanenv.ReadEnv(instance)
		} else {
			err = cleanenv.ReadConfig(path, instance)
		}
		if err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

// Load reads configuration without the process-wide cache.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(conf); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
		return conf, nil
	}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return conf, nil
}
