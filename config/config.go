package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// KillSwitchKey is the configuration key for the emergency AI disable.
const KillSwitchKey = "AI_KILL_SWITCH"

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisQuotaDB  int    `mapstructure:"REDIS_QUOTA_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// AI configuration.
	GeminiAPIKey      string         `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string         `mapstructure:"GEMINI_MODEL"`
	AIKillSwitch      bool           `mapstructure:"AI_KILL_SWITCH"`
	AIDailyDraftQuota int            `mapstructure:"AI_DAILY_DRAFT_QUOTA"`
	AIChannelQuotas   map[string]int `mapstructure:"AI_CHANNEL_QUOTAS"`
	ClassifyTimeoutMs int            `mapstructure:"CLASSIFY_TIMEOUT_MS"`
	DraftTimeoutMs    int            `mapstructure:"DRAFT_TIMEOUT_MS"`

	BusinessName string `mapstructure:"BUSINESS_NAME"`

	// Proxies whose X-Forwarded-For is trusted. Empty trusts none.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	// Booking lifecycle.
	ProposalTTLHours   int `mapstructure:"PROPOSAL_TTL_HOURS"`
	ExpirySweepMinutes int `mapstructure:"EXPIRY_SWEEP_MINUTES"`

	// Channels.
	StripeWebhookSecret string  `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	WhatsAppVerifyToken string  `mapstructure:"WHATSAPP_VERIFY_TOKEN"`
	OutboundSendsPerSec float64 `mapstructure:"OUTBOUND_SENDS_PER_SEC"`
	OutboundBurst       int     `mapstructure:"OUTBOUND_BURST"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bookdesk")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_QUOTA_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault(KillSwitchKey, false)
	viper.SetDefault("AI_DAILY_DRAFT_QUOTA", 200)
	viper.SetDefault("AI_CHANNEL_QUOTAS", map[string]int{})
	viper.SetDefault("CLASSIFY_TIMEOUT_MS", 2500)
	viper.SetDefault("DRAFT_TIMEOUT_MS", 6000)
	viper.SetDefault("BUSINESS_NAME", "")
	viper.SetDefault("TRUSTED_PROXIES", []string{})
	viper.SetDefault("PROPOSAL_TTL_HOURS", 48)
	viper.SetDefault("EXPIRY_SWEEP_MINUTES", 15)
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("WHATSAPP_VERIFY_TOKEN", "")
	viper.SetDefault("OUTBOUND_SENDS_PER_SEC", 20.0)
	viper.SetDefault("OUTBOUND_BURST", 40)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	} else {
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("Config file changed: %s (AI kill switch now %v)", e.Name, viper.GetBool(KillSwitchKey))
		})
		viper.WatchConfig()
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// KillSwitchEngaged re-reads the kill switch on every call. The config file is
// watched, so editing AI_KILL_SWITCH there takes effect without a restart. An
// environment variable wins over the file and is fixed for the process lifetime.
func KillSwitchEngaged() bool {
	return viper.GetBool(KillSwitchKey)
}
