package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Config struct {
	Port      string
	Env       string
	DB        DB
	Rules     RuleDefaults
	Upload    Upload
	Templates string
	Seed      bool
	CORS      []string
	OpenAI    OpenAI
}

type DB struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// RuleDefaults are the values the rules engine falls back to when the
// corresponding business rule is missing or inactive.
type RuleDefaults struct {
	StoryPointHours    float64
	SprintWeeks        float64
	WorkingDaysPerWeek float64
	HoursPerDay        float64
}

type Upload struct {
	MaxSize int64
	Dir     string
}

type OpenAI struct {
	APIKey string
	Model  string
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnv("APP_PORT", "8080", log),
		Env:  getEnv("ENV", "production", log),
		DB: DB{
			Driver:     getEnv("DB_DRIVER", "sqlite", log),
			Host:       getEnv("DB_HOST", "localhost", log),
			Port:       getEnv("DB_PORT", "5432", log),
			User:       getEnv("DB_USER", "pmo", log),
			Password:   getEnv("DB_PASSWORD", "pmo", log),
			Name:       getEnv("DB_NAME", "pmo", log),
			SSLMode:    getEnv("DB_SSLMODE", "disable", log),
			SQLitePath: getEnv("SQLITE_PATH", "pmo.db", log),
		},
		Rules: RuleDefaults{
			StoryPointHours:    getEnvFloat("DEFAULT_STORY_POINT_HOURS", 13, log),
			SprintWeeks:        getEnvFloat("DEFAULT_SPRINT_WEEKS", 2, log),
			WorkingDaysPerWeek: getEnvFloat("DEFAULT_WORKING_DAYS_PER_WEEK", 5, log),
			HoursPerDay:        getEnvFloat("DEFAULT_HOURS_PER_DAY", 8, log),
		},
		Upload: Upload{
			MaxSize: int64(getEnvFloat("MAX_UPLOAD_SIZE", 52428800, log)),
			Dir:     getEnv("UPLOAD_DIR", "uploads", log),
		},
		Templates: getEnv("TEMPLATES_DIR", "templates", log),
		Seed:      getEnvBool("SEED_ON_STARTUP", true, log),
		CORS:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001", log)),
		OpenAI: OpenAI{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", "gpt-4-turbo-preview", log),
		},
	}
}

// DefaultRuleDefaults mirrors the values Load uses when nothing is set.
func DefaultRuleDefaults() RuleDefaults {
	return RuleDefaults{
		StoryPointHours:    13,
		SprintWeeks:        2,
		WorkingDaysPerWeek: 5,
		HoursPerDay:        8,
	}
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func getEnv(key, defaultVal string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	if defaultVal != "" {
		log.Warn("environment variable not set, using default",
			zap.String("key", key),
			zap.String("default", defaultVal),
		)
		return defaultVal
	}

	log.Error("required environment variable is not set and has no default",
		zap.String("key", key),
	)
	panic("missing required environment variable: " + key)
}

func getEnvFloat(key string, defaultVal float64, log *zap.Logger) float64 {
	raw := getEnv(key, strconv.FormatFloat(defaultVal, 'f', -1, 64), log)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		log.Warn("invalid numeric environment variable, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Float64("default", defaultVal),
		)
		return defaultVal
	}
	return v
}

func getEnvBool(key string, defaultVal bool, log *zap.Logger) bool {
	raw := getEnv(key, strconv.FormatBool(defaultVal), log)
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Warn("invalid boolean environment variable, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Bool("default", defaultVal),
		)
		return defaultVal
	}
	return v
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
