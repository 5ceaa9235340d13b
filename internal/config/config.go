package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/AnshRaj112/vikas-backend/pkg/validator"
)

type Config struct {
	Environment string `mapstructure:"env" validate:"oneof=development production test"`
	Port        string `mapstructure:"port" validate:"required"`

	StudentStore string `mapstructure:"student_store" validate:"oneof=mongo memory"`
	MongoURI     string `mapstructure:"mongo_uri" validate:"required_if=StudentStore mongo"`
	MongoDB      string `mapstructure:"mongo_db"`

	JWTSecret string        `mapstructure:"jwt_secret" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	ProgressBackend string `mapstructure:"progress_backend" validate:"oneof=memory redis postgres"`
	RedisURI        string `mapstructure:"redis_uri" validate:"required_if=ProgressBackend redis"`
	PostgresURI     string `mapstructure:"postgres_uri" validate:"required_if=ProgressBackend postgres"`

	AIProvider       string `mapstructure:"ai_provider" validate:"oneof=openai gemini"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAIModel      string `mapstructure:"openai_model"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	GeminiModel      string `mapstructure:"gemini_model"`
	GeminiBaseURL    string `mapstructure:"gemini_base_url"`
	ChatSystemPrompt string `mapstructure:"chat_system_prompt"`
	ChatRequireAuth  bool   `mapstructure:"chat_require_auth"`
	StreamDoneEvent  bool   `mapstructure:"stream_done_event"`

	StaticDir string `mapstructure:"static_dir"`
	IndexFile string `mapstructure:"index_file"`

	AllowedOriginsRaw string   `mapstructure:"allowed_origins"`
	AllowedOrigins    []string `mapstructure:"-"`
	TrustProxy        bool     `mapstructure:"trust_proxy"`

	CloudinaryName      string `mapstructure:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `mapstructure:"cloudinary_api_key"`
	CloudinaryAPISecret string `mapstructure:"cloudinary_api_secret"`
	AvatarFolder        string `mapstructure:"avatar_folder"`
	DefaultAvatar       string `mapstructure:"default_avatar"`
}

// env names per key; the first one set wins.
var bindings = map[string][]string{
	"env":                   {"ENV"},
	"port":                  {"PORT"},
	"student_store":         {"STUDENT_STORE"},
	"mongo_uri":             {"MONGO_URI", "MONGODB_URI"},
	"mongo_db":              {"MONGO_DB"},
	"jwt_secret":            {"JWT_SECRET"},
	"token_ttl":             {"TOKEN_TTL"},
	"progress_backend":      {"PROGRESS_BACKEND"},
	"redis_uri":             {"REDIS_URI"},
	"postgres_uri":          {"POSTGRES_URI"},
	"ai_provider":           {"AI_PROVIDER"},
	"openai_api_key":        {"OPENAI_API_KEY"},
	"openai_model":          {"OPENAI_MODEL"},
	"openai_base_url":       {"OPENAI_BASE_URL"},
	"gemini_base_url":       {"GEMINI_BASE_URL"},
	"gemini_api_key":        {"GEMINI_API_KEY"},
	"gemini_model":          {"GEMINI_MODEL"},
	"chat_system_prompt":    {"CHAT_SYSTEM_PROMPT"},
	"chat_require_auth":     {"CHAT_REQUIRE_AUTH"},
	"stream_done_event":     {"STREAM_DONE_EVENT"},
	"static_dir":            {"STATIC_DIR"},
	"index_file":            {"INDEX_FILE"},
	"allowed_origins":       {"ALLOWED_ORIGINS"},
	"trust_proxy":           {"TRUST_PROXY"},
	"cloudinary_cloud_name": {"CLOUDINARY_CLOUD_NAME"},
	"cloudinary_api_key":    {"CLOUDINARY_API_KEY"},
	"cloudinary_api_secret": {"CLOUDINARY_API_SECRET"},
	"avatar_folder":         {"AVATAR_FOLDER"},
	"default_avatar":        {"DEFAULT_AVATAR"},
}

const DefaultAvatarURL = "https://static.photos/people/200x200/default"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "5000")
	v.SetDefault("student_store", "mongo")
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("progress_backend", "memory")
	v.SetDefault("ai_provider", "openai")
	v.SetDefault("openai_model", "gpt-3.5-turbo")
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("chat_system_prompt", "You are a helpful study assistant.")
	v.SetDefault("chat_require_auth", false)
	v.SetDefault("stream_done_event", true)
	v.SetDefault("static_dir", "public")
	v.SetDefault("index_file", "index.html")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("avatar_folder", "vikas/avatars")
	v.SetDefault("default_avatar", DefaultAvatarURL)
}

// Load reads configuration from the environment (after godotenv has run).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", strings.Join(envs, "/"), err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.AllowedOrigins = parseOrigins(cfg.AllowedOriginsRaw)
	if cfg.MongoDB == "" {
		cfg.MongoDB = dbNameFromURI(cfg.MongoURI, "vikas")
	}

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("validation failed: token_ttl must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// MaskedMongoURI returns the Mongo URI with any password redacted, for logging.
func (c *Config) MaskedMongoURI() string {
	u, err := url.Parse(c.MongoURI)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

func parseOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// dbNameFromURI extracts the database path segment of a mongodb:// or
// mongodb+srv:// URI, e.g. mongodb://host/name?opts -> name.
func dbNameFromURI(uri, fallback string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return fallback
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return fallback
}
