package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	PublicBaseURL     string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	GitHubToken       string
	GitHubTargetOwner string
	ResendAPIKey      string
	EmailFrom         string
	AnalyticsCacheTTL time.Duration
	AIProvider        string
	AIModel           string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	DockerHost        string
	SuiteMemoryMB     int
	SuiteCPUShares    int
	TestRunnerEnabled bool
	SeedEnabled       bool
	SeedToken         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TALENTGATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "TalentGate API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("email.from", "TalentGate <assessments@talentgate.dev>")
	v.SetDefault("suite.memory_mb", 512)
	v.SetDefault("suite.cpu_shares", 512)

	ttlString := v.GetString("analytics.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		PublicBaseURL:     strings.TrimRight(v.GetString("app.base_url"), "/"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		GitHubToken:       v.GetString("github.token"),
		GitHubTargetOwner: v.GetString("github.target_owner"),
		ResendAPIKey:      v.GetString("resend.api_key"),
		EmailFrom:         v.GetString("email.from"),
		AnalyticsCacheTTL: ttl,
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		AIModel:           v.GetString("ai.model"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		AnthropicAPIKey:   v.GetString("anthropic_api_key"),
		DockerHost:        v.GetString("docker_host"),
		SuiteMemoryMB:     v.GetInt("suite.memory_mb"),
		SuiteCPUShares:    v.GetInt("suite.cpu_shares"),
		TestRunnerEnabled: v.GetBool("suite.enabled"),
		SeedEnabled:       v.GetBool("seed.enabled"),
		SeedToken:         v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.GitHubToken == "" || cfg.GitHubTargetOwner == "" {
		return Config{}, fmt.Errorf("github token and target owner must be provided")
	}

	if cfg.SuiteMemoryMB <= 0 {
		cfg.SuiteMemoryMB = 512
	}
	if cfg.SuiteCPUShares <= 0 {
		cfg.SuiteCPUShares = 512
	}

	return cfg, nil
}
