package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Prompt enhancer providers.
const (
	ProviderService = "service"
	ProviderArk     = "ark"
	ProviderGemini  = "gemini"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Studio   StudioConfig
	Enhancer EnhancerConfig
	AI       AIConfig
	Gemini   GeminiConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	studio, err := loadStudioConfig()
	if err != nil {
		return nil, err
	}

	enhancer, err := loadEnhancerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Log:      loadLogConfig(),
		Studio:   studio,
		Enhancer: enhancer,
		AI:       ai,
		Gemini:   loadGeminiConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig 描述日志配置。
type LogConfig struct {
	AppEnv string
	Level  string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		AppEnv: getEnvOrDefault("APP_ENV", "development"),
		Level:  strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}
}

// StudioConfig 描述图像生成服务与会话相关配置。
type StudioConfig struct {
	APIKey           string
	BaseURL          string
	ModelVersion     string
	RequestTimeout   time.Duration
	DownloadMaxBytes int64
	SessionIdleTTL   time.Duration
}

func loadStudioConfig() (StudioConfig, error) {
	timeout := 60
	if override, err := parseOptionalIntEnv("BRIA_TIMEOUT_SECONDS"); err != nil {
		return StudioConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StudioConfig{}, fmt.Errorf("invalid BRIA_TIMEOUT_SECONDS value %d: must be positive", *override)
		}
		timeout = *override
	}

	maxBytes := int64(20 << 20)
	if override, err := parseOptionalIntEnv("DOWNLOAD_MAX_BYTES"); err != nil {
		return StudioConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StudioConfig{}, fmt.Errorf("invalid DOWNLOAD_MAX_BYTES value %d: must be positive", *override)
		}
		maxBytes = int64(*override)
	}

	idleMinutes := 60
	if override, err := parseOptionalIntEnv("SESSION_IDLE_TTL_MINUTES"); err != nil {
		return StudioConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StudioConfig{}, fmt.Errorf("invalid SESSION_IDLE_TTL_MINUTES value %d: must be positive", *override)
		}
		idleMinutes = *override
	}

	return StudioConfig{
		APIKey:           strings.TrimSpace(os.Getenv("BRIA_API_KEY")),
		BaseURL:          getEnvOrDefault("BRIA_BASE_URL", "https://engine.prod.bria-api.com/v1"),
		ModelVersion:     getEnvOrDefault("BRIA_MODEL_VERSION", "2.2"),
		RequestTimeout:   time.Duration(timeout) * time.Second,
		DownloadMaxBytes: maxBytes,
		SessionIdleTTL:   time.Duration(idleMinutes) * time.Minute,
	}, nil
}

// EnhancerConfig 选择提示词增强的提供方。
type EnhancerConfig struct {
	Provider string
}

func loadEnhancerConfig() (EnhancerConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("PROMPT_PROVIDER", ProviderService))
	switch provider {
	case ProviderService, ProviderArk, ProviderGemini:
		return EnhancerConfig{Provider: provider}, nil
	default:
		return EnhancerConfig{}, fmt.Errorf("invalid PROMPT_PROVIDER value %q", provider)
	}
}

// GeminiConfig 描述 Gemini 提示词增强配置。
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Enabled 表示是否提供了 Gemini 密钥。
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
	}
}

// AIConfig 描述 Ark 大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
