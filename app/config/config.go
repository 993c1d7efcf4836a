package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        Log        `yaml:"log"`
	Server     Server     `yaml:"server"`
	OpenAI     OpenAI     `yaml:"openai"`
	ElevenLabs ElevenLabs `yaml:"elevenlabs"`
	Call       Call       `yaml:"call"`
}

type OpenAI struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Chat completion model
	ChatModel string `yaml:"chat_model" example:"gpt-4o-mini"`
	// Speech-to-text model
	TranscribeModel string `yaml:"transcribe_model" example:"whisper-1"`
}

type ElevenLabs struct {
	// ElevenLabs base url
	BaseURL string `yaml:"base_url" example:"https://api.elevenlabs.io"`
	// ElevenLabs API key
	Token string `yaml:"token" example:"sk_abc123def456ghi789jkl012mno345pqr678stu901" validate:"required"`
	// Default voice id
	VoiceID string `yaml:"voice_id" example:"EXAVITQu4vr4xnSDxMaL" validate:"required"`
	// TTS model id
	ModelID string `yaml:"model_id" example:"eleven_multilingual_v2"`
	// Voice stability, 0..1
	Stability float64 `yaml:"stability" example:"0.5"`
	// Voice similarity boost, 0..1
	Similarity float64 `yaml:"similarity" example:"0.75"`
}

type Server struct {
	// Listen address of the browser-facing proxy
	Listen string `yaml:"listen" example:":8000"`
	// Allowed CORS origins, comma separated
	CorsOrigins string `yaml:"cors_origins" example:"*"`
}

type Call struct {
	// Hard wall-clock budget for a call; looping steps jump to the closing step once exceeded
	MaxDuration time.Duration `yaml:"max_duration" example:"5m"`
	// Duration of the ringtone played before the intro
	RingtoneDuration time.Duration `yaml:"ringtone_duration" example:"2s"`
	// Cadence of background session snapshots
	SnapshotInterval time.Duration `yaml:"snapshot_interval" example:"30s"`
}

type Log struct {
	// Minimum log level: debug, info, warn or error
	Level string `yaml:"level" example:"debug"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.OpenAI.Token == "" {
		result.OpenAI.Token = os.Getenv("OPENAI_API_KEY")
	}
	if result.ElevenLabs.Token == "" {
		result.ElevenLabs.Token = os.Getenv("ELEVENLABS_API_KEY")
	}

	result.fillDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func (c *Config) fillDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Server.CorsOrigins == "" {
		c.Server.CorsOrigins = "*"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.TranscribeModel == "" {
		c.OpenAI.TranscribeModel = "whisper-1"
	}
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = "https://api.elevenlabs.io"
	}
	if c.ElevenLabs.ModelID == "" {
		c.ElevenLabs.ModelID = "eleven_multilingual_v2"
	}
	if c.ElevenLabs.Stability == 0 {
		c.ElevenLabs.Stability = 0.5
	}
	if c.ElevenLabs.Similarity == 0 {
		c.ElevenLabs.Similarity = 0.75
	}
	if c.Call.MaxDuration == 0 {
		c.Call.MaxDuration = 5 * time.Minute
	}
	if c.Call.RingtoneDuration == 0 {
		c.Call.RingtoneDuration = 2 * time.Second
	}
	if c.Call.SnapshotInterval == 0 {
		c.Call.SnapshotInterval = 30 * time.Second
	}
}
