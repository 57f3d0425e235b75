package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Socket   string         `yaml:"socket"`
	Proxy    string         `yaml:"proxy"`
	Log      LogConfig      `yaml:"log"`
	Audio    AudioConfig    `yaml:"audio"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	LLM      LLMConfig      `yaml:"llm"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	TTS      TTSConfig      `yaml:"tts"`
	Weather  WeatherConfig  `yaml:"weather"`
	Email    EmailConfig    `yaml:"email"`
	Calendar CalendarConfig `yaml:"calendar"`
	Code     CodeConfig     `yaml:"code"`
	Bus      BusConfig      `yaml:"bus"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AudioConfig struct {
	SampleRate     int           `yaml:"sample_rate"`
	MaxDuration    time.Duration `yaml:"max_duration"`
	ConfirmWindow  time.Duration `yaml:"confirm_window"`
	TempDir        string        `yaml:"temp_dir"`
	Beep           string        `yaml:"beep"`
	DesktopNotify  bool          `yaml:"desktop_notify"`
	ConfirmRetries int           `yaml:"confirm_retries"`
}

type WhisperConfig struct {
	Engine   string `yaml:"engine"` // "cli" or "native"
	Bin      string `yaml:"bin"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads"`
}

// LLMConfig describes the remote OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	ProbeAddr string        `yaml:"probe_addr"`
}

type OllamaConfig struct {
	Bin     string        `yaml:"bin"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type TTSConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Command    []string `yaml:"command"`
	Duck       bool     `yaml:"duck"`
	DuckFactor float64  `yaml:"duck_factor"`
	SelfNames  []string `yaml:"self_names"`
}

type WeatherConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	DefaultLocation string `yaml:"default_location"`
}

type EmailConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	From     string            `yaml:"from"`
	Contacts map[string]string `yaml:"contacts"`
}

type CalendarConfig struct {
	Credentials string `yaml:"credentials"`
	Token       string `yaml:"token"`
	CalendarID  string `yaml:"calendar_id"`
	TimeZone    string `yaml:"time_zone"`
}

type CodeConfig struct {
	Workspace string   `yaml:"workspace"`
	Editor    []string `yaml:"editor"`
	Python    string   `yaml:"python"`
}

type BusConfig struct {
	URL       string        `yaml:"url"`
	Reconnect time.Duration `yaml:"reconnect"`
}

// Load reads the YAML file at path, expanding ${VAR} references. A missing file
// is not an error: defaults and environment variables are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}

	fill(&c.LLM.APIKey, "GROQ_API_KEY")
	fill(&c.LLM.APIKey, "OPENAI_API_KEY")
	fill(&c.LLM.BaseURL, "LLM_BASE_URL")
	fill(&c.LLM.Model, "LLM_MODEL")
	fill(&c.Ollama.Model, "OLLAMA_MODEL")
	fill(&c.Whisper.Bin, "WHISPER_BIN")
	fill(&c.Whisper.Model, "WHISPER_MODEL")
	fill(&c.Weather.APIKey, "WEATHER_API_KEY")
	fill(&c.Email.Username, "EMAIL")
	fill(&c.Email.Password, "EMAIL_PASSWORD")
	fill(&c.Bus.URL, "BUS_URL")
}

func (c *Config) setDefaults() {
	if c.Socket == "" {
		c.Socket = filepath.Join(os.TempDir(), "voxdesk.sock")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.MaxDuration == 0 {
		c.Audio.MaxDuration = 10 * time.Second
	}
	if c.Audio.ConfirmWindow == 0 {
		c.Audio.ConfirmWindow = 4 * time.Second
	}
	if c.Audio.TempDir == "" {
		c.Audio.TempDir = os.TempDir()
	}
	if c.Audio.ConfirmRetries == 0 {
		c.Audio.ConfirmRetries = 1
	}

	if c.Whisper.Engine == "" {
		c.Whisper.Engine = "cli"
	}
	if c.Whisper.Bin == "" {
		c.Whisper.Bin = "whisper-cli"
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "models/ggml-base.en.bin"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.1-8b-instant"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 15 * time.Second
	}
	if c.LLM.ProbeAddr == "" {
		c.LLM.ProbeAddr = "8.8.8.8:53"
	}

	if c.Ollama.Bin == "" {
		c.Ollama.Bin = "ollama"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "mistral"
	}
	if c.Ollama.Timeout == 0 {
		c.Ollama.Timeout = 60 * time.Second
	}

	if c.TTS.DuckFactor == 0 {
		c.TTS.DuckFactor = 0.3
	}

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "http://api.weatherapi.com/v1"
	}
	if c.Weather.DefaultLocation == "" {
		c.Weather.DefaultLocation = "Vizag"
	}

	if c.Email.Host == "" {
		c.Email.Host = "smtp.gmail.com"
	}
	if c.Email.Port == 0 {
		c.Email.Port = 587
	}
	if c.Email.From == "" {
		c.Email.From = c.Email.Username
	}

	if c.Bus.Reconnect == 0 {
		c.Bus.Reconnect = 2 * time.Second
	}

	if c.Calendar.Credentials == "" {
		c.Calendar.Credentials = "config/googlecredentials.json"
	}
	if c.Calendar.Token == "" {
		c.Calendar.Token = "config/token.json"
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = "primary"
	}

	if c.Code.Workspace == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		c.Code.Workspace = filepath.Join(home, "voxdesk-workspace")
	}
	if len(c.Code.Editor) == 0 {
		c.Code.Editor = []string{"code"}
	}
	if c.Code.Python == "" {
		c.Code.Python = "python3"
	}
}
