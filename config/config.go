package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Script    ScriptConfig    `yaml:"script"`
	Speech    SpeechConfig    `yaml:"speech"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Video     VideoConfig     `yaml:"video"`
	Compose   ComposeConfig   `yaml:"compose"`
	Publish   PublishConfig   `yaml:"publish"`
	Poll      PollConfig      `yaml:"poll"`
	Paths     PathsConfig     `yaml:"paths"`

	// Secrets come from the environment, captured once at load time so
	// stage logic never reads env itself.
	Secrets Secrets `yaml:"-"`
}

type ScrapeConfig struct {
	TimeoutSec int      `yaml:"timeout_sec"`
	UserAgent  string   `yaml:"user_agent"`
	MaxImages  int      `yaml:"max_images"`
	URLPattern []string `yaml:"url_patterns"`
}

type ScriptConfig struct {
	GeminiModel       string  `yaml:"gemini_model"`
	Temperature       float64 `yaml:"temperature"`
	TargetDurationSec int     `yaml:"target_duration_sec"`
	HashtagCount      int     `yaml:"hashtag_count"`
}

type SpeechConfig struct {
	Model      string `yaml:"model"`
	Voice      string `yaml:"voice"`
	Format     string `yaml:"format"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxRetries int    `yaml:"max_retries"`
}

type SubtitlesConfig struct {
	MaxCharsPerCue int     `yaml:"max_chars_per_cue"`
	FontSize       int     `yaml:"font_size"`
	MarginBottom   int     `yaml:"margin_bottom"`
	MinCueSec      float64 `yaml:"min_cue_sec"`
}

type VideoConfig struct {
	APIBaseURL    string `yaml:"api_base_url"`
	AspectRatio   string `yaml:"aspect_ratio"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	DownloadRetry int    `yaml:"download_retry"`
}

type ComposeConfig struct {
	FPS          int    `yaml:"fps"`
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type PublishConfig struct {
	Instagram InstagramConfig `yaml:"instagram"`
	YouTube   YouTubeConfig   `yaml:"youtube"`
}

type InstagramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	GraphBaseURL  string `yaml:"graph_base_url"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type YouTubeConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CategoryID        string `yaml:"category_id"`
	Visibility        string `yaml:"visibility"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	DefaultLanguage   string `yaml:"default_language"`
}

type PollConfig struct {
	IntervalSec int `yaml:"interval_sec"`
	MaxWaitSec  int `yaml:"max_wait_sec"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Logs   string `yaml:"logs"`
}

// Secrets holds all API credentials, read from env once
type Secrets struct {
	GeminiAPIKey         string
	OpenAIAPIKey         string
	RunwayAPIKey         string
	InstagramAccessToken string
	InstagramUserID      string
	YouTubeClientID      string
	YouTubeClientSecret  string
	YouTubeRefreshToken  string
}

// Load reads config.yaml and captures env secrets into one Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.Secrets = Secrets{
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		RunwayAPIKey:         os.Getenv("RUNWAY_API_KEY"),
		InstagramAccessToken: os.Getenv("INSTAGRAM_ACCESS_TOKEN"),
		InstagramUserID:      os.Getenv("INSTAGRAM_USER_ID"),
		YouTubeClientID:      os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret:  os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeRefreshToken:  os.Getenv("YOUTUBE_REFRESH_TOKEN"),
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scrape.TimeoutSec == 0 {
		c.Scrape.TimeoutSec = 15
	}
	if c.Scrape.MaxImages == 0 {
		c.Scrape.MaxImages = 5
	}
	if c.Script.TargetDurationSec == 0 {
		c.Script.TargetDurationSec = 30
	}
	if c.Speech.TimeoutSec == 0 {
		c.Speech.TimeoutSec = 60
	}
	if c.Speech.MaxRetries == 0 {
		c.Speech.MaxRetries = 3
	}
	if c.Compose.FPS == 0 {
		c.Compose.FPS = 24
	}
	if c.Compose.VideoCodec == "" {
		c.Compose.VideoCodec = "libx264"
	}
	if c.Compose.AudioCodec == "" {
		c.Compose.AudioCodec = "aac"
	}
	if c.Compose.AudioBitrate == "" {
		c.Compose.AudioBitrate = "192k"
	}
	if c.Poll.IntervalSec == 0 {
		c.Poll.IntervalSec = 10
	}
	if c.Poll.MaxWaitSec == 0 {
		c.Poll.MaxWaitSec = 300
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}

// Validate checks that the credentials required to run all stages are set
func (c *Config) Validate() error {
	required := map[string]string{
		"GEMINI_API_KEY": c.Secrets.GeminiAPIKey,
		"OPENAI_API_KEY": c.Secrets.OpenAIAPIKey,
	}
	if c.Publish.Instagram.Enabled {
		required["INSTAGRAM_ACCESS_TOKEN"] = c.Secrets.InstagramAccessToken
		required["INSTAGRAM_USER_ID"] = c.Secrets.InstagramUserID
	}
	if c.Publish.YouTube.Enabled {
		required["YOUTUBE_CLIENT_ID"] = c.Secrets.YouTubeClientID
		required["YOUTUBE_CLIENT_SECRET"] = c.Secrets.YouTubeClientSecret
		required["YOUTUBE_REFRESH_TOKEN"] = c.Secrets.YouTubeRefreshToken
	}
	for name, val := range required {
		if val == "" {
			return fmt.Errorf("%s not set", name)
		}
	}
	return nil
}
