package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// SettingsName is the base name of the optional tool settings file.
const SettingsName = "gopro-telemetry.settings"

// EnvPrefix prefixes environment overrides, e.g. GOPRO_TELEMETRY_TOOLS_FFMPEG.
const EnvPrefix = "GOPRO_TELEMETRY"

// Sync strategies.
const (
	SyncDuration = "duration"
	SyncFrames   = "frames"
)

// Settings holds tool locations and rendering defaults shared by all plugins.
type Settings struct {
	Tools   ToolSettings   `mapstructure:"tools"`
	Render  RenderSettings `mapstructure:"render"`
	Sync    SyncSettings   `mapstructure:"sync"`
	Journal JournalConfig  `mapstructure:"journal"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Report  ReportConfig   `mapstructure:"report"`
}

// ToolSettings names the external executables.
type ToolSettings struct {
	FFmpeg  string `mapstructure:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe"`
	Decoder string `mapstructure:"decoder"`
}

// RenderSettings are the text style defaults for overlay plugins.
type RenderSettings struct {
	FontFile    string `mapstructure:"fontFile"`
	FontSize    int    `mapstructure:"fontSize"`
	FontColor   string `mapstructure:"fontColor"`
	BorderWidth int    `mapstructure:"borderWidth"`
	BorderColor string `mapstructure:"borderColor"`
	Margin      int    `mapstructure:"margin"`
	// SkipLastCue leaves the final sample out of generated cue scripts.
	// Some encoder builds crash when a cue ends exactly at end of stream.
	SkipLastCue bool `mapstructure:"skipLastCue"`
}

// SyncSettings selects how telemetry is spread over the video timeline.
type SyncSettings struct {
	Strategy string `mapstructure:"strategy"`
}

// JournalConfig holds the optional SQLite run journal settings.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds the optional Prometheus textfile settings.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// ReportConfig holds the optional HTML report settings.
type ReportConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tools.ffmpeg", "ffmpeg")
	v.SetDefault("tools.ffprobe", "ffprobe")
	v.SetDefault("tools.decoder", "gopro2json")

	v.SetDefault("render.fontFile", "/usr/share/fonts/TTF/DejaVuSans.ttf")
	v.SetDefault("render.fontSize", 72)
	v.SetDefault("render.fontColor", "0xFFFFFF")
	v.SetDefault("render.borderWidth", 2)
	v.SetDefault("render.borderColor", "0x000000")
	v.SetDefault("render.margin", 10)
	v.SetDefault("render.skipLastCue", true)

	v.SetDefault("sync.strategy", SyncDuration)

	v.SetDefault("journal.path", "")
	v.SetDefault("metrics.file", "")
	v.SetDefault("report.enabled", false)
}

// LoadSettings reads tool settings. An explicit path must exist; without one
// the working directory and $HOME/.config/gopro-telemetry are searched and a
// missing file just means defaults. Environment variables override both.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(SettingsName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/gopro-telemetry")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that the settings values are usable.
func (s Settings) Validate() error {
	if s.Render.FontSize <= 0 {
		return fmt.Errorf("render.fontSize must be positive, got %d", s.Render.FontSize)
	}
	if s.Render.Margin < 0 {
		return fmt.Errorf("render.margin must be non-negative, got %d", s.Render.Margin)
	}
	switch s.Sync.Strategy {
	case SyncDuration, SyncFrames:
	default:
		return fmt.Errorf("sync.strategy must be %q or %q, got %q", SyncDuration, SyncFrames, s.Sync.Strategy)
	}
	return nil
}
