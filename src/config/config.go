package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"screen-cleave/src/input"
	"screen-cleave/src/output"
	"screen-cleave/src/render"
	"screen-cleave/src/screenshot"
	"screen-cleave/src/selection"
)

const (
	EnvFileEnvVar    = "CLEAVE_ENV"
	SelectionModeEnv = "SELECTION_MODE"
	DefaultSleep     = 100 * time.Millisecond
)

// LoadOptions carries command-line values. They win over .env and the
// environment. Nil pointers and empty strings mean "not given".
type LoadOptions struct {
	OutputDir      string
	Format         string
	Filename       string
	ModeOverride   string
	FilterOverride string
	Region         string
	Monitor        *int
	Scale          *float64
	Delay          time.Duration
	Hotkey         *string
	Persistent     bool
	Sleep          *time.Duration
	MonitorList    bool
}

type Config struct {
	EnableFileLogging bool
	TrayEnabled       bool

	AspectLockKey        string
	CancelKey            string
	ConfirmKeys          []string
	FreezeKey            string
	ConfirmOnDoubleClick bool
	HandleMargin         float64
	BorderWidth          float64
	MagnifierEnabled     bool
	MagnifierSize        float64
	MagnifierZoom        int
	Mode                 string

	OutputDir string
	Format    string
	Filename  string
	Scale     float64
	Filter    string

	Monitor     int
	Region      string
	Delay       time.Duration
	MonitorList bool

	Hotkey     string
	Persistent bool
	Sleep      time.Duration

	scaleSet  bool
	hotkeySet bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) command-line values in opts
	// 2) .env in the executable directory, or the file named by CLEAVE_ENV
	// 3) process environment
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		EnableFileLogging:    getBool("ENABLE_FILE_LOGGING", false),
		TrayEnabled:          getBool("TRAY_ENABLED", true),
		AspectLockKey:        getEnvWithDefault("ASPECT_LOCK_KEY", "alt"),
		CancelKey:            getEnvWithDefault("CANCEL_KEY", "escape"),
		ConfirmKeys:          input.ParseKeyList(getEnvWithDefault("CONFIRM_KEYS", "enter,space")),
		FreezeKey:            getEnvWithDefault("FREEZE_KEY", "f"),
		ConfirmOnDoubleClick: getBool("CONFIRM_ON_DOUBLE_CLICK", true),
		HandleMargin:         getFloat("HANDLE_MARGIN", 8),
		BorderWidth:          getFloat("BORDER_WIDTH", 2),
		MagnifierEnabled:     getBool("MAGNIFIER_ENABLED", true),
		MagnifierSize:        getFloat("MAGNIFIER_SIZE", 160),
		MagnifierZoom:        getInt("MAGNIFIER_ZOOM", 8),
		Mode:                 resolveMode(os.Getenv(SelectionModeEnv)),
		Filter:               getEnvWithDefault("FILTER", "Nearest"),
		Monitor:              -1,
		Sleep:                DefaultSleep,
	}

	if v := strings.TrimSpace(opts.ModeOverride); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(opts.FilterOverride); v != "" {
		cfg.Filter = v
	}
	cfg.OutputDir = strings.TrimSpace(opts.OutputDir)
	cfg.Format = strings.TrimSpace(opts.Format)
	cfg.Filename = strings.TrimSpace(opts.Filename)
	cfg.Region = strings.TrimSpace(opts.Region)
	if opts.Monitor != nil {
		cfg.Monitor = *opts.Monitor
	}
	if opts.Scale != nil {
		cfg.Scale = *opts.Scale
		cfg.scaleSet = true
	}
	cfg.Delay = opts.Delay
	if opts.Hotkey != nil {
		cfg.Hotkey = strings.TrimSpace(*opts.Hotkey)
		cfg.hotkeySet = true
	}
	cfg.Persistent = opts.Persistent
	if opts.Sleep != nil {
		cfg.Sleep = *opts.Sleep
	}
	cfg.MonitorList = opts.MonitorList

	return cfg, nil
}

// Validate rejects option combinations that cannot work together.
func (c *Config) Validate() error {
	if c.MonitorList && (c.OutputDir != "" || c.Format != "" || c.Filename != "" ||
		c.Region != "" || c.scaleSet || c.hotkeySet) {
		return errors.New("monitor list option cannot be used with other options")
	}
	if c.scaleSet && c.Scale <= 0 {
		return errors.New("scale factor must be greater than 0")
	}
	if c.Region != "" {
		if _, err := screenshot.ParseRegion(c.Region); err != nil {
			return err
		}
	}
	if (c.Format != "" || c.Filename != "") && c.OutputDir == "" {
		return errors.New("output format and filename are only used when output directory is provided")
	}
	if c.Format != "" && output.ParseFormat(c.Format) == "" {
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if _, err := output.ParseFilter(c.Filter); err != nil {
		return err
	}
	if !validMode(c.Mode) {
		return fmt.Errorf("unknown selection mode %q", c.Mode)
	}
	if c.Persistent && !c.hotkeySet {
		return errors.New("persistent daemon mode can only be used with daemon hotkey")
	}
	if c.hotkeySet && c.Delay > 0 {
		return errors.New("delay cannot be used with daemon hotkey")
	}
	if c.hotkeySet && c.Hotkey == "" {
		return errors.New("hotkey cannot be empty")
	}
	if c.Monitor < -1 {
		return fmt.Errorf("invalid monitor index %d", c.Monitor)
	}
	if c.MagnifierZoom < 1 {
		return fmt.Errorf("magnifier zoom must be at least 1, got %d", c.MagnifierZoom)
	}
	return nil
}

// Daemon reports whether the configuration asks for hotkey daemon mode.
func (c *Config) Daemon() bool { return c.hotkeySet }

// NudgeMode returns the configured default arrow-key mode.
func (c *Config) NudgeMode() selection.NudgeMode {
	return selection.ParseNudgeMode(c.Mode)
}

// Target returns where confirmed captures go.
func (c *Config) Target() output.Target {
	if c.OutputDir == "" {
		return output.Target{Kind: output.Clipboard}
	}
	return output.Target{Kind: output.File, Path: c.OutputDir}
}

// InputConfig builds the input translator settings.
func (c *Config) InputConfig() input.Config {
	ic := input.DefaultConfig()
	ic.AspectLockKey = c.AspectLockKey
	ic.CancelKey = c.CancelKey
	ic.ConfirmKeys = c.ConfirmKeys
	ic.FreezeKey = c.FreezeKey
	ic.ConfirmOnDoubleClick = c.ConfirmOnDoubleClick
	ic.HandleMargin = c.HandleMargin
	ic.NudgeMode = c.NudgeMode()
	ic.Zoom = c.MagnifierZoom
	ic.MaxZoom = max(ic.MaxZoom, c.MagnifierZoom)
	return ic
}

// Style returns the overlay style with the configured border width.
func (c *Config) Style() render.Style {
	st := render.DefaultStyle()
	st.BorderWidth = c.BorderWidth
	return st
}

func (c *Config) Magnifier() render.MagnifierConfig {
	return render.MagnifierConfig{
		Enabled: c.MagnifierEnabled,
		Size:    c.MagnifierSize,
		Zoom:    c.MagnifierZoom,
	}
}

// OutputOptions builds the dispatcher settings.
func (c *Config) OutputOptions() output.Options {
	filter, _ := output.ParseFilter(c.Filter)
	return output.Options{
		Format:   c.Format,
		Filename: c.Filename,
		Scale:    c.Scale,
		Filter:   filter,
	}
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "resize":
		return "resize"
	case "inverse-resize", "inverseresize", "inverse_resize":
		return "inverse-resize"
	default:
		return "move"
	}
}

func validMode(mode string) bool {
	switch strings.ToLower(mode) {
	case "move", "resize", "inverse-resize", "inverseresize", "inverse_resize":
		return true
	}
	return false
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && f > 0 {
		return f
	}
	return defaultValue
}
