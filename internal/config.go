package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"

	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/router"
	"github.com/starford/daybook/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Journal JournalConfig     `yaml:"journal"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// JournalConfig describes where journal documents live and how they are
// read.
//
// Dir is the journal root; DefaultFile and the Files registry are relative to
// it. With an empty registry DefaultFile is the only journal.
type JournalConfig struct {
	Dir         string          `yaml:"dir"`
	DefaultFile string          `yaml:"default_file"`
	Files       router.Registry `yaml:"files"`
	WeekStart   string          `yaml:"week_start"`
	Keywords    []string        `yaml:"keywords"`
	Extension   string          `yaml:"extension"`
}

// Validate validates the journal configuration and expands ~ in Dir.
func (c *JournalConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.DefaultFile, validation.When(len(c.Files) == 0, validation.Required), validation.By(journalPath)),
		validation.Field(&c.WeekStart, validation.By(weekday)),
		validation.Field(&c.Files, validation.Each(validation.By(registryEntry))),
		validation.Field(&c.Keywords, validation.Each(validation.Required, validation.Match(keywordRe))),
		validation.Field(&c.Extension, validation.Match(extensionRe)),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Files))
	for _, e := range c.Files {
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("journal: duplicate file name %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	dir, err := homedir.Expand(c.Dir)
	if err != nil {
		return fmt.Errorf("journal: expand dir: %w", err)
	}
	c.Dir = dir
	return nil
}

// Weekday returns the configured first day of the week, Monday by default.
func (c *JournalConfig) Weekday() time.Weekday {
	if c.WeekStart == "" {
		return time.Monday
	}
	wd, err := calendar.ParseWeekday(c.WeekStart)
	if err != nil {
		return time.Monday
	}
	return wd
}

func weekday(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := calendar.ParseWeekday(s)
	return err
}

func registryEntry(value any) error {
	e, ok := value.(router.Entry)
	if !ok {
		return errors.New("must be a journal file entry")
	}
	if e.Name == "" || e.Path == "" {
		return errors.New("name and path are required")
	}
	return journalPath(e.Path)
}

var (
	keywordRe   = regexp.MustCompile(`^[A-Z][A-Z0-9_-]*$`)
	extensionRe = regexp.MustCompile(`^\.?[A-Za-z0-9]+$`)
)

// journalPath rejects paths the storage layer would refuse: documents live
// under journal.dir.
func journalPath(value any) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "~") {
		return errors.New("must be relative to journal.dir")
	}
	if clean := filepath.ToSlash(filepath.Clean(p)); clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must stay inside journal.dir")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration and expands ~ in Path.
func (c *SQLiteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	path, err := homedir.Expand(c.Path)
	if err != nil {
		return fmt.Errorf("sqlite: expand path: %w", err)
	}
	c.Path = path
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Journal: JournalConfig{
			Dir:         "~/journal",
			DefaultFile: "journal.org",
			WeekStart:   "monday",
			Extension:   storage.DefaultExtension,
		},
		SQLite: SQLiteConfig{
			Path: "~/.daybook.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
