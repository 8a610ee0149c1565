package contract

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/GarnettJZ/makan-apa/schema"
	"go.uber.org/zap/zapcore"
)

// Default values for configuration.
const (
	DefaultDayStart   = 8.0
	DefaultDayEnd     = 20.0
	DefaultMinGap     = 0.25
	DefaultMinMutual  = 0.5
	DefaultDays       = "Mon,Tue,Wed,Thu,Fri"
	DefaultCacheTTL   = 10 * time.Minute
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 2.0 // requests per second
	DefaultLogLevel   = "warn"
	DefaultAPUURL     = "https://api.apiit.edu.my/timetable-print/index.php"
	DefaultAPSpaceURL = "https://s3-ap-southeast-1.amazonaws.com/open-ws/weektimetable"
)

// WeekLayout is the date layout for the target week.
const WeekLayout = "2006-01-02"

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ErrInvalidConfiguration is wrapped by every configuration validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// nowFunc is the clock used to default the target week.
var nowFunc = time.Now

// invalid wraps a validation message with ErrInvalidConfiguration.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// Config holds the runtime configuration for a query.
// This struct remains the "final, validated" config.
type Config struct {
	People     []schema.PersonRef
	Week       time.Time // Monday of the target week
	FilterWeek bool      // Drop records dated outside Week

	Window             schema.DayWindow
	MinPersonalGap     float64
	MinMutualGap       float64
	Days               []schema.Weekday
	IncludeTrailingGap bool

	Source     schema.SourceKind
	SourceURL  string
	SourceFile string
	Timeout    time.Duration
	RateLimit  float64

	Workers     int
	Output      schema.OutputMode
	OutputFile  string
	Detail      bool // Print per-person gap tables
	ShowClasses bool // Include class rows in per-person output
	Width       int  // Terminal width override (0 = auto-detect)

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	LogLevel string

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	PeopleArgs []string

	People      []string `mapstructure:"people"`
	Week        string   `mapstructure:"week"`
	FilterWeek  bool     `mapstructure:"filter-week"`
	DayStart    float64  `mapstructure:"day-start"`
	DayEnd      float64  `mapstructure:"day-end"`
	MinGap      float64  `mapstructure:"min-gap"`
	MinMutual   float64  `mapstructure:"min-mutual"`
	Days        string   `mapstructure:"days"`
	TrailingGap bool     `mapstructure:"trailing-gap"`

	Source     string  `mapstructure:"source"`
	SourceURL  string  `mapstructure:"source-url"`
	SourceFile string  `mapstructure:"source-file"`
	Timeout    string  `mapstructure:"timeout"`
	RateLimit  float64 `mapstructure:"rate-limit"`

	Workers    int    `mapstructure:"workers"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Detail     bool   `mapstructure:"detail"`
	Classes    bool   `mapstructure:"classes"`
	Width      int    `mapstructure:"width"`
	Emoji      string `mapstructure:"emoji"`
	Color      string `mapstructure:"color"`

	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	CacheTTL       string `mapstructure:"cache-ttl"`

	LogLevel string `mapstructure:"log-level"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.People = slices.Clone(c.People)
	clone.Days = slices.Clone(c.Days)
	return &clone
}

// ProcessAndValidate turns raw input into a validated Config.
// Every failure wraps ErrInvalidConfiguration and is reported before any computation runs.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processWindow(cfg, input); err != nil {
		return err
	}
	if err := processWeek(cfg, input); err != nil {
		return err
	}
	if err := processSource(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processPeople(cfg, input)
}

// validateSimpleInputs processes and validates output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.ShowClasses = input.Classes
	cfg.Width = input.Width
	cfg.FilterWeek = input.FilterWeek
	cfg.IncludeTrailingGap = input.TrailingGap

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return invalid("invalid --emoji value: %v", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return invalid("invalid --color value: %v", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return invalid("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return invalid("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return invalid("parquet output requires --output-file")
	}

	// --- 3. Log Level Validation ---
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return invalid("invalid log level '%s'", input.LogLevel)
	}
	return nil
}

// processWindow validates the day window, thresholds and day set.
func processWindow(cfg *Config, input *ConfigRawInput) error {
	window := schema.DayWindow{Start: input.DayStart, End: input.DayEnd}
	if err := ValidateThresholds(window, input.MinGap, input.MinMutual); err != nil {
		return err
	}
	cfg.Window = window
	cfg.MinPersonalGap = input.MinGap
	cfg.MinMutualGap = input.MinMutual

	days, err := ParseDays(input.Days)
	if err != nil {
		return err
	}
	cfg.Days = days
	return nil
}

// ValidateThresholds rejects empty or out-of-range windows and negative thresholds.
func ValidateThresholds(window schema.DayWindow, minGap, minMutual float64) error {
	if window.Start < 0 || window.Start > 24 || window.End < 0 || window.End > 24 {
		return invalid("day window must lie within 0-24 hours (received %v-%v)", window.Start, window.End)
	}
	if window.End <= window.Start {
		return invalid("day-end (%v) must be after day-start (%v)", window.End, window.Start)
	}
	if minGap < 0 {
		return invalid("min-gap cannot be negative (received %v)", minGap)
	}
	if minMutual < 0 {
		return invalid("min-mutual cannot be negative (received %v)", minMutual)
	}
	return nil
}

// ParseDays parses a comma-separated day list into canonical weekdays in ISO week order.
func ParseDays(s string) ([]schema.Weekday, error) {
	var days []schema.Weekday
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := schema.ParseWeekday(part)
		if err != nil {
			return nil, invalid("invalid --days entry: %v", err)
		}
		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, invalid("--days must name at least one weekday")
	}
	slices.SortFunc(days, func(a, b schema.Weekday) int { return a.Rank() - b.Rank() })
	return days, nil
}

// processWeek resolves the target week, defaulting to the current one.
func processWeek(cfg *Config, input *ConfigRawInput) error {
	week, err := ParseWeek(input.Week)
	if err != nil {
		return err
	}
	cfg.Week = week
	return nil
}

// ParseWeek parses a YYYY-MM-DD date and snaps it to the Monday of its week.
// An empty string selects the current week.
func ParseWeek(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		now := nowFunc()
		return schema.MondayOf(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)), nil
	}
	t, err := time.Parse(WeekLayout, s)
	if err != nil {
		return time.Time{}, invalid("week must be a YYYY-MM-DD date (received %q)", s)
	}
	return schema.MondayOf(t), nil
}

// processSource validates the timetable source and its transport settings.
func processSource(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if _, ok := schema.ValidSources[cfg.Source]; !ok {
		return invalid("invalid source '%s'. must be apu, apspace, file", input.Source)
	}

	cfg.SourceURL = input.SourceURL
	cfg.SourceFile = input.SourceFile
	switch cfg.Source {
	case schema.APUSource:
		if cfg.SourceURL == "" {
			cfg.SourceURL = DefaultAPUURL
		}
	case schema.APSpaceSource:
		if cfg.SourceURL == "" {
			cfg.SourceURL = DefaultAPSpaceURL
		}
	case schema.FileSource:
		if cfg.SourceFile == "" {
			return invalid("--source-file is required when using the file source")
		}
	}

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil || d <= 0 {
			return invalid("timeout must be a positive duration (received %q)", input.Timeout)
		}
		cfg.Timeout = d
	}

	if input.RateLimit <= 0 {
		return invalid("rate-limit must be greater than 0 (received %v)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return invalid("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return invalid("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return invalid("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return invalid("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return invalid("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return invalid("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return invalid("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return invalid("Redis connection string must be a redis:// or rediss:// URL")
		}
	}
	return nil
}

// validateBackendConfigs validates the cache backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return invalid("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		d, err := time.ParseDuration(input.CacheTTL)
		if err != nil || d <= 0 {
			return invalid("cache-ttl must be a positive duration (received %q)", input.CacheTTL)
		}
		cfg.CacheTTL = d
	}
	return nil
}

// processPeople parses positional arguments, falling back to the config file list.
func processPeople(cfg *Config, input *ConfigRawInput) error {
	raw := input.PeopleArgs
	if len(raw) == 0 {
		raw = input.People
	}
	cfg.People = nil
	for _, s := range raw {
		ref, err := ParsePersonRef(s)
		if err != nil {
			return err
		}
		cfg.People = append(cfg.People, ref)
	}
	return nil
}

// RequirePeople rejects queries without anyone to compare.
func RequirePeople(cfg *Config, minimum int) error {
	if len(cfg.People) < minimum {
		return invalid("at least %d person reference(s) required (received %d)", minimum, len(cfg.People))
	}
	seen := make(map[string]struct{}, len(cfg.People))
	for _, p := range cfg.People {
		if _, ok := seen[p.ID()]; ok {
			return invalid("duplicate person %q", p.ID())
		}
		seen[p.ID()] = struct{}{}
	}
	return nil
}

// ParsePersonRef parses "name=INTAKE:GROUP", "INTAKE:GROUP" or "INTAKE".
func ParsePersonRef(s string) (schema.PersonRef, error) {
	var ref schema.PersonRef
	token := strings.TrimSpace(s)
	if name, rest, ok := strings.Cut(token, "="); ok {
		ref.Name = strings.TrimSpace(name)
		token = strings.TrimSpace(rest)
		if ref.Name == "" {
			return ref, invalid("person %q has an empty name", s)
		}
	}
	if i := strings.LastIndex(token, ":"); i >= 0 {
		ref.Intake = strings.ToUpper(strings.TrimSpace(token[:i]))
		ref.Group = strings.ToUpper(strings.TrimSpace(token[i+1:]))
		if ref.Group == "" {
			return ref, invalid("person %q has an empty group", s)
		}
	} else {
		ref.Intake = strings.ToUpper(token)
	}
	if ref.Intake == "" {
		return ref, invalid("person %q has an empty intake", s)
	}
	return ref, nil
}

// ParsePeopleList parses a comma-separated list of person references.
func ParsePeopleList(s string) ([]schema.PersonRef, error) {
	var out []schema.PersonRef
	for part := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ref, err := ParsePersonRef(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}
