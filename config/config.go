package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/aviary/internal/schedule"
)

// Config holds application configuration
type Config struct {
	// Data recording configuration. The cage id is a FlexScalar because
	// operators write it as a bare number in the config file.
	DataOutputBasePath   string     `yaml:"dataOutputBasePath"`
	CageID               FlexScalar `yaml:"cage_id"`
	BirdName             string     `yaml:"bird_name"`
	DataReadingAndSaving bool       `yaml:"dataReadingAndSaving"`
	FileWriteDelayMins   int        `yaml:"file_write_delay_mins"`

	// Serial transport configuration. The pacing durations are tuning knobs
	// with fixed defaults, not part of the config file surface.
	DevicePaths    []string      `yaml:"device_paths"`
	BaudRate       int           `yaml:"baud_rate"`
	ReadTimeout    time.Duration `yaml:"-"`
	SampleInterval time.Duration `yaml:"-"`
	MinuteWindow   time.Duration `yaml:"-"`

	// Light scheduling configuration. Sunrise/sunset/stable date/days offset
	// are pointers: presence in the config is what selects the mode, not the
	// value, so an explicit zero still counts as set.
	Sunrise    *FlexScalar `yaml:"sunrise"`
	Sunset     *FlexScalar `yaml:"sunset"`
	StableDate *FlexScalar `yaml:"stable_date"`
	DaysOffset *int        `yaml:"days_offset"`

	// Location configuration for the sunrise/sunset computation
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`

	// Slack configuration
	SlackToken   string `yaml:"slack_token"`
	SlackChannel string `yaml:"slack_channel"`

	// Live feed configuration ("", "redis" or "http")
	FeedKind  string `yaml:"feed_kind"`
	FeedTopic string `yaml:"feed_topic"`
	RedisAddr string `yaml:"redis_addr"`
	FeedURL   string `yaml:"feed_url"`

	// InfluxDB mirror configuration
	InfluxEnabled  bool   `yaml:"influx_enabled"`
	InfluxDBURL    string `yaml:"influxdb_url"`
	InfluxDBToken  string `yaml:"influxdb_token"`
	InfluxDBOrg    string `yaml:"influxdb_org"`
	InfluxDBBucket string `yaml:"influxdb_bucket"`

	// Server configuration
	Port string `yaml:"port"`
}

// FlexScalar accepts any YAML scalar as its raw text, so `sunrise: 0`,
// `sunrise: "07:30"` and `stable_date: 2024-06-01` all load without type
// gymnastics in the config file.
type FlexScalar string

func (f *FlexScalar) UnmarshalYAML(node *yaml.Node) error {
	*f = FlexScalar(node.Value)
	return nil
}

// Load loads configuration from an optional YAML file, then applies
// environment variable overrides and defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	var cfg Config
	cfg.DataReadingAndSaving = true

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataOutputBasePath = getEnv("DATA_OUTPUT_BASE_PATH", c.DataOutputBasePath)
	c.CageID = FlexScalar(getEnv("CAGE_ID", string(c.CageID)))
	c.BirdName = getEnv("BIRD_NAME", c.BirdName)
	if v, ok := os.LookupEnv("DATA_READING_AND_SAVING"); ok {
		c.DataReadingAndSaving = v == "true" || v == "1"
	}
	c.FileWriteDelayMins = getEnvInt("FILE_WRITE_DELAY_MINS", c.FileWriteDelayMins)

	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.SlackToken = getEnv("SLACK_TOKEN", c.SlackToken)
	c.SlackChannel = getEnv("SLACK_CHANNEL", c.SlackChannel)

	c.FeedKind = getEnv("FEED_KIND", c.FeedKind)
	c.FeedTopic = getEnv("FEED_TOPIC", c.FeedTopic)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.FeedURL = getEnv("FEED_URL", c.FeedURL)

	if v, ok := os.LookupEnv("INFLUX_ENABLED"); ok {
		c.InfluxEnabled = v == "true" || v == "1"
	}
	c.InfluxDBURL = getEnv("INFLUXDB_URL", c.InfluxDBURL)
	c.InfluxDBToken = getEnv("INFLUXDB_TOKEN", c.InfluxDBToken)
	c.InfluxDBOrg = getEnv("INFLUXDB_ORG", c.InfluxDBOrg)
	c.InfluxDBBucket = getEnv("INFLUXDB_BUCKET", c.InfluxDBBucket)

	c.Port = getEnv("PORT", c.Port)

	// Presence matters for the scheduling mode, so only LookupEnv will do.
	if v, ok := os.LookupEnv("SUNRISE"); ok {
		s := FlexScalar(v)
		c.Sunrise = &s
	}
	if v, ok := os.LookupEnv("SUNSET"); ok {
		s := FlexScalar(v)
		c.Sunset = &s
	}
	if v, ok := os.LookupEnv("STABLE_DATE"); ok {
		s := FlexScalar(v)
		c.StableDate = &s
	}
	if v, ok := os.LookupEnv("DAYS_OFFSET"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.DaysOffset = &n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataOutputBasePath == "" {
		c.DataOutputBasePath = "./data"
	}
	if c.CageID == "" {
		c.CageID = "1"
	}
	if c.BirdName == "" {
		c.BirdName = "bird"
	}
	if c.FileWriteDelayMins == 0 {
		c.FileWriteDelayMins = 3
	}
	if c.BaudRate == 0 {
		c.BaudRate = 9600
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = time.Second
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = time.Second
	}
	if c.MinuteWindow == 0 {
		c.MinuteWindow = time.Minute
	}
	if c.Latitude == 0 && c.Longitude == 0 {
		// The aviary at the Weizmann Institute campus.
		c.Latitude = 31.9070
		c.Longitude = 34.8102
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Jerusalem"
	}
	if c.FeedTopic == "" {
		c.FeedTopic = "aviary_aggregates"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.InfluxDBURL == "" {
		c.InfluxDBURL = "http://localhost:8086"
	}
	if c.InfluxDBOrg == "" {
		c.InfluxDBOrg = "aviary"
	}
	if c.InfluxDBBucket == "" {
		c.InfluxDBBucket = "cage_aggregates"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
}

// ScheduleMode resolves the scheduling configuration into its tagged variant
// exactly once. Priority: explicit sunrise+sunset override (presence, not
// truthiness, decides), then stable date, then day offset (defaulting to 0).
func (c Config) ScheduleMode() (schedule.Mode, error) {
	if c.Sunrise != nil && c.Sunset != nil {
		rise, err := schedule.ParseClockTime(string(*c.Sunrise))
		if err != nil {
			return schedule.Mode{}, fmt.Errorf("sunrise: %w", err)
		}
		set, err := schedule.ParseClockTime(string(*c.Sunset))
		if err != nil {
			return schedule.Mode{}, fmt.Errorf("sunset: %w", err)
		}
		return schedule.Manual(rise, set), nil
	}

	if c.StableDate != nil {
		d, err := time.Parse("2006-01-02", string(*c.StableDate))
		if err != nil {
			return schedule.Mode{}, fmt.Errorf("stable_date: %w", err)
		}
		return schedule.Stable(d), nil
	}

	offset := 0
	if c.DaysOffset != nil {
		offset = *c.DaysOffset
	}
	return schedule.Offset(offset), nil
}

// FlushDelay converts the configured write delay to a duration.
func (c Config) FlushDelay() time.Duration {
	return time.Duration(c.FileWriteDelayMins) * time.Minute
}

// Location loads the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// getEnv gets an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a fallback default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
