package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	JwtTTL                time.Duration `yaml:"jwt_ttl"`
	RefreshTokenTTL       time.Duration `yaml:"refresh_token_ttl"`
	VerificationTokenTTL  time.Duration `yaml:"verification_token_ttl"`
	PasswordResetTokenTTL time.Duration `yaml:"password_reset_token_ttl"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	SecureCookies  bool     `yaml:"secure_cookies"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`

	Events     Events     `yaml:"events"`
	Polls      Polls      `yaml:"polls"`
	Moderation Moderation `yaml:"moderation"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Events struct {
	// Registration closes this many hours before the event starts.
	RegistrationDeadlineHours int `yaml:"registration_deadline_hours"`
	// Auto-attendance waits this long after the event ends.
	AutoAttendanceDelayHours int `yaml:"auto_attendance_delay_hours"`
	// Participants are reminded when the event starts within this window.
	ReminderHours int `yaml:"reminder_hours"`
}

type Polls struct {
	MinOptions int `yaml:"min_options"`
	MaxOptions int `yaml:"max_options"`
	// Default durations used when a poll is created without an end date.
	AdminDurationHours  int `yaml:"admin_duration_hours"`
	ThreadDurationHours int `yaml:"thread_duration_hours"`
}

type Moderation struct {
	Enabled         bool     `yaml:"enabled"`
	BannedWords     []string `yaml:"banned_words"`
	FlagThreshold   float64  `yaml:"flag_threshold"`
	ReviewThreshold float64  `yaml:"review_threshold"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key"`
	Email  Email  `yaml:"email"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
	Timeout    int    `yaml:"timeout"` // seconds
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func (s *Config) RefreshTokenTTL() time.Duration {
	return s.Public.RefreshTokenTTL
}

func (s *Config) VerificationTokenTTL() time.Duration {
	return s.Public.VerificationTokenTTL
}

func (s *Config) PasswordResetTokenTTL() time.Duration {
	return s.Public.PasswordResetTokenTTL
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	return cfg
}

func (s *Config) applyDefaults() {
	p := &s.Public
	if p.JwtTTL == 0 {
		p.JwtTTL = 30 * time.Minute
	}
	if p.RefreshTokenTTL == 0 {
		p.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if p.VerificationTokenTTL == 0 {
		p.VerificationTokenTTL = 24 * time.Hour
	}
	if p.PasswordResetTokenTTL == 0 {
		p.PasswordResetTokenTTL = 1 * time.Hour
	}
	if p.DefaultPageSize == 0 {
		p.DefaultPageSize = 20
	}
	if p.MaxPageSize == 0 {
		p.MaxPageSize = 100
	}
	if p.Events.RegistrationDeadlineHours == 0 {
		p.Events.RegistrationDeadlineHours = 24
	}
	if p.Events.AutoAttendanceDelayHours == 0 {
		p.Events.AutoAttendanceDelayHours = 1
	}
	if p.Events.ReminderHours == 0 {
		p.Events.ReminderHours = 24
	}
	if p.Polls.MinOptions == 0 {
		p.Polls.MinOptions = 2
	}
	if p.Polls.MaxOptions == 0 {
		p.Polls.MaxOptions = 10
	}
	if p.Polls.AdminDurationHours == 0 {
		p.Polls.AdminDurationHours = 168
	}
	if p.Polls.ThreadDurationHours == 0 {
		p.Polls.ThreadDurationHours = 48
	}
	if p.Moderation.FlagThreshold == 0 {
		p.Moderation.FlagThreshold = 0.7
	}
	if p.Moderation.ReviewThreshold == 0 {
		p.Moderation.ReviewThreshold = 0.3
	}
}
