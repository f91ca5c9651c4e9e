package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the reminder engine.
type Config struct {
	LogLevel     string
	HTTPAddr     string
	MetricsAddr  string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string
	OTelEndpoint string

	ReminderCron   string
	StatusCron     string
	EscalationCron string
	JobTimeout     time.Duration

	AdminEmails []string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	DispatchConcurrency int
	SendTimeout         time.Duration
	SendRateLimit       int
	SendRateWindow      time.Duration
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		HTTPAddr:     v.GetString("http_addr"),
		MetricsAddr:  v.GetString("metrics_addr"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		RedisAddr:    v.GetString("redis_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		ReminderCron:   v.GetString("reminder_cron"),
		StatusCron:     v.GetString("status_cron"),
		EscalationCron: v.GetString("escalation_cron"),
		JobTimeout:     v.GetDuration("job_timeout"),

		AdminEmails: v.GetStringSlice("admin_emails"),

		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		SMTPFrom:     v.GetString("smtp_from"),
		SMTPUsername: v.GetString("smtp_username"),
		SMTPPassword: v.GetString("smtp_password"),

		DispatchConcurrency: v.GetInt("dispatch_concurrency"),
		SendTimeout:         v.GetDuration("send_timeout"),
		SendRateLimit:       v.GetInt("send_rate_limit"),
		SendRateWindow:      v.GetDuration("send_rate_window"),
	}
}
