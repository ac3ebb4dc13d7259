package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Cache struct {
		TTL int // время жизни кэшированных ответов, в секундах
	}
	Reminder struct {
		Days          int // за сколько дней до платежа отправлять напоминание
		IntervalHours int // период между проходами планировщика
	}
}

// NewConfig создает новый экземпляр конфигурации из переменных окружения
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Настройки сервера
	v.SetDefault("SERVER_PORT", 8080)

	// Настройки базы данных
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "loan_db")

	// Настройки JWT
	v.SetDefault("JWT_SECRET_KEY", "your-secret-key-here")
	v.SetDefault("JWT_EXPIRES_IN", 24)

	// Настройки SMTP
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "your-email@gmail.com")
	v.SetDefault("SMTP_PASSWORD", "your-app-password")
	v.SetDefault("SMTP_FROM", "your-email@gmail.com")

	// Настройки Redis и кэша
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 3600)

	// Настройки напоминаний о платежах
	v.SetDefault("REMINDER_DAYS", 3)
	v.SetDefault("REMINDER_INTERVAL_HOURS", 24)

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("SERVER_PORT")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetInt("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")

	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.JWT.ExpiresIn = v.GetInt("JWT_EXPIRES_IN")

	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")

	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Cache.TTL = v.GetInt("CACHE_TTL")

	cfg.Reminder.Days = v.GetInt("REMINDER_DAYS")
	cfg.Reminder.IntervalHours = v.GetInt("REMINDER_INTERVAL_HOURS")

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("неверный порт сервера: %d", cfg.Server.Port)
	}
	if cfg.Cache.TTL <= 0 {
		return nil, fmt.Errorf("время жизни кэша должно быть положительным: %d", cfg.Cache.TTL)
	}

	return cfg, nil
}
