package config

import (
	"fmt"

	"github.com/joho/godotenv"
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
	Uploads struct {
		Dir          string
		MaxSizeBytes int64
		AllowedExts  []string
	}
	Rates struct {
		FeedURL string // XML-фид курсов центрального банка
	}
	Reminders struct {
		IntervalHours int // период проверки просроченных долгов
		OverdueDays   int // через сколько дней долг считается просроченным
	}
}

// NewConfig создает новый экземпляр конфигурации.
// Значения берутся из переменных окружения, .env подхватывается если есть.
func NewConfig() (*Config, error) {
	// Загружаем .env, отсутствие файла не считается ошибкой
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	// Настройки сервера
	v.SetDefault("SERVER_PORT", 8080)

	// Настройки базы данных
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dolgovnik_db")

	// Настройки JWT
	v.SetDefault("JWT_SECRET_KEY", "your-secret-key-here")
	v.SetDefault("JWT_EXPIRES_IN", 24)

	// Настройки SMTP
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "your-email@gmail.com")
	v.SetDefault("SMTP_PASSWORD", "your-app-password")
	v.SetDefault("SMTP_FROM", "your-email@gmail.com")

	// Настройки загрузки файлов
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_EXTS", []string{"pdf", "png", "jpg", "jpeg"})

	// Фид курсов центрального банка
	v.SetDefault("RATES_FEED_URL", "https://www.cbr.ru/scripts/XML_daily.asp")

	// Напоминания о просроченных долгах
	v.SetDefault("REMINDER_INTERVAL_HOURS", 24)
	v.SetDefault("REMINDER_OVERDUE_DAYS", 30)

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

	cfg.Uploads.Dir = v.GetString("UPLOAD_DIR")
	cfg.Uploads.MaxSizeBytes = v.GetInt64("UPLOAD_MAX_SIZE")
	cfg.Uploads.AllowedExts = v.GetStringSlice("UPLOAD_ALLOWED_EXTS")

	cfg.Rates.FeedURL = v.GetString("RATES_FEED_URL")

	cfg.Reminders.IntervalHours = v.GetInt("REMINDER_INTERVAL_HOURS")
	cfg.Reminders.OverdueDays = v.GetInt("REMINDER_OVERDUE_DAYS")

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("неверный порт сервера: %d", cfg.Server.Port)
	}
	if cfg.JWT.ExpiresIn <= 0 {
		return nil, fmt.Errorf("неверное время жизни JWT: %d", cfg.JWT.ExpiresIn)
	}

	return cfg, nil
}
