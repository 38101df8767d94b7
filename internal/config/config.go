package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Exam     ExamConfig
	Audit    AuditConfig
	Email    EmailConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// KeyPrefix: префикс всех ключей сервиса
	KeyPrefix string `mapstructure:"key_prefix"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки проверки JWT.
// Токены выпускает внешний сервис аутентификации; здесь только секрет для проверки подписи.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ExamConfig содержит настройки экзаменационного движка
type ExamConfig struct {
	DefaultPassingScore float64       `mapstructure:"default_passing_score"`
	StrictDeadline      bool          `mapstructure:"strict_deadline"` // отклонять ответы после крайнего срока
	StartLockTTL        time.Duration `mapstructure:"start_lock_ttl"`
	QuestionCacheTTL    time.Duration `mapstructure:"question_cache_ttl"`
	RateLimit           int           `mapstructure:"rate_limit"`        // запросов старта/завершения на пользователя
	RateLimitWindow     time.Duration `mapstructure:"rate_limit_window"` // окно лимита
}

// AuditConfig содержит настройки публикации событий аудита в RabbitMQ
type AuditConfig struct {
	AMQPURL    string        `mapstructure:"amqp_url"` // пусто: публикация отключена
	Exchange   string        `mapstructure:"exchange"`
	RoutingKey string        `mapstructure:"routing_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EmailConfig содержит настройки уведомлений через Resend
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"` // пусто: уведомления отключены
	From         string `mapstructure:"from"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Mode string `mapstructure:"mode"` // development | production
}

// MetricsConfig содержит настройки Prometheus
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения (для golang-migrate)
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("server.allowed_origins", []string{"*"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "exam:")

	vip.SetDefault("exam.default_passing_score", 60.0)
	vip.SetDefault("exam.strict_deadline", false)
	vip.SetDefault("exam.start_lock_ttl", 10*time.Second)
	vip.SetDefault("exam.question_cache_ttl", 10*time.Minute)
	vip.SetDefault("exam.rate_limit", 10)
	vip.SetDefault("exam.rate_limit_window", time.Minute)

	vip.SetDefault("audit.exchange", "exam.events")
	vip.SetDefault("audit.routing_key", "audit")
	vip.SetDefault("audit.timeout", 5*time.Second)

	vip.SetDefault("log.mode", "development")
	vip.SetDefault("metrics.enabled", true)
	vip.SetDefault("metrics.path", "/metrics")
}

// Load загружает конфигурацию из .env, файла и переменных окружения
func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Предупреждение: не удалось прочитать .env: %v", err)
	}

	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	setDefaults(vip)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.issuer", "JWT_ISSUER")

	vip.BindEnv("exam.default_passing_score", "EXAM_DEFAULT_PASSING_SCORE")
	vip.BindEnv("exam.strict_deadline", "EXAM_STRICT_DEADLINE")
	vip.BindEnv("exam.start_lock_ttl", "EXAM_START_LOCK_TTL")
	vip.BindEnv("exam.question_cache_ttl", "EXAM_QUESTION_CACHE_TTL")
	vip.BindEnv("exam.rate_limit", "EXAM_RATE_LIMIT")

	vip.BindEnv("audit.amqp_url", "AUDIT_AMQP_URL")
	vip.BindEnv("audit.exchange", "AUDIT_EXCHANGE")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("log.mode", "LOG_MODE")
	vip.BindEnv("metrics.enabled", "METRICS_ENABLED")

	// 3. Файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Exam.DefaultPassingScore < 0 || c.Exam.DefaultPassingScore > 100 {
		return fmt.Errorf("exam default passing score must be within [0, 100], got %v", c.Exam.DefaultPassingScore)
	}
	return nil
}
