package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Totarae/scanlink/internal/util"
)

// Режимы хранилища.
const (
	ModeDatabase = "database"
	ModeSQLite   = "sqlite"
	ModeMemory   = "memory"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress      string        `json:"server_address"`
	BaseURL            string        `json:"base_url"`
	DatabaseDSN        string        `json:"database_dsn"`
	SQLitePath         string        `json:"sqlite_path"`
	EnableHTTPS        bool          `json:"enable_https"`
	TLSCertPath        string        `json:"tls_cert_path"`
	TLSKeyPath         string        `json:"tls_key_path"`
	TrustedSubnet      string        `json:"trusted_subnet"`
	JWTSecret          string        `json:"jwt_secret"`
	RedisURL           string        `json:"redis_url"`
	GRPCAddress        string        `json:"grpc_address"`
	VerificationPrefix string        `json:"verification_prefix"`
	DNSTimeout         time.Duration `json:"-"`
	DNSServer          string        `json:"dns_server"`
	VerifyRateLimit    int           `json:"verify_rate_limit"`
	AppEnv             string        `json:"app_env"`

	Mode        string `json:"-"`
	PrimaryHost string `json:"-"`
}

// Production возвращает true для продакшн-окружения.
func (cfg *Config) Production() bool {
	return cfg.AppEnv == "production"
}

// NewConfig инициализирует конфигурацию из окружения, .env, JSON-файла и аргументов командной строки.
func NewConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load разбирает конфигурацию. Приоритет: флаги > окружение > JSON-файл > значения по умолчанию.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetDefault("SERVER_ADDRESS", "localhost:8080") // Значения по умолчанию
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("ENABLE_HTTPS", false)
	v.SetDefault("TLS_CERT_PATH", "cert.pem")
	v.SetDefault("TLS_KEY_PATH", "key.pem")
	v.SetDefault("VERIFICATION_PREFIX", "_scanlink-verification")
	v.SetDefault("DNS_TIMEOUT", 5*time.Second)
	v.SetDefault("VERIFY_RATE_LIMIT", 10)
	v.SetDefault("APP_ENV", "development")

	v.AutomaticEnv()

	// Читаем .env, если есть (не переопределяет переменные окружения!)
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // Ошибку игнорируем, если файла нет

	fs := flag.NewFlagSet("scanlink", flag.ContinueOnError)
	serverAddress := fs.String("a", "", "server address")
	baseURL := fs.String("b", "", "base URL (its host is the primary domain)")
	databaseDSN := fs.String("d", "", "PostgreSQL DSN")
	sqlitePath := fs.String("l", "", "SQLite path or libsql:// URL")
	enableHTTPS := fs.Bool("s", false, "enable HTTPS")
	tlsCertPath := fs.String("cert", "", "path to TLS certificate")
	tlsKeyPath := fs.String("key", "", "path to TLS key")
	trustedSubnet := fs.String("t", "", "trusted subnet in CIDR format")
	grpcAddress := fs.String("g", "", "gRPC listen address")
	configPath := fs.String("c", "", "path to JSON config file")
	fs.StringVar(configPath, "config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Загружаем JSON-конфигурацию (если указана)
	if *configPath == "" {
		*configPath = os.Getenv("CONFIG")
	}
	cfg := &Config{}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", *configPath, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", *configPath, err)
		}
	}

	// Значения окружения (и значения по умолчанию, если JSON их не задал)
	override := func(key string, target *string) {
		if v.IsSet(key) && (os.Getenv(key) != "" || *target == "") {
			if val := v.GetString(key); val != "" {
				*target = val
			}
		}
	}
	override("SERVER_ADDRESS", &cfg.ServerAddress)
	override("BASE_URL", &cfg.BaseURL)
	override("DATABASE_DSN", &cfg.DatabaseDSN)
	override("SQLITE_PATH", &cfg.SQLitePath)
	override("TLS_CERT_PATH", &cfg.TLSCertPath)
	override("TLS_KEY_PATH", &cfg.TLSKeyPath)
	override("TRUSTED_SUBNET", &cfg.TrustedSubnet)
	override("JWT_SECRET", &cfg.JWTSecret)
	override("REDIS_URL", &cfg.RedisURL)
	override("GRPC_ADDRESS", &cfg.GRPCAddress)
	override("VERIFICATION_PREFIX", &cfg.VerificationPrefix)
	override("DNS_SERVER", &cfg.DNSServer)
	override("APP_ENV", &cfg.AppEnv)
	if v.GetBool("ENABLE_HTTPS") {
		cfg.EnableHTTPS = true
	}
	cfg.DNSTimeout = v.GetDuration("DNS_TIMEOUT")
	if os.Getenv("VERIFY_RATE_LIMIT") != "" || cfg.VerifyRateLimit == 0 {
		cfg.VerifyRateLimit = v.GetInt("VERIFY_RATE_LIMIT")
	}

	// Флаги имеют высший приоритет
	set := func(flagVal string, target *string) {
		if flagVal != "" {
			*target = flagVal
		}
	}
	set(*serverAddress, &cfg.ServerAddress)
	set(*baseURL, &cfg.BaseURL)
	set(*databaseDSN, &cfg.DatabaseDSN)
	set(*sqlitePath, &cfg.SQLitePath)
	set(*tlsCertPath, &cfg.TLSCertPath)
	set(*tlsKeyPath, &cfg.TLSKeyPath)
	set(*trustedSubnet, &cfg.TrustedSubnet)
	set(*grpcAddress, &cfg.GRPCAddress)
	if *enableHTTPS {
		cfg.EnableHTTPS = true
	}

	// Определяем режим работы
	switch {
	case cfg.DatabaseDSN != "":
		cfg.Mode = ModeDatabase
	case cfg.SQLitePath != "":
		cfg.Mode = ModeSQLite
	default:
		cfg.Mode = ModeMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет корректность конфигурации и вычисляет основной хост.
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("server address must not be empty")
	}
	if cfg.BaseURL == "" {
		return errors.New("base URL must not be empty")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base URL %q must be an absolute http(s) URL", cfg.BaseURL)
	}
	cfg.PrimaryHost = util.NormalizeHost(u.Host)

	if cfg.TrustedSubnet != "" {
		if _, _, err := net.ParseCIDR(cfg.TrustedSubnet); err != nil {
			return fmt.Errorf("trusted subnet: %w", err)
		}
	}
	if cfg.EnableHTTPS && (cfg.TLSCertPath == "" || cfg.TLSKeyPath == "") {
		return errors.New("TLS certificate and key are required when HTTPS is enabled")
	}
	if cfg.DNSTimeout <= 0 {
		return errors.New("DNS timeout must be positive")
	}
	if cfg.VerifyRateLimit < 0 {
		return errors.New("verification rate limit must not be negative")
	}
	return nil
}
