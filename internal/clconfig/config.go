package clconfig

import (
	"fmt"
	"log/syslog"
	"os"
	"strings"

	"github.com/andskur/argon2-hashing"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TrustedProxies  []string        `yaml:"trustedproxies"`
	TrustedPlatform string          `yaml:"trustedplatform"`
	Database        DatabaseConfig  `yaml:"database"`
	User            UserConfig      `yaml:"user"`
	Auth            AuthConfig      `yaml:"auth"`
	Production      bool            `yaml:"production"`
	Listen          ListenConfig    `yaml:"listen"`
	Logger          LoggerConfig    `yaml:"logger"`
	Site            SiteConfig      `yaml:"site"`
	Analytics       AnalyticsConfig `yaml:"analytics"`
	Contact         ContactConfig   `yaml:"contact"`
	Portfolio       PortfolioConfig `yaml:"portfolio"`
	Upload          UploadConfig    `yaml:"upload"`
	Limits          LimitsConfig    `yaml:"limits"`
}

type SiteConfig struct {
	Name        string   `yaml:"name"`
	BaseURL     string   `yaml:"baseurl"`
	PagesDir    string   `yaml:"pagesdir"`
	StaticPath  string   `yaml:"staticpath"`
	CorsOrigins []string `yaml:"corsorigins"`
}

type AnalyticsConfig struct {
	ServerSide    bool   `yaml:"serverside"`
	Timezone      string `yaml:"timezone"`
	GeoIP         string `yaml:"geoip"`
	Workers       int    `yaml:"workers"`
	RetentionDays int    `yaml:"retentiondays"`
	CleanupCron   string `yaml:"cleanupcron"`
}

type ContactConfig struct {
	Captcha bool `yaml:"captcha"`
}

type PortfolioConfig struct {
	Seed bool `yaml:"seed"`
}

type UploadConfig struct {
	Backend     string `yaml:"backend"`
	Bucket      string `yaml:"bucket"`
	Credentials string `yaml:"credentials"`
	MaxWidth    int    `yaml:"maxwidth"`
}

// Format ulule/limiter: "5-M", "100-H"...
type LimitsConfig struct {
	Login string `yaml:"login"`
	Forms string `yaml:"forms"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	Db   int    `yaml:"db"`
}

type LoggerConfig struct {
	Level  string             `yaml:"level"`
	File   LoggerFileConfig   `yaml:"file"`
	Syslog LoggerSyslogConfig `yaml:"syslog"`
}

type LoggerFileConfig struct {
	Enable     bool   `yaml:"enable"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type LoggerSyslogConfig struct {
	Enable   bool            `yaml:"enable"`
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Tag      string          `yaml:"tag"`
	Priority syslog.Priority `yaml:"priority"`
}

type ListenConfig struct {
	Website string `yaml:"website"`
	Metrics string `yaml:"metrics"`
}

// Compte super_admin créé au démarrage s'il n'existe pas
type UserConfig struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Pass  string `yaml:"pass"`
	Hash  string `yaml:"hash"`
}

type AuthConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttlhours"`
}

type DatabaseConfig struct {
	Redis RedisConfig `yaml:"redis"`
	Db    string      `yaml:"db"`
	Path  string      `yaml:"path"`
	Dsn   string      `yaml:"dsn"`
}

// Variables d'environnement prioritaires sur le fichier yaml
const (
	EnvDatabaseDsn = "VITRINE_DATABASE_DSN"
	EnvJWTSecret   = "VITRINE_JWT_SECRET"
	EnvRedisAddr   = "VITRINE_REDIS_ADDR"
)

func CreateExampleConfig(filename string) (string, error) {
	example := &Config{
		Database: DatabaseConfig{
			Db:   "sqlite",
			Path: "./vitrine.db",
		},
		User: UserConfig{
			Email: "admin@example.com",
			Name:  "Administrateur",
			Pass:  "admin1234",
		},
		Auth: AuthConfig{
			TTLHours: 24,
		},
		Production: false,
		Logger: LoggerConfig{
			Level: "info",
		},
		Listen: ListenConfig{
			Website: "0.0.0.0:8080",
		},
		Site: SiteConfig{
			Name:       "Vitrine",
			PagesDir:   "./pages",
			StaticPath: "./static",
		},
		Analytics: AnalyticsConfig{
			Workers:     64,
			CleanupCron: "0 2 * * *",
		},
		Portfolio: PortfolioConfig{
			Seed: true,
		},
		Upload: UploadConfig{
			Backend:  "local",
			MaxWidth: 1600,
		},
		Limits: LimitsConfig{
			Login: "5-M",
			Forms: "5-M",
		},
	}

	if filename == "/etc/" {
		example.Listen.Website = "127.0.0.1:8000"
		example.Listen.Metrics = "127.0.0.1:8090"
		example.Production = true
		example.Database.Path = "/var/lib/vitrine/sqlite.db"
		example.Site.PagesDir = "/var/lib/vitrine/pages"
		example.Site.StaticPath = "/var/lib/vitrine/static"
		example.Logger.File = LoggerFileConfig{
			Enable:     true,
			Path:       "/var/log/vitrine/vitrine.log",
			MaxSize:    100,
			MaxBackups: 30,
			MaxAge:     7,
			Compress:   true,
		}
		filename = "/etc/vitrine/config.yaml"
	}

	return filename, WriteConfigYaml(filename, example)
}

func WriteConfigYaml(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

// Charger la configuration YAML
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("impossible de lire le fichier %s: %v", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("erreur de parsing YAML: %v", err)
	}

	return &config, nil
}

// Load charge, complète et valide la configuration.
// Le mot de passe en clair est hashé en argon2 puis le fichier est réécrit.
func Load(configFile string) (*Config, error) {
	conf, err := LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("erreur chargement config: %v", err)
	}

	// .env optionnel, les variables déjà présentes ne sont pas écrasées
	_ = godotenv.Load()
	ApplyEnv(conf)
	ApplyDefaults(conf)

	if err := Validate(conf); err != nil {
		return nil, err
	}

	if conf.User.Pass != "" {
		if err := HashUserPassword(conf); err != nil {
			return nil, err
		}
		if err := WriteConfigYaml(configFile, conf); err != nil {
			return nil, err
		}
	}

	return conf, nil
}

func ApplyEnv(conf *Config) {
	if v := os.Getenv(EnvDatabaseDsn); v != "" {
		conf.Database.Dsn = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		conf.Auth.Secret = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		conf.Database.Redis.Addr = v
	}
}

func ApplyDefaults(conf *Config) {
	if conf.Listen.Website == "" {
		conf.Listen.Website = "localhost:8080"
	}
	if strings.HasPrefix(conf.Listen.Website, ":") {
		conf.Listen.Website = "localhost" + conf.Listen.Website
	}
	if conf.Auth.TTLHours <= 0 {
		conf.Auth.TTLHours = 24
	}
	if conf.Site.PagesDir == "" {
		conf.Site.PagesDir = "./pages"
	}
	if conf.Site.StaticPath == "" {
		conf.Site.StaticPath = "./static"
	}
	if conf.Analytics.Workers <= 0 {
		conf.Analytics.Workers = 64
	}
	if conf.Analytics.CleanupCron == "" {
		conf.Analytics.CleanupCron = "0 2 * * *"
	}
	if conf.Upload.Backend == "" {
		conf.Upload.Backend = "local"
	}
	if conf.Upload.MaxWidth <= 0 {
		conf.Upload.MaxWidth = 1600
	}
	if conf.Limits.Login == "" {
		conf.Limits.Login = "5-M"
	}
	if conf.Limits.Forms == "" {
		conf.Limits.Forms = "5-M"
	}
}

func Validate(conf *Config) error {
	switch conf.Database.Db {
	case "":
		return fmt.Errorf("database.db ne peut pas être vide")
	case "sqlite":
		if conf.Database.Path == "" {
			return fmt.Errorf("database.path ne peut pas être vide")
		}
	case "mysql", "postgres":
		if conf.Database.Dsn == "" {
			return fmt.Errorf("database.dsn ne peut pas être vide")
		}
	default:
		return fmt.Errorf("le type de database doit etre sqlite, mysql ou postgres")
	}

	switch conf.Upload.Backend {
	case "local":
	case "gcs":
		if conf.Upload.Bucket == "" {
			return fmt.Errorf("upload.bucket ne peut pas être vide avec le backend gcs")
		}
	default:
		return fmt.Errorf("upload.backend doit etre local ou gcs")
	}

	if conf.Analytics.RetentionDays < 0 {
		return fmt.Errorf("analytics.retentiondays ne peut pas être négatif")
	}
	return nil
}

func HashUserPassword(conf *Config) error {
	if len(conf.User.Pass) < 8 {
		return fmt.Errorf("le mot de passe doit contenir au moins 8 caractères")
	}

	hash, err := argon2.GenerateFromPassword([]byte(conf.User.Pass), argon2.DefaultParams)
	if err != nil {
		return err
	}
	conf.User.Hash = string(hash)
	conf.User.Pass = ""
	return nil
}

func CreateExample(shouldCreateExample bool, configFile string) {
	if shouldCreateExample {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}

	_, err := os.Stat(configFile)
	if err != nil && os.IsNotExist(err) {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}
}

func handleExampleCreation(filename string) error {
	if filename == "" {
		filename = "vitrine.yaml"
	}
	filename, err := CreateExampleConfig(filename)
	if err != nil {
		return fmt.Errorf("erreur création exemple: %v", err)
	}

	fmt.Printf("✅ Fichier exemple créé: %s\n", filename)
	fmt.Println("⚠️  user.pass sera automatiquement hash en argon2 dans user.hash au premier lancement")
	return nil
}

func DisplayConfiguration(config *Config, version string) {
	logPrintf("Vitrine version %s", version)

	logPrintf("Mode Production %v", config.Production)
	logPrintf("Administrateur %s", config.User.Email)
	if config.Auth.Secret == "" {
		logPrintf("  • Secret JWT aléatoire, les jetons seront invalides au redémarrage")
	}

	logPrintf("Database")
	switch config.Database.Db {
	case "sqlite":
		logPrintf("  • Type sqlite")
		logPrintf("  • Path %s", config.Database.Path)
	case "mysql", "postgres":
		logPrintf("  • Type %s", config.Database.Db)
		logPrintf("  • DSN %s", redactDsn(config.Database.Dsn))
	}
	if config.Database.Redis.Addr != "" {
		logPrintf("  • Cache redis %s", config.Database.Redis.Addr)
	}

	logPrintf("Analytics")
	logPrintf("  • Suivi côté serveur %v", config.Analytics.ServerSide)
	logPrintf("  • Workers %d", config.Analytics.Workers)
	if config.Analytics.GeoIP != "" {
		logPrintf("  • GeoIP %s", config.Analytics.GeoIP)
	}
	if config.Analytics.RetentionDays > 0 {
		logPrintf("  • Rétention des vues %d jours (%s)", config.Analytics.RetentionDays, config.Analytics.CleanupCron)
	} else {
		logPrintf("  • Rétention des vues désactivée")
	}

	logPrintf("Upload backend %s", config.Upload.Backend)
	if config.Upload.Backend == "gcs" {
		logPrintf("  • Bucket %s", config.Upload.Bucket)
	}
	logPrintf("Captcha formulaire de contact %v", config.Contact.Captcha)

	// Logger
	logPrintf("Logger en level %s", config.Logger.Level)
	if config.Logger.File.Enable {
		logPrintf("  Log en fichier activé")
		logPrintf("  • Path %s", config.Logger.File.Path)
		logPrintf("  • Max size %d", config.Logger.File.MaxSize)
		logPrintf("  • Max age %d", config.Logger.File.MaxAge)
		logPrintf("  • Max backup %d", config.Logger.File.MaxBackups)
		logPrintf("  • Compression %v", config.Logger.File.Compress)
	} else {
		logPrintf("  Log en fichier désactivé")
	}
	if config.Logger.Syslog.Enable {
		logPrintf("  Log en syslog activé")
		logPrintf("  • Protocol %s", config.Logger.Syslog.Protocol)
		logPrintf("  • Address %s", config.Logger.Syslog.Address)
		logPrintf("  • Tag %s", config.Logger.Syslog.Tag)
		logPrintf("  • Priority %v", config.Logger.Syslog.Priority)
	} else {
		logPrintf("  Log en syslog désactivé")
	}
}

// Masquer le mot de passe éventuel d'un DSN (user:pass@...)
func redactDsn(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at == -1 {
		return dsn
	}
	creds := dsn[:at]
	if i := strings.Index(creds, "://"); i != -1 {
		creds = creds[i+3:]
	}
	colon := strings.Index(creds, ":")
	if colon == -1 {
		return dsn
	}
	return strings.Replace(dsn, creds, creds[:colon]+":***", 1)
}

// Info logue avec printf
func logPrintf(format string, a ...any) {
	log.Info().Msg(fmt.Sprintf(format, a...))
}
