package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUser  string `json:"dbuser"`
	DBPass  string `json:"dbpass"`

	RedisAddr string `json:"redisaddr"`
	RedisPass string `json:"redispass"`
	RedisDB   int    `json:"redisdb"`

	SMTPHost    string `json:"smtphost"`
	SMTPPort    uint16 `json:"smtpport"`
	EmailUser   string `json:"emailuser"`
	EmailPass   string `json:"emailpass"`
	AMQPURL     string `json:"amqpurl"`
	MailQueue   string `json:"mailqueue"`
	WhatsAppURL string `json:"whatsappurl"`
	WhatsAppTok string `json:"whatsapptoken"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// Load environment variables from .env file. A missing file is fine when
		// the environment is already populated (containers, CI).
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
		smtpPort, _ := strconv.ParseUint(os.Getenv("SMTPPORT"), 10, 16)
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

		// Initialize the Config struct with values from environment variables.
		config = &Config{
			AppName:     os.Getenv("APPNAME"),
			AppEnv:      os.Getenv("APPENV"),
			AppPort:     uint16(appPort),
			GinMode:     os.Getenv("GINMODE"),
			DBHost:      os.Getenv("DBHOST"),
			DBPort:      uint16(dbPort),
			DBName:      os.Getenv("DBNAME"),
			DBUser:      os.Getenv("DBUSER"),
			DBPass:      os.Getenv("DBPASS"),
			RedisAddr:   os.Getenv("REDIS_ADDR"),
			RedisPass:   os.Getenv("REDIS_PASS"),
			RedisDB:     redisDB,
			SMTPHost:    os.Getenv("SMTPHOST"),
			SMTPPort:    uint16(smtpPort),
			EmailUser:   os.Getenv("EMAIL_USER"),
			EmailPass:   os.Getenv("EMAIL_PASS"),
			AMQPURL:     os.Getenv("AMQP_URL"),
			MailQueue:   os.Getenv("MAIL_QUEUE"),
			WhatsAppURL: os.Getenv("WHATSAPP_API_URL"),
			WhatsAppTok: os.Getenv("WHATSAPP_TOKEN"),
		}
	})
	return config
}

// ResetForTesting clears the singleton so tests can reload a fresh Config.
// This should only be used in tests.
func ResetForTesting() {
	config = nil
	once = sync.Once{}
}

// ConnectPostgres establishes a connection to a PostgreSQL database using the configuration values.
func ConnectPostgres() (*gorm.DB, error) {
	cfg := LoadConfig()
	if cfg.AppEnv == "test" || os.Getenv("APPENV") == "test" {
		// In-memory database for tests; shared cache keeps one DB per process.
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	}
	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBPort)

	// Open a database connection.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
