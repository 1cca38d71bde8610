package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail string
		RollbarToken     string
		SendgridApiKey   string

		Server    ServerConfig
		Database  DatabaseConfig
		Assistant AssistantConfig
		Reports   ReportsConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ChatRequestsPerMinute     int
	}

	DatabaseConfig struct {
		Engine        string // memory | postgres
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AssistantConfig struct {
		LLMEnabled      bool
		OpenAIKey       string
		OpenAIBaseURL   string
		Model           string
		LLMTimeout      time.Duration
		StateTTL        time.Duration
		ShortMessageLen int
	}

	ReportsConfig struct {
		Dir          string
		DownloadPath string
		Timeout      time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

func (dbc DatabaseConfig) InMemory() bool {
	return dbc.Engine == "" || dbc.Engine == "memory"
}

// NewConfig loads the app configuration from defaults, `config/.env.<env>` and environment variables
// prefixed with the current env (eg: `DEV_DATABASE_HOST`).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	setDefaults(v, env)

	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			ChatRequestsPerMinute:     v.GetInt("server.chatRequestsPerMinute"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Assistant: AssistantConfig{
			LLMEnabled:      v.GetBool("assistant.llmEnabled"),
			OpenAIKey:       v.GetString("assistant.openaiKey"),
			OpenAIBaseURL:   v.GetString("assistant.openaiBaseURL"),
			Model:           v.GetString("assistant.model"),
			LLMTimeout:      v.GetDuration("assistant.llmTimeout"),
			StateTTL:        v.GetDuration("assistant.stateTTL"),
			ShortMessageLen: v.GetInt("assistant.shortMessageLen"),
		},
		Reports: ReportsConfig{
			Dir:          v.GetString("reports.dir"),
			DownloadPath: v.GetString("reports.downloadPath"),
			Timeout:      v.GetDuration("reports.timeout"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "EduTrack")
	v.SetDefault("secretKey", "k8#r2t!vz0_q@6m+1x^9ceb=4u$wd7p(hy)nlgj3s5fao*")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "EduTrack <noreply@localhost>")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.chatRequestsPerMinute", 30)

	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "edutrack")
	v.SetDefault("database.user", "edutrack")
	v.SetDefault("database.password", "edutrack")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("assistant.llmEnabled", false)
	v.SetDefault("assistant.model", "gpt-3.5-turbo")
	v.SetDefault("assistant.llmTimeout", 15*time.Second)
	v.SetDefault("assistant.stateTTL", 2*time.Hour)
	v.SetDefault("assistant.shortMessageLen", 10)

	v.SetDefault("reports.dir", filepath.Join(os.TempDir(), "edutrack-reports"))
	v.SetDefault("reports.downloadPath", "/v1/reports/download")
	v.SetDefault("reports.timeout", 30*time.Second)
}

// NewTestConfig returns a Config suitable for tests: in-memory storage, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "EduTrack",
		SecretKey:        "test-secret",
		WorkDir:          Getwd(),
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "EduTrack <noreply@localhost>",
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ChatRequestsPerMinute:     1000,
		},
		Database: DatabaseConfig{Engine: "memory"},
		Assistant: AssistantConfig{
			LLMTimeout:      time.Second,
			StateTTL:        time.Hour,
			ShortMessageLen: 10,
		},
		Reports: ReportsConfig{
			Dir:          filepath.Join(os.TempDir(), fmt.Sprintf("edutrack-test-reports-%d", os.Getpid())),
			DownloadPath: "/v1/reports/download",
			Timeout:      5 * time.Second,
		},
	}
}
