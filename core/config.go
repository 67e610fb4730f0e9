package core

import (
	"log"
	"net"
	"net/mail"
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
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string

		DefaultFromEmailName    string
		DefaultFromEmailAddress string
		SendgridApiKey          string

		Server     ServerConfig
		Database   DatabaseConfig
		Records    RecordsConfig
		Evaluation EvaluationConfig
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// RecordsConfig points at the remote record store.
	// An empty BaseURL means the local database is used directly.
	RecordsConfig struct {
		BaseURL string
		Token   string
		Timeout time.Duration
	}

	EvaluationConfig struct {
		SaveConcurrency int
		Traits          []string
		FailureReportTo string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.DefaultFromEmailName, Address: conf.DefaultFromEmailAddress}
}

// NewConfig loads the application configuration from defaults, an optional `config/.env.<env>` file
// and the environment, in increasing order of precedence.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Sổ liên lạc")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("defaultFromEmailName", "Sổ liên lạc")
	v.SetDefault("defaultFromEmailAddress", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("serverHost", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "solienlac")
	v.SetDefault("dbUser", "solienlac")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("recordsBaseURL", "")
	v.SetDefault("recordsToken", "")
	v.SetDefault("recordsTimeout", 15*time.Second)

	v.SetDefault("evaluationSaveConcurrency", 8)
	v.SetDefault("evaluationTraits", strings.Join(DefaultTraits, ","))
	v.SetDefault("evaluationFailureReportTo", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if wd, ok := projectRoot(); ok {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Env:                     env,
		Build:                   v.GetString("build"),
		AppName:                 v.GetString("appName"),
		Debug:                   v.GetBool("debug"),
		TestMode:                v.GetBool("testMode"),
		SecretKey:               v.GetString("secretKey"),
		RollbarToken:            v.GetString("rollbarToken"),
		DefaultFromEmailName:    v.GetString("defaultFromEmailName"),
		DefaultFromEmailAddress: v.GetString("defaultFromEmailAddress"),
		SendgridApiKey:          v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			DebugHost:          v.GetString("serverDebugHost"),
			ShutdownTimeout:    v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Records: RecordsConfig{
			BaseURL: strings.TrimRight(v.GetString("recordsBaseURL"), "/"),
			Token:   v.GetString("recordsToken"),
			Timeout: v.GetDuration("recordsTimeout"),
		},
		Evaluation: EvaluationConfig{
			SaveConcurrency: v.GetInt("evaluationSaveConcurrency"),
			Traits:          splitList(v.GetString("evaluationTraits")),
			FailureReportTo: v.GetString("evaluationFailureReportTo"),
		},
	}
}

// DefaultTraits are the quality traits ("phẩm chất") rated on every report card.
var DefaultTraits = []string{"Yêu nước", "Nhân ái", "Chăm chỉ", "Trung thực", "Trách nhiệm"}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// projectRoot walks up from the working directory until it finds go.mod.
// go test changes the working directory to the package being tested.
func projectRoot() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir, true
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return "", false
		}
		currDir = newDir
	}
}
