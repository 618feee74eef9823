// Package config reads the console configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

//go:embed version
var version string

//go:embed name
var name string

var loadEnvOnce sync.Once

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// SessionBackend selects where session records are kept.
type SessionBackend string

const (
	SessionBackendRedis  SessionBackend = "redis"
	SessionBackendMemory SessionBackend = "memory"
)

const (
	defaultPort          = 2053
	defaultAPIBase       = "http://localhost:5000/api"
	defaultAPITimeout    = 15 * time.Second
	defaultSessionMaxAge = 1440
	defaultHealthCron    = "@every 30s"
)

// LoadEnv loads a .env file once. Variables already set in the process win.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

func getEnv(key string) string {
	LoadEnv()
	return strings.TrimSpace(os.Getenv(key))
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := getEnv("CONSOLE_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(strings.ToLower(logLevel))
}

func IsDebug() bool {
	return getEnv("CONSOLE_DEBUG") == "true"
}

func GetLogFolder() string {
	logFolderPath := getEnv("CONSOLE_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetDBFolderPath() string {
	dbFolderPath := getEnv("CONSOLE_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/procode-console"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetListen() string {
	return getEnv("CONSOLE_LISTEN")
}

func GetPort() (int, error) {
	raw := getEnv("CONSOLE_PORT")
	if raw == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("CONSOLE_PORT is not a valid port: %q", raw)
	}
	return port, nil
}

// GetAPIBase returns the backend base address without a trailing slash.
func GetAPIBase() string {
	base := getEnv("CONSOLE_API_BASE")
	if base == "" {
		base = defaultAPIBase
	}
	return strings.TrimRight(base, "/")
}

func GetAPITimeout() time.Duration {
	raw := getEnv("CONSOLE_API_TIMEOUT")
	if raw == "" {
		return defaultAPITimeout
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultAPITimeout
	}
	return time.Duration(seconds) * time.Second
}

// GetSessionMaxAge returns the session lifetime in minutes.
func GetSessionMaxAge() int {
	raw := getEnv("CONSOLE_SESSION_MAX_AGE")
	if raw == "" {
		return defaultSessionMaxAge
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return defaultSessionMaxAge
	}
	return minutes
}

func GetSessionSecret() string {
	return getEnv("CONSOLE_SESSION_SECRET")
}

func GetSessionBackend() SessionBackend {
	switch SessionBackend(strings.ToLower(getEnv("CONSOLE_SESSION_BACKEND"))) {
	case SessionBackendMemory:
		return SessionBackendMemory
	default:
		return SessionBackendRedis
	}
}

// GetRedisAddr returns the external Redis address. Empty means embedded.
func GetRedisAddr() string {
	return getEnv("CONSOLE_REDIS_ADDR")
}

func GetHealthCron() string {
	spec := getEnv("CONSOLE_HEALTH_CRON")
	if spec == "" {
		return defaultHealthCron
	}
	return spec
}

// CookieKeys derives the cookie authentication and encryption keys from secret.
func CookieKeys(secret string) (hashKey, blockKey []byte, err error) {
	if secret == "" {
		return nil, nil, fmt.Errorf("session secret is empty")
	}
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(GetName()+" cookie"))
	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err = io.ReadFull(reader, hashKey); err != nil {
		return nil, nil, err
	}
	if _, err = io.ReadFull(reader, blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}
