package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGitHub  = "github"
	BackendCouchDB = "couchdb"
	BackendMemory  = "memory"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	GitHub    GitHubConfig
	CouchDB   CouchDBConfig
	Transform TransformConfig
	Notes     NotesConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type StoreConfig struct {
	Backend string
}

type GitHubConfig struct {
	APIURL        string
	Token         string
	Owner         string
	Repo          string
	Branch        string
	Path          string
	CommitMessage string
	Timeout       time.Duration
}

type CouchDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	DocID    string
}

type TransformConfig struct {
	ObfuscatorURL string
	FilterURL     string
	Timeout       time.Duration
}

type NotesConfig struct {
	PostPassword     string
	VisibilityMarker string
	ConflictRetries  int
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxClients      int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	godotenv.Load()

	githubTimeout, err := time.ParseDuration(getEnv("GITHUB_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GITHUB_TIMEOUT: %w", err)
	}

	transformTimeout, err := time.ParseDuration(getEnv("TRANSFORM_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSFORM_TIMEOUT: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendGitHub)),
		},
		GitHub: GitHubConfig{
			APIURL:        getEnv("GITHUB_API_URL", "https://api.github.com"),
			Token:         getEnv("GITHUB_TOKEN", ""),
			Owner:         getEnv("GITHUB_REPO_OWNER", ""),
			Repo:          getEnv("GITHUB_REPO_NAME", ""),
			Branch:        getEnv("GITHUB_BRANCH", "main"),
			Path:          getEnv("GITHUB_NOTES_PATH", "notes.json"),
			CommitMessage: getEnv("GITHUB_COMMIT_MESSAGE", "Update notes"),
			Timeout:       githubTimeout,
		},
		CouchDB: CouchDBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "notes"),
			DocID:    getEnv("DB_DOC_ID", "notes"),
		},
		Transform: TransformConfig{
			ObfuscatorURL: getEnv("OBFUSCATOR_URL", ""),
			FilterURL:     getEnv("FILTER_URL", ""),
			Timeout:       transformTimeout,
		},
		Notes: NotesConfig{
			PostPassword:     getEnv("NOTES_POST_PASSWORD", ""),
			VisibilityMarker: getEnv("NOTES_VISIBILITY_MARKER", "roblox"),
			ConflictRetries:  getEnvAsInt("NOTES_CONFLICT_RETRIES", 0),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
			WriteWait:       10 * time.Second,
			PongWait:        60 * time.Second,
			PingPeriod:      54 * time.Second,
			MaxClients:      getEnvAsInt("WS_MAX_CLIENTS", 1000),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

// Validate checks the settings the selected backend cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendGitHub:
		if c.GitHub.Token == "" {
			errs = append(errs, errors.New("GITHUB_TOKEN is required"))
		}
		if c.GitHub.Owner == "" {
			errs = append(errs, errors.New("GITHUB_REPO_OWNER is required"))
		}
		if c.GitHub.Repo == "" {
			errs = append(errs, errors.New("GITHUB_REPO_NAME is required"))
		}
		if c.GitHub.Path == "" {
			errs = append(errs, errors.New("GITHUB_NOTES_PATH must not be empty"))
		}
	case BackendCouchDB:
		if c.CouchDB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	if c.Notes.PostPassword == "" {
		errs = append(errs, errors.New("NOTES_POST_PASSWORD is required"))
	}
	if c.Notes.ConflictRetries < 0 {
		errs = append(errs, errors.New("NOTES_CONFLICT_RETRIES must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *CouchDBConfig) URL() string {
	return fmt.Sprintf("http://%s:%s@%s:%s", c.User, c.Password, c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
