package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	Env       string
	Port      string
	Storage   string
	MongoURI  string
	DBName    string
	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SchedulerInterval  time.Duration
	JobMaxAttempts     int
	JobBackoffInitial  time.Duration
	JobBackoffMax      time.Duration
	WorkerConcurrency  int
	AllowedOrigins     []string
	RateLimitPerMinute int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	AdminEmail   string

	FirebaseProjectID string
}

// LoadSettings loads .env when present and reads the environment.
func LoadSettings() Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	return Settings{
		Env:       getEnv("ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		Storage:   strings.ToLower(getEnv("STORAGE", StorageMongo)),
		MongoURI:  mongoURI,
		DBName:    getEnv("DB_NAME", "barrim_network"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		SchedulerInterval:  getDuration("SCHEDULER_INTERVAL", time.Hour),
		JobMaxAttempts:     getInt("JOB_MAX_ATTEMPTS", 3),
		JobBackoffInitial:  getDuration("JOB_BACKOFF_INITIAL", 2*time.Second),
		JobBackoffMax:      getDuration("JOB_BACKOFF_MAX", time.Minute),
		WorkerConcurrency:  getInt("WORKER_CONCURRENCY", 2),
		AllowedOrigins:     getList("ALLOWED_ORIGINS"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),

		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", "barrim-93482"),
	}
}

// IsDevelopment reports whether ENV names a development environment.
func (s Settings) IsDevelopment() bool {
	return s.Env == "development" || s.Env == "dev"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
