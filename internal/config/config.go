package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config centraliza la configuración del core, cargada desde variables de
// entorno (con .env como fuente opcional en desarrollo).
type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTTTLHours int
	ResetTTLMin int

	InstitutionalDomain string

	VehicleMinCapacity int
	VehicleMaxCapacity int

	UploadMaxSizeMB int
	UploadsDir      string

	RouteProvider    string // ors | osrm | google
	ORSAPIKey        string
	ORSBaseURL       string
	OSRMBaseURL      string
	GoogleAPIKey     string
	GoogleBaseURL    string
	RouteCacheTTLMin int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPPassword string
	AppURL       string
}

// LoadConfig carga la configuración desde el entorno, aplicando valores por
// defecto razonables para desarrollo local.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "wheels_core"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "wheels_core"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24*7),
		ResetTTLMin: getEnvInt("PASSWORD_RESET_TTL_MIN", 15),

		InstitutionalDomain: getEnv("INSTITUTIONAL_DOMAIN", "unisabana.edu.co"),

		VehicleMinCapacity: getEnvInt("VEHICLE_MIN_CAPACITY", 1),
		VehicleMaxCapacity: getEnvInt("VEHICLE_MAX_CAPACITY", 8),

		UploadMaxSizeMB: getEnvInt("UPLOAD_MAX_SIZE_MB", 5),
		UploadsDir:      getEnv("UPLOADS_DIR", "./uploads"),

		RouteProvider:    getEnv("ROUTE_PROVIDER", "ors"),
		ORSAPIKey:        getEnv("ORS_API_KEY", ""),
		ORSBaseURL:       getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		OSRMBaseURL:      getEnv("OSRM_BASE_URL", "http://localhost:5000"),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GoogleBaseURL:    getEnv("GOOGLE_BASE_URL", "https://maps.googleapis.com/maps/api/directions/json"),
		RouteCacheTTLMin: getEnvInt("ROUTE_CACHE_TTL_MIN", 10),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@unisabana.edu.co"),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		AppURL:       getEnv("APP_URL", "http://localhost:3000"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
