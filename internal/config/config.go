package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chennai-transit/service-pass/internal/pkg/database"
)

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker and consumer-group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// GeoConfig holds the geocoding and routing settings. The bounding box
// constrains geocoder results to the service region.
type GeoConfig struct {
	NominatimBaseURL string
	OSRMBaseURL      string
	RegionSuffix     string
	MinLat           float64
	MinLon           float64
	MaxLat           float64
	MaxLon           float64
}

// PaymentConfig holds the payment gateway credentials.
type PaymentConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// ServiceConfig holds all configuration for the pass service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      database.PostgresConfig
	JWTConfig     JWTConfig
	KafkaConfig   KafkaConfig
	GeoConfig     GeoConfig
	PaymentConfig PaymentConfig
	SMTPConfig    SMTPConfig
}

// Load reads configuration from the environment with the PASS_ prefix.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("PASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "service_pass")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "chennai-transit.")

	v.SetDefault("GEO_NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEO_OSRM_URL", "https://router.project-osrm.org")
	v.SetDefault("GEO_REGION_SUFFIX", "Chennai")
	v.SetDefault("GEO_MIN_LAT", 12.9)
	v.SetDefault("GEO_MIN_LON", 80.1)
	v.SetDefault("GEO_MAX_LAT", 13.3)
	v.SetDefault("GEO_MAX_LON", 80.4)

	v.SetDefault("PAYMENT_BASE_URL", "https://api.razorpay.com/v1")
	v.SetDefault("PAYMENT_KEY_ID", "")
	v.SetDefault("PAYMENT_KEY_SECRET", "")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@chennai-transit.example")

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		GeoConfig: GeoConfig{
			NominatimBaseURL: v.GetString("GEO_NOMINATIM_URL"),
			OSRMBaseURL:      v.GetString("GEO_OSRM_URL"),
			RegionSuffix:     v.GetString("GEO_REGION_SUFFIX"),
			MinLat:           v.GetFloat64("GEO_MIN_LAT"),
			MinLon:           v.GetFloat64("GEO_MIN_LON"),
			MaxLat:           v.GetFloat64("GEO_MAX_LAT"),
			MaxLon:           v.GetFloat64("GEO_MAX_LON"),
		},
		PaymentConfig: PaymentConfig{
			BaseURL:   v.GetString("PAYMENT_BASE_URL"),
			KeyID:     v.GetString("PAYMENT_KEY_ID"),
			KeySecret: v.GetString("PAYMENT_KEY_SECRET"),
		},
		SMTPConfig: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
	}, nil
}
