package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInRedirectURI  string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	R2                   R2
	SecretKey            string
	CookieName           string
}

func LoadConfig() *Config {
	return &Config{
		LinkedInClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedInRedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", ""),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
