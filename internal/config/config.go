package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey     string
	InquiryCSVPath   string
	RuleFilePath     string
	LookupDSN        string
	HTTPPort         string
	LogLevel         string
	JWTSecret        string
	OperatorID       string
	OperatorPassword string
	ClassifyWorkers  int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		InquiryCSVPath:   getEnv("INQUIRY_CSV_PATH", "sample/inquiries.csv"),
		RuleFilePath:     getEnv("CATEGORY_RULE_PATH", "knowledgebase/category_rules.json"),
		LookupDSN:        getEnv("LOOKUP_DATABASE_URL", "cs_lookup.db"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		OperatorID:       getEnv("OPERATOR_ID", "operator"),
		OperatorPassword: getEnv("OPERATOR_PASSWORD", ""),
		ClassifyWorkers:  getEnvAsInt("CLASSIFY_WORKERS", 4),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
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
