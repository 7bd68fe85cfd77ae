package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port string
	DSN  string

	CORSOrigins []string

	// Bank transfer details rendered into VietQR payment images
	QRBankCode    string
	QRAccountNo   string
	QRAccountName string
}

// Load reads configs/.env if present and resolves all settings with
// development fallbacks.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "operis")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	return Config{
		Port: getenv("PORT", "8080"),
		DSN:  "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode,
		CORSOrigins: []string{
			getenv("FRONTEND_URL", "http://localhost:3000"),
			"http://127.0.0.1:3000",
		},
		QRBankCode:    getenv("QR_BANK_CODE", "MB"),
		QRAccountNo:   getenv("QR_ACCOUNT_NO", "6868688868888"),
		QRAccountName: getenv("QR_ACCOUNT_NAME", "CONG TY OPERIS"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
