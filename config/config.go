package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/joho/godotenv"
)

const (
	StoreWorkbook = "workbook"
	StoreMySQL    = "mysql"
)

type Config struct {
	// Record store
	StoreDriver  string
	WorkbookPath string

	// Database (STORE_DRIVER=mysql)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (cross-process write lock)
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Reports
	ReportsDir string
	SummaryDir string

	// Admin login
	JWTSecret         string
	JWTExpiresIn      time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// Outbound email
	EmailSender   string
	EmailReceiver string
	EmailPassword string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3BucketName       string
	BackupCron         string

	// Server
	Port     string
	AppEnv   string
	SeedDemo bool

	// Logging
	LogLevel string
	LogFile  string
}

func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local"
}

// S3Enabled reports whether report archiving and backups have somewhere to go.
func (c *Config) S3Enabled() bool {
	return strings.TrimSpace(c.S3BucketName) != ""
}

var AppConfig *Config

func LoadConfig() {
	useSSM := getEnv("USE_SSM", "false") == "true"

	var paramMap map[string]string

	basePath := getEnv("SSM_BASE_PATH", "/chessclass")
	stage := getEnv("STAGE", getEnv("APP_ENV", "production"))
	basePath = strings.TrimRight(basePath, "/")
	prefix := basePath + "/" + stage

	if useSSM {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(getEnv("AWS_REGION", "us-east-1"))})
		if err != nil {
			log.Fatal("Failed to create AWS session:", err)
		}
		log.Printf("Using AWS SSM Parameter Store (prefix=%s)", prefix)
		paramMap = fetchSSMParameters(ssm.New(sess), prefix)
	} else {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using environment variables")
		}
	}

	getVal := func(key, def string) string {
		if useSSM {
			if v, ok := paramMap[strings.ToUpper(key)]; ok && v != "" {
				return v
			}
		}
		return getEnv(strings.ToUpper(key), def)
	}

	jwtExpires, err := parseDuration(getVal("JWT_EXPIRES_IN", "24h"))
	if err != nil {
		log.Fatal("Invalid JWT_EXPIRES_IN format:", err)
	}

	AppConfig = &Config{
		StoreDriver:  strings.ToLower(getVal("STORE_DRIVER", StoreWorkbook)),
		WorkbookPath: getVal("WORKBOOK_PATH", "chess_students.xlsx"),

		DBHost:     getVal("DB_HOST", "localhost"),
		DBPort:     getVal("DB_PORT", "3306"),
		DBUser:     getVal("DB_USER", "root"),
		DBPassword: getVal("DB_PASSWORD", ""),
		DBName:     getVal("DB_NAME", "chessclass"),

		RedisHost:     getVal("REDIS_HOST", ""),
		RedisPort:     getVal("REDIS_PORT", "6379"),
		RedisPassword: getVal("REDIS_PASSWORD", ""),

		ReportsDir: getVal("REPORTS_DIR", "reports"),
		SummaryDir: getVal("SUMMARY_DIR", "."),

		JWTSecret:         getVal("JWT_SECRET", "change_me_chess_secret"),
		JWTExpiresIn:      jwtExpires,
		AdminUsername:     getVal("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getVal("ADMIN_PASSWORD_HASH", ""),

		EmailSender:   getVal("EMAIL_SENDER", ""),
		EmailReceiver: getVal("EMAIL_RECEIVER", ""),
		EmailPassword: getVal("EMAIL_PASSWORD", ""),

		AWSRegion:          getVal("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getVal("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getVal("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:       getVal("S3_BUCKET_NAME", ""),
		BackupCron:         getVal("BACKUP_CRON", ""),

		Port:     getVal("PORT", "3000"),
		AppEnv:   getVal("APP_ENV", "development"),
		SeedDemo: getVal("SEED_DEMO", "false") == "true",

		LogLevel: getVal("LOG_LEVEL", "info"),
		LogFile:  getVal("LOG_FILE", "logs/app.log"),
	}

	validateConfig(AppConfig, useSSM)
}

// parseDuration extends time.ParseDuration with day (d) and week (w) suffixes.
func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err == nil {
		return d, nil
	}
	s := strings.TrimSpace(strings.ToLower(raw))
	if len(s) > 1 {
		if n, err2 := strconv.Atoi(s[:len(s)-1]); err2 == nil {
			switch s[len(s)-1] {
			case 'd':
				return time.Duration(n) * 24 * time.Hour, nil
			case 'w':
				return time.Duration(n*7) * 24 * time.Hour, nil
			}
		}
	}
	return 0, err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// fetchSSMParameters reads all parameters under prefix and returns map with UPPERCASE keys.
func fetchSSMParameters(client *ssm.SSM, prefix string) map[string]string {
	out := make(map[string]string)
	next := aws.String("")
	for {
		in := &ssm.GetParametersByPathInput{
			Path:           aws.String(prefix),
			WithDecryption: aws.Bool(true),
			Recursive:      aws.Bool(true),
		}
		if *next != "" {
			in.NextToken = next
		}
		resp, err := client.GetParametersByPath(in)
		if err != nil {
			log.Printf("Warning: unable to fetch SSM parameters for prefix %s: %v", prefix, err)
			break
		}
		for _, p := range resp.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			name := *p.Name
			key := name[strings.LastIndex(name, "/")+1:]
			if key == "" {
				continue
			}
			out[strings.ToUpper(key)] = *p.Value
		}
		if resp.NextToken == nil || *resp.NextToken == "" {
			break
		}
		next = resp.NextToken
	}
	return out
}

func validateConfig(c *Config, usedSSM bool) {
	switch c.StoreDriver {
	case StoreWorkbook, StoreMySQL:
	default:
		log.Fatalf("Unknown STORE_DRIVER %q (want %s or %s)", c.StoreDriver, StoreWorkbook, StoreMySQL)
	}

	// Only enforce stricter rules in production
	if strings.ToLower(c.AppEnv) != "production" {
		return
	}
	required := map[string]string{
		"JWT_SECRET":          c.JWTSecret,
		"ADMIN_PASSWORD_HASH": c.AdminPasswordHash,
	}
	if c.StoreDriver == StoreMySQL {
		required["DB_PASSWORD"] = c.DBPassword
	}
	for k, v := range required {
		if strings.TrimSpace(v) == "" {
			log.Fatalf("Missing required secret %s in production (SSM=%v)", k, usedSSM)
		}
	}
	if len(c.JWTSecret) < 16 {
		log.Fatal("JWT_SECRET too short (min 16 chars)")
	}
}
