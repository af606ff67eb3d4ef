package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv" // 讀取 .env 檔案
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ReadScope 決定「已讀」與「未讀數」的計算範圍
type ReadScope string

const (
	// ReadScopeGlobal 以使用者為單位：加入任一聊天室即清除所有未讀
	ReadScopeGlobal ReadScope = "global"
	// ReadScopeRoom 僅處理該聊天室另一位參與者傳來的訊息
	ReadScopeRoom ReadScope = "room"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// ErrMissingJWTSecret 表示非開發環境下沒有設定 JWT_SECRET
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside development")

// Config 結構體用於儲存應用程式的配置
type Config struct {
	AppEnv     string
	Port       string
	Store      string
	MongoDBURI string
	DBName     string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	LogLevel  string
	LogFormat string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	ReadScope          ReadScope
	EnforceSellerMatch bool
	MaxMessageLength   int
	SanitizeMessages   bool
	SendRatePerMinute  int
	SendBurst          int
}

// LoadConfig 載入配置，優先從環境變數讀取，其次從 .env 檔案讀取
func LoadConfig(logger logrus.FieldLogger) (*Config, error) {
	// 嘗試載入 .env 檔案，如果不存在也不會報錯
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:             v.GetString("APP_ENV"),
		Port:               v.GetString("PORT"),
		Store:              strings.ToLower(v.GetString("STORE")),
		MongoDBURI:         v.GetString("MONGODB_URI"),
		DBName:             v.GetString("DB_NAME"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisChannel:       v.GetString("REDIS_CHANNEL"),
		ReadScope:          ReadScope(strings.ToLower(v.GetString("READ_SCOPE"))),
		EnforceSellerMatch: v.GetBool("ENFORCE_SELLER_MATCH"),
		MaxMessageLength:   v.GetInt("MAX_MESSAGE_LENGTH"),
		SanitizeMessages:   v.GetBool("SANITIZE_MESSAGES"),
		SendRatePerMinute:  v.GetInt("SEND_RATE_PER_MINUTE"),
		SendBurst:          v.GetInt("SEND_BURST"),
	}

	cfg.normalize(logger)

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = "dev-secret"
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	return cfg, nil
}

// IsDevelopment 是否為開發環境
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE", StoreMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("DB_NAME", "campus_market")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("REDIS_CHANNEL", "chat:deliver")
	v.SetDefault("READ_SCOPE", string(ReadScopeGlobal))
	v.SetDefault("ENFORCE_SELLER_MATCH", false)
	v.SetDefault("MAX_MESSAGE_LENGTH", 2000)
	v.SetDefault("SANITIZE_MESSAGES", true)
	v.SetDefault("SEND_RATE_PER_MINUTE", 60)
	v.SetDefault("SEND_BURST", 10)
}

// normalize 將不合法的值退回預設值
func (c *Config) normalize(logger logrus.FieldLogger) {
	switch c.ReadScope {
	case ReadScopeGlobal, ReadScopeRoom:
	default:
		logger.WithField("read_scope", c.ReadScope).Warn("invalid READ_SCOPE, falling back to global")
		c.ReadScope = ReadScopeGlobal
	}

	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		logger.WithField("store", c.Store).Warn("invalid STORE, falling back to mongo")
		c.Store = StoreMongo
	}

	if c.MaxMessageLength <= 0 {
		logger.WithField("max_message_length", c.MaxMessageLength).Warn("invalid MAX_MESSAGE_LENGTH, falling back to 2000")
		c.MaxMessageLength = 2000
	}
	if c.SendRatePerMinute < 0 {
		c.SendRatePerMinute = 0
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 1
	}
	if c.JWTTTL <= 0 {
		c.JWTTTL = 7 * 24 * time.Hour
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
