package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
)

// envFiles 依次尝试加载的 .env 路径，找到第一个即停止
var envFiles = []string{".env", "../.env"}

// Config 服务配置
type Config struct {
	// HTTP 服务端口
	HTTPPort string
	// gRPC 服务端口，为空时不启动
	GRPCPort string
	// 最大并发数
	MaxConcurrent int
	// 请求超时时间
	RequestTimeout time.Duration
	// 连接池大小
	MaxIdleConns int
	// 每个主机的最大连接数
	MaxConnsPerHost int
	// User-Agent（远程导入时使用）
	UserAgent string
	// 请求体上限
	MaxBodyBytes int64

	// 不可信内容模式（博客管理员也不被信任）
	UntrustedContentMode bool
	// URL 协议白名单
	AllowedSchemes []string
	// width/height 上限
	MaxDimension int

	// Redis URL（用于队列消费）
	RedisURL string
	// 消费者名称
	ConsumerName string
	// 审计：PostgreSQL DSN
	AuditPostgresDSN string
	// 审计：Redis 列表名
	AuditRedisList string
}

// Load 加载 .env（如存在）后读取环境变量
func Load() *Config {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}
	return DefaultConfig()
}

// DefaultConfig 从环境变量读取配置，缺省时使用默认值
func DefaultConfig() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		GRPCPort:             getEnv("GRPC_PORT", ""),
		MaxConcurrent:        getEnvInt("MAX_CONCURRENT", 100),
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 15000)) * time.Millisecond,
		MaxIdleConns:         getEnvInt("MAX_IDLE_CONNS", 100),
		MaxConnsPerHost:      getEnvInt("MAX_CONNS_PER_HOST", 10),
		UserAgent:            getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		UntrustedContentMode: getEnvBool("WEBLOG_ADMINS_UNTRUSTED", false),
		AllowedSchemes:       getEnvList("ALLOWED_URL_SCHEMES", sanitizer.DefaultSchemes),
		MaxDimension:         getEnvInt("MAX_DIMENSION", sanitizer.DefaultMaxDimension),
		RedisURL:             getEnv("REDIS_URL", ""),
		ConsumerName:         getEnv("CONSUMER_NAME", "go-sanitizer-1"),
		AuditPostgresDSN:     getEnv("AUDIT_POSTGRES_DSN", ""),
		AuditRedisList:       getEnv("AUDIT_REDIS_LIST", ""),
	}
}

// SanitizerOptions 净化器配置
func (c *Config) SanitizerOptions() sanitizer.Options {
	return sanitizer.Options{
		UntrustedContentMode: c.UntrustedContentMode,
		AllowedSchemes:       c.AllowedSchemes,
		MaxDimension:         c.MaxDimension,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList 逗号分隔，忽略空项并转小写
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
