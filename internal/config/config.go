package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 汇总服务端与 worker 的全部配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Storage       StorageConfig       `mapstructure:"storage"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	S3            S3Config            `mapstructure:"s3"`
	RabbitMQ      RabbitMQConfig      `mapstructure:"rabbitmq"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Log           LogConfig           `mapstructure:"log"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Preview       PreviewConfig       `mapstructure:"preview"`
	Tree          TreeConfig          `mapstructure:"tree"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin 模式: debug / release / test
	Gzip bool   `mapstructure:"gzip"`
}

// DatabaseConfig 数据库配置, driver 支持 mysql 和 sqlite
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig 对象存储通用配置
type StorageConfig struct {
	Type               string        `mapstructure:"type"` // minio / aliyun_oss / s3
	Bucket             string        `mapstructure:"bucket"`
	PresignedURLExpiry time.Duration `mapstructure:"presigned_url_expiry"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// S3Config 兼容 S3 协议的存储 (AWS S3 / 腾讯云 COS / R2)
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// RabbitMQConfig RabbitMQ配置
type RabbitMQConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	PurgeQueue string `mapstructure:"purge_queue"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// AdminConfig 管理员账号, 密码以 bcrypt 哈希保存
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// PreviewConfig 文件预览的读取上限
type PreviewConfig struct {
	JSONMaxBytes     int64         `mapstructure:"json_max_bytes"`
	MarkdownMaxBytes int64         `mapstructure:"markdown_max_bytes"`
	VideoURLTTL      time.Duration `mapstructure:"video_url_ttl"`
}

// TreeConfig 文件树分页
type TreeConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

var AppConfig *Config // 全局应用配置实例

// setDefaults 注册默认值, 配置文件和环境变量都缺失时生效
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.gzip", true)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.bucket", "datahub")
	v.SetDefault("storage.presigned_url_expiry", time.Hour)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("rabbitmq.purge_queue", "dataset.purge")
	v.SetDefault("jwt.expires_in", 24*time.Hour)
	v.SetDefault("jwt.issuer", "go-datahub")
	v.SetDefault("admin.username", "admin")
	v.SetDefault("log.output_path", "logs/app.log")
	v.SetDefault("log.error_path", "logs/error.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("elasticsearch.index", "datasets")
	v.SetDefault("preview.json_max_bytes", 512*1024)
	v.SetDefault("preview.markdown_max_bytes", 256*1024)
	v.SetDefault("preview.video_url_ttl", time.Hour)
	v.SetDefault("tree.default_limit", 50)

	// 无默认值的键也需要注册, 否则 Unmarshal 时读不到对应的环境变量
	for _, key := range []string{
		"database.dsn", "redis.password", "jwt.secret_key", "admin.password_hash",
		"minio.endpoint", "minio.access_key_id", "minio.secret_access_key", "minio.use_ssl",
		"aliyun_oss.endpoint", "aliyun_oss.access_key_id", "aliyun_oss.secret_access_key", "aliyun_oss.use_ssl",
		"s3.endpoint", "s3.access_key_id", "s3.secret_access_key", "s3.use_path_style", "s3.public_base_url",
		"rabbitmq.enabled", "rabbitmq.url",
		"elasticsearch.enabled", "elasticsearch.addresses", "elasticsearch.username", "elasticsearch.password",
	} {
		_ = v.BindEnv(key)
	}
}

// LoadConfig 加载配置: .env -> config.yaml -> DATAHUB_* 环境变量
func LoadConfig() (*Config, error) {
	// .env 不存在不算错误
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-datahub/")

	// 例如 DATAHUB_DATABASE_DSN 对应 database.dsn
	v.SetEnvPrefix("DATAHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Println("Warning: config file not found, using environment variables or default values.")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	log.Println("Configuration loaded successfully with Viper.")
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate 检查启动所必需的配置项
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: database.dsn is required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("config: jwt.secret_key is required")
	}
	if c.Preview.JSONMaxBytes <= 0 || c.Preview.MarkdownMaxBytes <= 0 {
		return errors.New("config: preview byte caps must be positive")
	}
	if c.Tree.DefaultLimit <= 0 {
		return errors.New("config: tree.default_limit must be positive")
	}
	return nil
}
