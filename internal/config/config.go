// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// EnvPrefix 是环境变量覆盖配置时使用的前缀，例如 CHATSTAT_DATASETS_DATASET1_SOURCE。
const EnvPrefix = "CHATSTAT"

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Datasets      DatasetsConfig      `mapstructure:"datasets"`
	Report        ReportConfig        `mapstructure:"report"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DatasetsConfig 描述两份聊天导出数据的来源。
// Source 可以是本地路径，也可以是 minio://bucket/object。
type DatasetsConfig struct {
	Dataset1    DatasetSourceConfig `mapstructure:"dataset1"`
	Dataset2    DatasetSourceConfig `mapstructure:"dataset2"`
	TimeLayouts []string            `mapstructure:"time_layouts"`
	Parallel    bool                `mapstructure:"parallel"`
}

// DatasetSourceConfig 存储单个数据集的来源。
type DatasetSourceConfig struct {
	Source string `mapstructure:"source"`
}

// ReportConfig 存储视图计算相关的参数。
type ReportConfig struct {
	TopN              int      `mapstructure:"top_n"`
	WordCloudMaxWords int      `mapstructure:"word_cloud_max_words"`
	ExtraStopwords    []string `mapstructure:"extra_stopwords"`
	CacheTTLMinutes   int      `mapstructure:"cache_ttl_minutes"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置，DSN 为空时不记录加载历史。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置，Addr 为空时不启用视图缓存。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig 存储 Kafka 相关的配置，Brokers 为空时刷新请求同步执行。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// JWTConfig 存储管理接口令牌相关的配置。
type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

// MetricsConfig 控制 Prometheus 指标的暴露。
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("datasets.dataset1.source", "data/whatsapp_chat_analysis/Cleaned_data.csv")
	v.SetDefault("datasets.dataset2.source", "data/whatsapp_chat/Cleaned_data.csv")
	v.SetDefault("datasets.parallel", true)
	v.SetDefault("report.top_n", 10)
	v.SetDefault("report.word_cloud_max_words", 200)
	v.SetDefault("report.cache_ttl_minutes", 60)
	v.SetDefault("datasets.time_layouts", []string{})
	v.SetDefault("report.extra_stopwords", []string{})
	// 以下键没有有意义的默认值，注册后环境变量才能在没有配置文件时生效
	v.SetDefault("log.output_path", "")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("elasticsearch.addresses", "")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("kafka.topic", "chat-dataset-refresh")
	v.SetDefault("kafka.group_id", "chat-analysis-go-consumer")
	v.SetDefault("elasticsearch.index_name", "chat_messages")
	v.SetDefault("jwt.token_expire_hours", 24)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load 从指定路径读取 YAML 配置并返回解析后的结构体。
// 配置文件不存在时仅使用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	// .env 是可选的，加载失败（通常是文件不存在）不影响后续流程
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return &cfg, nil
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}
