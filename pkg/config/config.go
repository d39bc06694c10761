package config

import "time"

// Member definition member_service YAML structure
type Member struct {
	Port string `mapstructure:"port"`
	IP   string `mapstructure:"ip"`

	PostgreSQL  DatabaseConfig `mapstructure:"pg"`
	RedisMember RedisConfig    `mapstructure:"redis"`
}

// Story definition story_service YAML structure
type Story struct {
	Port string `mapstructure:"port"`

	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Rabbit     RabbitConfig   `mapstructure:"rabbit"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
}

// Message definition message_service YAML structure
type Message struct {
	Port string `mapstructure:"port"`

	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	MinIO      MinIOConfig    `mapstructure:"minio"`
	Rabbit     RabbitConfig   `mapstructure:"rabbit"`
	Media      MediaConfig    `mapstructure:"media"`
}

// Notification definition notification_service YAML structure
type Notification struct {
	Port string `mapstructure:"port"`

	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Rabbit   RabbitConfig   `mapstructure:"rabbit"`
}

// ServiceConfig definition service port & name
type ServiceConfig struct {
	Port string `mapstructure:"service_port"`
	Name string `mapstructure:"service_name"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// RabbitConfig definition rabbitmq setting
type RabbitConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Queue         string `mapstructure:"queue"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// MediaConfig definition media pipeline setting
type MediaConfig struct {
	TmpDir        string        `mapstructure:"tmp_dir"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
}
