package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Timezone    string `env:"TIMEZONE" envDefault:"Asia/Tokyo"`
	Server      struct {
		Port               string   `env:"PORT" envDefault:"3000"`
		ReadTimeout        int      `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout       int      `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout        int      `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout    int      `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN            string `env:"DSN,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD"`
		DB               int    `env:"DB" envDefault:"0"`
		ConnectTimeout   int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
	KV struct {
		Backend          string `env:"BACKEND" envDefault:"redis"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"10"`
		DynamoDB         struct {
			Table    string `env:"TABLE" envDefault:"shift_board_kv"`
			Region   string `env:"REGION" envDefault:"ap-northeast-1"`
			Endpoint string `env:"ENDPOINT"`
		} `envPrefix:"DYNAMODB_"`
	} `envPrefix:"KV_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		MailQueue      string `env:"MAIL_QUEUE" envDefault:"email_queue"`
	} `envPrefix:"RABBITMQ_"`
	Email struct {
		FromName string `env:"FROM_NAME" envDefault:"Shift Board"`
		SMTP     struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // 15 分钟
	} `envPrefix:"OTP_"`
	Invite struct {
		CodeLength int `env:"CODE_LENGTH" envDefault:"6"`
		MaxRetries int `env:"MAX_RETRIES" envDefault:"5"`
	} `envPrefix:"INVITE_"`
	Seed struct {
		UserPassword string `env:"USER_PASSWORD" envDefault:"password123"`
		EmailDomain  string `env:"EMAIL_DOMAIN" envDefault:"example.com"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// Location 返回计算“当前月份”等日期时使用的时区，配置无效时退回 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
