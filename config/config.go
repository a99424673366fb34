package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"chamcong"`

	// 固定时区，所有 job 的触发时间都按这个时区计算
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`

	// 员工名单文件（chat identity -> hồ sơ nhân viên），只读
	RosterPath string `env:"ROSTER_PATH" envDefault:"./roster.yaml"`

	// 状态文档后端：redis 或 postgres
	StateBackend string `env:"STATE_BACKEND" envDefault:"redis"`

	// PostgreSQL 配置（STATE_BACKEND=postgres 时使用）
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"chamcong"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"10"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"50"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"chamcong"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// Chat gateway 配置：webhook 入口的共享密钥 + 出站广播地址
	ChatGatewayURL    string `env:"CHAT_GATEWAY_URL"`
	ChatGatewayToken  string `env:"CHAT_GATEWAY_TOKEN"`
	ChatBroadcastID   string `env:"CHAT_BROADCAST_ID"`
	ChatWebhookSecret string `env:"CHAT_WEBHOOK_SECRET"`

	// Timekeep 配置（远程考勤系统）
	TimekeepAuthURL   string `env:"TIMEKEEP_AUTH_URL"`
	TimekeepDataURL   string `env:"TIMEKEEP_DATA_URL"`
	TimekeepOrigin    string `env:"TIMEKEEP_ORIGIN" envDefault:"https://timekeep.mobifi.vn"`
	TimekeepTenantID  string `env:"TIMEKEEP_TENANT_ID" envDefault:"1"`
	TimekeepProbeUser string `env:"TIMEKEEP_PROBE_USER" envDefault:"NV150"`

	// Form gateway 配置（外部表单提交机构）
	FormGatewayURL string `env:"FORM_GATEWAY_URL"`

	// Job 触发时间（HH:MM，按 Timezone 计算）
	PurgeAt         string `env:"JOB_PURGE_AT" envDefault:"07:00"`
	ProbeAt         string `env:"JOB_PROBE_AT" envDefault:"07:30"`
	MorningSubmitAt string `env:"JOB_MORNING_SUBMIT_AT" envDefault:"07:50"`
	MorningVerifyAt string `env:"JOB_MORNING_VERIFY_AT" envDefault:"07:56"`
	EveningSubmitAt string `env:"JOB_EVENING_SUBMIT_AT" envDefault:"17:01"`
	EveningVerifyAt string `env:"JOB_EVENING_VERIFY_AT" envDefault:"17:07"`

	// 自动提交 pass 的并发与抖动
	SubmitWorkerCap        int `env:"SUBMIT_WORKER_CAP" envDefault:"10"`
	SubmitJitterMaxSeconds int `env:"SUBMIT_JITTER_MAX_SECONDS" envDefault:"240"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
}

func init() {

	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.StateBackend != "redis" && Cfg.StateBackend != "postgres" {
		log.Fatalf("STATE_BACKEND must be redis or postgres, got %q", Cfg.StateBackend)
	}

	if _, err := time.LoadLocation(Cfg.Timezone); err != nil {
		log.Fatalf("TIMEZONE %q is not a valid location: %v", Cfg.Timezone, err)
	}

	if Cfg.ChatGatewayURL == "" {
		log.Printf("WARN: CHAT_GATEWAY_URL is not set, outbound notices will not be delivered")
	}
	if Cfg.TimekeepAuthURL == "" || Cfg.TimekeepDataURL == "" {
		log.Printf("WARN: TIMEKEEP_AUTH_URL/TIMEKEEP_DATA_URL are not set, verification passes will fail")
	}
	if Cfg.FormGatewayURL == "" {
		log.Printf("WARN: FORM_GATEWAY_URL is not set, automatic submission will fail")
	}
}

// Location 返回配置的时区，validateConfig 已保证合法
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
