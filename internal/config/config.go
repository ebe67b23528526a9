package config

import (
	"strings"
	"time"

	"github.com/elastic-io/bucketzip/internal/clients"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/pipeline"
	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/elastic-io/bucketzip/internal/utils"
	"github.com/elastic-io/bucketzip/internal/zipstream"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
)

// EnvPrefix 环境变量前缀，例如 BUCKETZIP_STORAGE_REGION
const EnvPrefix = "BUCKETZIP"

type Config struct {
	// HTTP 服务
	Endpoint     string
	EnableAuth   bool
	Username     string
	Password     string
	CertFile     string
	KeyFile      string
	BodyLimit    int
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	Modules      []string

	Monitor       bool
	MemoryLimit   int
	MonitorPeriod time.Duration

	Storage source.Settings
	Archive ArchiveConfig

	// 运行时由 app 注入
	Backend source.Backend
}

// ArchiveConfig 打包流程的参数
type ArchiveConfig struct {
	Method        string
	Level         int
	ChunkSize     int
	Policy        string
	Prefetch      bool
	RelativeNames bool
	Comment       string

	PageSize        int
	FetchMode       string
	PresignExpiry   time.Duration
	TransferTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.endpoint", "localhost:1986")
	v.SetDefault("server.body_limit", "1M")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.modules", []string{"archive"})
	v.SetDefault("server.memory_limit", "2G")
	v.SetDefault("server.monitor_period", time.Minute)

	v.SetDefault("storage.provider", "s3")
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("archive.method", zipstream.Store.String())
	v.SetDefault("archive.level", -1)
	v.SetDefault("archive.chunk_size", "32K")
	v.SetDefault("archive.policy", pipeline.FailFast.String())
	v.SetDefault("archive.page_size", source.DefaultPageSize)
	v.SetDefault("archive.fetch_mode", source.ModeDirect)
	v.SetDefault("archive.presign_expiry", source.DefaultPresignExpiry)
	v.SetDefault("archive.transfer_timeout", 30*time.Second)
}

// Load 依次叠加默认值、配置文件、.env 与环境变量、命令行参数，后者优先
func Load(ctx *cli.Context) (*Config, error) {
	if file := lookupString(ctx, "env-file"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return nil, errdefs.Configuration("load env file %s: %w", file, err)
		}
	} else if utils.FileExist(".env") {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容 AWS SDK 的标准环境变量
	_ = v.BindEnv("storage.access_key", EnvPrefix+"_STORAGE_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.secret_key", EnvPrefix+"_STORAGE_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("storage.session_token", EnvPrefix+"_STORAGE_SESSION_TOKEN", "AWS_SESSION_TOKEN")
	_ = v.BindEnv("storage.region", EnvPrefix+"_STORAGE_REGION", "AWS_REGION")

	if file := lookupString(ctx, "config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errdefs.Configuration("read config file %s: %w", file, err)
		}
	}

	for _, b := range bindings {
		if isSet(ctx, b.flag) {
			v.Set(b.key, b.get(ctx, b.flag))
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	bodyLimit, err := utils.ParseSize(v.GetString("server.body_limit"), "")
	if err != nil {
		return nil, errdefs.Configuration("invalid body limit: %w", err)
	}
	memoryLimit, err := utils.ParseSize(v.GetString("server.memory_limit"), "")
	if err != nil {
		return nil, errdefs.Configuration("invalid memory limit: %w", err)
	}
	chunkSize, err := utils.ParseSize(v.GetString("archive.chunk_size"), "")
	if err != nil {
		return nil, errdefs.Configuration("invalid chunk size: %w", err)
	}

	c := &Config{
		Endpoint:      v.GetString("server.endpoint"),
		EnableAuth:    v.GetBool("server.auth"),
		Username:      v.GetString("server.username"),
		Password:      v.GetString("server.password"),
		CertFile:      v.GetString("server.cert"),
		KeyFile:       v.GetString("server.key"),
		BodyLimit:     bodyLimit,
		ReadTimeout:   v.GetInt("server.read_timeout"),
		WriteTimeout:  v.GetInt("server.write_timeout"),
		IdleTimeout:   v.GetInt("server.idle_timeout"),
		Modules:       v.GetStringSlice("server.modules"),
		Monitor:       v.GetBool("server.monitor"),
		MemoryLimit:   memoryLimit,
		MonitorPeriod: v.GetDuration("server.monitor_period"),
		Storage: source.Settings{
			Provider:           v.GetString("storage.provider"),
			Endpoint:           v.GetString("storage.endpoint"),
			Region:             v.GetString("storage.region"),
			AccessKey:          v.GetString("storage.access_key"),
			SecretKey:          v.GetString("storage.secret_key"),
			SessionToken:       v.GetString("storage.session_token"),
			PathStyle:          v.GetBool("storage.path_style"),
			DisableSSL:         v.GetBool("storage.disable_ssl"),
			InsecureSkipVerify: v.GetBool("storage.insecure"),
			Path:               v.GetString("storage.path"),
		},
		Archive: ArchiveConfig{
			Method:          v.GetString("archive.method"),
			Level:           v.GetInt("archive.level"),
			ChunkSize:       chunkSize,
			Policy:          v.GetString("archive.policy"),
			Prefetch:        v.GetBool("archive.prefetch"),
			RelativeNames:   v.GetBool("archive.relative_names"),
			Comment:         v.GetString("archive.comment"),
			PageSize:        v.GetInt("archive.page_size"),
			FetchMode:       v.GetString("archive.fetch_mode"),
			PresignExpiry:   v.GetDuration("archive.presign_expiry"),
			TransferTimeout: v.GetDuration("archive.transfer_timeout"),
		},
	}
	return c, nil
}

// Validate 检查存储与打包参数，所有错误都属于 ErrConfiguration
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Archive.Validate()
}

// ValidateServer 额外检查 HTTP 服务参数
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Endpoint == "" {
		return errdefs.Configuration("endpoint is required")
	}
	if len(c.Modules) == 0 {
		return errdefs.Configuration("at least one module is required")
	}
	if c.EnableAuth && (c.Username == "" || c.Password == "") {
		return errdefs.Configuration("username and password are required when auth is enabled")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errdefs.Configuration("cert and key must be set together")
	}
	return nil
}

func (a ArchiveConfig) Validate() error {
	if _, ok := zipstream.ParseMethod(a.Method); !ok {
		return errdefs.Configuration("unknown compression method %q", a.Method)
	}
	if a.Level < -2 || a.Level > 9 {
		return errdefs.Configuration("compression level %d out of range", a.Level)
	}
	if _, ok := pipeline.ParsePolicy(a.Policy); !ok {
		return errdefs.Configuration("unknown failure policy %q", a.Policy)
	}
	if len(a.Comment) > pipeline.MaxCommentLen {
		return errdefs.Configuration("archive comment is %d bytes, at most %d", len(a.Comment), pipeline.MaxCommentLen)
	}
	if a.ChunkSize <= 0 || a.ChunkSize > 64*types.MB {
		return errdefs.Configuration("chunk size %d out of range", a.ChunkSize)
	}
	switch a.FetchMode {
	case "", source.ModeDirect, source.ModePresigned:
	default:
		return errdefs.Configuration("unknown fetch mode %q", a.FetchMode)
	}
	if a.FetchMode == source.ModePresigned && a.PresignExpiry <= 0 {
		return errdefs.Configuration("presign expiry must be positive")
	}
	return nil
}

// PipelineOptions 转换为 pipeline.Option，调用前应先 Validate
func (a ArchiveConfig) PipelineOptions() []pipeline.Option {
	method, _ := zipstream.ParseMethod(a.Method)
	policy, _ := pipeline.ParsePolicy(a.Policy)
	return []pipeline.Option{
		pipeline.WithMethod(method),
		pipeline.WithLevel(a.Level),
		pipeline.WithChunkSize(a.ChunkSize),
		pipeline.WithPolicy(policy),
		pipeline.WithPrefetch(a.Prefetch),
		pipeline.WithRelativeNames(a.RelativeNames),
		pipeline.WithComment(a.Comment),
	}
}

// Lister 基于已注入的 Backend 创建列举器
func (c *Config) Lister() (*source.Lister, error) {
	if c.Backend == nil {
		return nil, errdefs.Configuration("storage backend is not initialized")
	}
	return source.NewLister(c.Backend, c.Archive.PageSize), nil
}

// Pipeline 按配置组装列举器、拉取器与打包流程
func (c *Config) Pipeline() (*pipeline.Pipeline, error) {
	lister, err := c.Lister()
	if err != nil {
		return nil, err
	}
	var transfer source.Downloader
	if c.Archive.FetchMode == source.ModePresigned {
		transfer = clients.NewTransfer(c.Archive.TransferTimeout, c.Storage.InsecureSkipVerify)
	}
	fetcher, err := source.NewFetcher(c.Archive.FetchMode, c.Backend, c.Archive.PresignExpiry, transfer)
	if err != nil {
		return nil, err
	}
	return pipeline.New(lister, fetcher, c.Archive.PipelineOptions()...), nil
}
