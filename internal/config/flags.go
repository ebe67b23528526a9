package config

import (
	"strings"

	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/urfave/cli"
)

type binding struct {
	key  string
	flag string
	get  func(ctx *cli.Context, name string) interface{}
}

// bindings 命令行参数到配置键的映射，只有显式设置的参数才覆盖配置文件和环境变量
var bindings = []binding{
	{"server.endpoint", "endpoint", str},
	{"server.auth", "auth", boolean},
	{"server.username", "username", str},
	{"server.password", "password", str},
	{"server.cert", "cert", str},
	{"server.key", "key", str},
	{"server.body_limit", "body", str},
	{"server.modules", "mod", slice},
	{"server.monitor", "monitor", boolean},
	{"server.memory_limit", "memory-threshold", str},

	{"storage.provider", "provider", str},
	{"storage.endpoint", "s3-endpoint", str},
	{"storage.region", "region", str},
	{"storage.access_key", "access-key", str},
	{"storage.secret_key", "secret-key", str},
	{"storage.session_token", "session-token", str},
	{"storage.path_style", "path-style", boolean},
	{"storage.disable_ssl", "disable-ssl", boolean},
	{"storage.insecure", "insecure", boolean},
	{"storage.path", "store", str},

	{"archive.method", "method", str},
	{"archive.level", "level", integer},
	{"archive.chunk_size", "chunk-size", str},
	{"archive.policy", "policy", str},
	{"archive.prefetch", "prefetch", boolean},
	{"archive.relative_names", "relative", boolean},
	{"archive.comment", "comment", str},
	{"archive.page_size", "page-size", integer},
	{"archive.fetch_mode", "fetch-mode", str},
	{"archive.presign_expiry", "presign-expiry", duration},
	{"archive.transfer_timeout", "transfer-timeout", duration},
}

// GlobalFlags 所有命令共享：配置来源与数据源
var GlobalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config",
		Usage: "config file (yaml, json or toml)",
	},
	cli.StringFlag{
		Name:  "env-file",
		Usage: "dotenv file with credentials (default ./.env when present)",
	},
	cli.StringFlag{
		Name:  "provider, p",
		Value: "s3",
		Usage: "object storage provider: " + strings.Join(source.Providers(), ", "),
	},
	cli.StringFlag{
		Name:  "s3-endpoint",
		Usage: "object storage endpoint, empty for AWS",
	},
	cli.StringFlag{
		Name:  "region, r",
		Value: "us-east-1",
		Usage: "bucket region",
	},
	cli.StringFlag{
		Name:  "access-key",
		Usage: "access key id",
	},
	cli.StringFlag{
		Name:  "secret-key",
		Usage: "secret access key",
	},
	cli.StringFlag{
		Name:  "session-token",
		Usage: "session token for temporary credentials",
	},
	cli.BoolFlag{
		Name:  "path-style",
		Usage: "use path-style bucket addressing",
	},
	cli.BoolFlag{
		Name:  "disable-ssl",
		Usage: "talk plain http to the endpoint",
	},
	cli.BoolFlag{
		Name:  "insecure",
		Usage: "skip TLS certificate verification",
	},
	cli.StringFlag{
		Name:  "store",
		Usage: "database path for the bolt and badger providers (':memory:' for badger in memory)",
	},
	cli.IntFlag{
		Name:  "page-size",
		Value: source.DefaultPageSize,
		Usage: "objects per listing page (max 1000)",
	},
	cli.StringFlag{
		Name:  "fetch-mode",
		Value: source.ModeDirect,
		Usage: "how object bytes are fetched: direct or presigned",
	},
	cli.DurationFlag{
		Name:  "presign-expiry",
		Value: source.DefaultPresignExpiry,
		Usage: "lifetime of pre-signed URLs",
	},
	cli.DurationFlag{
		Name:  "transfer-timeout",
		Usage: "connect and response header timeout of pre-signed transfers",
	},
}

// ArchiveFlags 打包参数，archive 与 serve 命令共用
var ArchiveFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "method, m",
		Value: "store",
		Usage: "compression method: store or deflate",
	},
	cli.IntFlag{
		Name:  "level",
		Value: -1,
		Usage: "deflate level (-2..9, -1 is the default level)",
	},
	cli.StringFlag{
		Name:  "chunk-size",
		Value: "32K",
		Usage: "copy buffer size per object",
	},
	cli.StringFlag{
		Name:  "policy",
		Value: "fail",
		Usage: "what to do when an object cannot be opened: fail or skip",
	},
	cli.BoolFlag{
		Name:  "prefetch",
		Usage: "open the next object while copying the current one",
	},
	cli.BoolFlag{
		Name:  "relative",
		Usage: "keep key paths relative to the prefix instead of base names",
	},
	cli.StringFlag{
		Name:  "comment",
		Usage: "archive comment stored in the end record (at most 65535 bytes)",
	},
}

// ServerFlags HTTP 服务参数
var ServerFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "endpoint, e",
		Value: "localhost:1986",
		Usage: "listen address",
	},
	cli.BoolFlag{
		Name:  "auth, a",
		Usage: "enable basic authentication",
	},
	cli.StringFlag{
		Name:  "username, u",
		Usage: "basic auth username",
	},
	cli.StringFlag{
		Name:  "password, pw",
		Usage: "basic auth password",
	},
	cli.StringFlag{
		Name:  "cert, c",
		Usage: "TLS certificate file path",
	},
	cli.StringFlag{
		Name:  "key, k",
		Usage: "TLS private key file path",
	},
	cli.StringFlag{
		Name:  "body",
		Value: "1M",
		Usage: "request body limit",
	},
	cli.StringSliceFlag{
		Name:  "mod",
		Usage: "API modules to enable: archive, objects, s3 (default archive)",
	},
	cli.BoolFlag{
		Name:  "monitor",
		Usage: "log memory usage periodically and collect garbage above the threshold",
	},
	cli.StringFlag{
		Name:  "memory-threshold",
		Value: "2G",
		Usage: "memory usage considered critical by the monitor",
	},
}

// 参数可能定义在命令上，也可能是全局参数
func isSet(ctx *cli.Context, name string) bool {
	if ctx == nil {
		return false
	}
	return ctx.IsSet(name) || ctx.GlobalIsSet(name)
}

func lookupString(ctx *cli.Context, name string) string {
	if !isSet(ctx, name) {
		return ""
	}
	return str(ctx, name).(string)
}

func str(ctx *cli.Context, name string) interface{} {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return ctx.GlobalString(name)
}

func boolean(ctx *cli.Context, name string) interface{} {
	if ctx.IsSet(name) {
		return ctx.Bool(name)
	}
	return ctx.GlobalBool(name)
}

func integer(ctx *cli.Context, name string) interface{} {
	if ctx.IsSet(name) {
		return ctx.Int(name)
	}
	return ctx.GlobalInt(name)
}

func duration(ctx *cli.Context, name string) interface{} {
	if ctx.IsSet(name) {
		return ctx.Duration(name)
	}
	return ctx.GlobalDuration(name)
}

func slice(ctx *cli.Context, name string) interface{} {
	if ctx.IsSet(name) {
		return ctx.StringSlice(name)
	}
	return ctx.GlobalStringSlice(name)
}
