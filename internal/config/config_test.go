package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// 运行一个带全部参数的 CLI 应用并返回解析后的配置
func loadWithArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	app := cli.NewApp()
	app.Flags = append(append(append([]cli.Flag{}, GlobalFlags...), ArchiveFlags...), ServerFlags...)

	var (
		cfg     *Config
		loadErr error
	)
	app.Action = func(c *cli.Context) error {
		cfg, loadErr = Load(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"app"}, args...)))
	return cfg, loadErr
}

func TestLoadFlags(t *testing.T) {
	cfg, err := loadWithArgs(t,
		"--endpoint=0.0.0.0:8080",
		"--auth",
		"--username=testuser",
		"--password=secret",
		"--provider=minio",
		"--s3-endpoint=127.0.0.1:9000",
		"--region=eu-west-1",
		"--access-key=ak",
		"--secret-key=sk",
		"--path-style",
		"--method=deflate",
		"--level=6",
		"--chunk-size=64K",
		"--policy=skip",
		"--prefetch",
		"--comment=nightly",
		"--mod=archive",
		"--mod=objects",
	)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Endpoint)
	assert.True(t, cfg.EnableAuth)
	assert.Equal(t, "testuser", cfg.Username)
	assert.Equal(t, []string{"archive", "objects"}, cfg.Modules)

	assert.Equal(t, source.Settings{
		Provider:  "minio",
		Endpoint:  "127.0.0.1:9000",
		Region:    "eu-west-1",
		AccessKey: "ak",
		SecretKey: "sk",
		PathStyle: true,
	}, cfg.Storage)

	assert.Equal(t, "deflate", cfg.Archive.Method)
	assert.Equal(t, 6, cfg.Archive.Level)
	assert.Equal(t, 64*types.KB, cfg.Archive.ChunkSize)
	assert.Equal(t, "skip", cfg.Archive.Policy)
	assert.True(t, cfg.Archive.Prefetch)
	assert.Equal(t, "nightly", cfg.Archive.Comment)
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWithArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "localhost:1986", cfg.Endpoint)
	assert.Equal(t, []string{"archive"}, cfg.Modules)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, 32*types.KB, cfg.Archive.ChunkSize)
	assert.Equal(t, "store", cfg.Archive.Method)
	assert.Equal(t, source.DefaultPageSize, cfg.Archive.PageSize)
	assert.Equal(t, source.DefaultPresignExpiry, cfg.Archive.PresignExpiry)
	assert.Equal(t, 30*time.Second, cfg.Archive.TransferTimeout)
	assert.Equal(t, 1*types.MB, cfg.BodyLimit)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()

	configFile := filepath.Join(dir, "bucketzip.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
storage:
  provider: bolt
  path: /var/lib/bucketzip/objects.db
archive:
  method: deflate
  chunk_size: 8K
`), 0o644))

	envFile := filepath.Join(dir, "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BUCKETZIP_ARCHIVE_POLICY=skip\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("BUCKETZIP_ARCHIVE_POLICY") })

	t.Setenv("AWS_ACCESS_KEY_ID", "from-aws-env")

	// 命令行参数优先于配置文件
	cfg, err := loadWithArgs(t, "--config="+configFile, "--env-file="+envFile, "--chunk-size=16K")
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.Storage.Provider)
	assert.Equal(t, "/var/lib/bucketzip/objects.db", cfg.Storage.Path)
	assert.Equal(t, "deflate", cfg.Archive.Method)
	assert.Equal(t, 16*types.KB, cfg.Archive.ChunkSize)
	assert.Equal(t, "skip", cfg.Archive.Policy)
	assert.Equal(t, "from-aws-env", cfg.Storage.AccessKey)
}

func TestLoadErrors(t *testing.T) {
	_, err := loadWithArgs(t, "--config=/nonexistent/bucketzip.yaml")
	assert.True(t, errdefs.IsConfiguration(err))

	_, err = loadWithArgs(t, "--env-file=/nonexistent/.env")
	assert.True(t, errdefs.IsConfiguration(err))

	_, err = loadWithArgs(t, "--chunk-size=huge")
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Endpoint: "localhost:1986",
			Modules:  []string{"archive"},
			Storage:  source.Settings{Provider: "badger", Path: ":memory:"},
			Archive: ArchiveConfig{
				Method:    "store",
				Level:     -1,
				ChunkSize: 32 * types.KB,
				Policy:    "fail",
				FetchMode: source.ModeDirect,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		server bool
	}{
		{"unknown provider", func(c *Config) { c.Storage.Provider = "ftp" }, false},
		{"missing region", func(c *Config) { c.Storage = source.Settings{Provider: "s3", AccessKey: "a", SecretKey: "s"} }, false},
		{"bad method", func(c *Config) { c.Archive.Method = "lzma" }, false},
		{"bad level", func(c *Config) { c.Archive.Level = 12 }, false},
		{"bad policy", func(c *Config) { c.Archive.Policy = "retry" }, false},
		{"comment too long", func(c *Config) { c.Archive.Comment = strings.Repeat("c", 1<<16) }, false},
		{"zero chunk", func(c *Config) { c.Archive.ChunkSize = 0 }, false},
		{"bad fetch mode", func(c *Config) { c.Archive.FetchMode = "torrent" }, false},
		{"presigned without expiry", func(c *Config) { c.Archive.FetchMode = source.ModePresigned }, false},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"no modules", func(c *Config) { c.Modules = nil }, true},
		{"auth without password", func(c *Config) { c.EnableAuth = true; c.Username = "u" }, true},
		{"cert without key", func(c *Config) { c.CertFile = "cert.pem" }, true},
	}

	require.NoError(t, valid().ValidateServer())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			var err error
			if tt.server {
				assert.NoError(t, c.Validate())
				err = c.ValidateServer()
			} else {
				err = c.Validate()
			}
			require.Error(t, err)
			assert.True(t, errdefs.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	opts := ArchiveConfig{Method: "deflate", Policy: "skip", ChunkSize: 4096}.PipelineOptions()
	assert.Len(t, opts, 7)
}
