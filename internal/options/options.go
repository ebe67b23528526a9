package options

import (
	"fmt"
	"os"

	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/elastic-io/bucketzip/internal/utils"
	"github.com/urfave/cli"
	"golang.org/x/sys/unix"
)

var DefaultStopSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}

// Options 一次命令调用的全部输入
type Options struct {
	Command string
	Query   types.BucketQuery

	// archive
	Output string
	Report string
	// list
	Format string
	Limit  int
	// push
	Dir  string
	Jobs int

	StopSignals []os.Signal
	Config      *config.Config
}

func New(ctx *cli.Context) (*Options, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	opts := &Options{Command: ctx.Command.Name, Config: cfg, StopSignals: DefaultStopSignals}
	opts.Query = types.BucketQuery{
		Bucket:    ctx.Args().First(),
		Region:    cfg.Storage.Region,
		Prefix:    ctx.String("prefix"),
		Delimiter: ctx.String("delimiter"),
		Marker:    ctx.String("marker"),
	}
	opts.Output = ctx.String("output")
	opts.Report = ctx.String("report")
	opts.Format = ctx.String("format")
	opts.Limit = ctx.Int("limit")
	opts.Dir = ctx.String("dir")
	opts.Jobs = ctx.Int("jobs")

	if raw := ctx.StringSlice("stop-signal"); len(raw) > 0 {
		opts.StopSignals = nil
		for _, s := range raw {
			sig, err := utils.ParseSignal(s)
			if err != nil {
				return nil, errdefs.Configuration("stop-signal: %w", err)
			}
			opts.StopSignals = append(opts.StopSignals, sig)
		}
	}
	return opts, nil
}

func (o *Options) Validate() error {
	if o.Config == nil {
		return errdefs.Configuration("config is required")
	}
	switch o.Command {
	case "serve":
		return o.Config.ValidateServer()
	case "push":
		if o.Dir == "" {
			return errdefs.Configuration("source directory is required")
		}
		if o.Jobs <= 0 {
			log.Logger.Warn("jobs is not set, uploading one file at a time")
			o.Jobs = 1
		}
	case "list":
		switch o.Format {
		case "", "table", "json":
		default:
			return errdefs.Configuration("unknown format %q", o.Format)
		}
	}
	if err := o.Query.Validate(); err != nil {
		return err
	}
	return o.Config.Validate()
}

func (o *Options) String() string {
	return fmt.Sprintf("%s %s/%s via %s", o.Command, o.Query.Bucket, o.Query.Prefix, o.Config.Storage.Provider)
}
