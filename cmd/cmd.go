package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/utils"
	"github.com/urfave/cli"
)

func Execute(name, usage, version, commit string) {
	app := NewApp(name, usage, version, commit)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewApp 组装命令行应用，测试中直接调用 Run
func NewApp(name, usage, version, commit string) *cli.App {
	app := cli.NewApp()
	app.Name = name
	app.Usage = usage

	v := []string{version}
	if commit != "" {
		v = append(v, "commit: "+commit)
	}
	v = append(v, "go: "+runtime.Version())
	app.Version = strings.Join(v, "\n")

	app.Flags = append([]cli.Flag{
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "set the log file to write logs to (default is '/dev/stderr')",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "set the log level ('debug', 'info', 'warn', 'error', 'fatal')",
		},
		cli.IntFlag{
			Name:  "gc-percent",
			Value: 100,
			Usage: "set the garbage collection percent",
		},
		cli.StringFlag{
			Name:  "memory-limit",
			Value: "4G",
			Usage: "set the soft memory limit of the runtime",
		},
	}, config.GlobalFlags...)

	app.Commands = []cli.Command{
		archiveCommand,
		serveCommand,
		listCommand,
		pushCommand,
	}

	app.Before = func(ctx *cli.Context) error {
		if err := log.Init(ctx.String("log"), ctx.String("log-level")); err != nil {
			return fmt.Errorf("invalid log level %q: %w", ctx.String("log-level"), err)
		}
		limit, err := utils.ParseSize(ctx.String("memory-limit"), "")
		if err != nil {
			return fmt.Errorf("invalid memory limit: %w", err)
		}
		debug.SetGCPercent(ctx.Int("gc-percent"))
		debug.SetMemoryLimit(int64(limit))
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		log.Close()
		return nil
	}
	return app
}

// commandFlags 拼接多组参数
func commandFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

var queryFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "prefix",
		Usage: "only objects whose key starts with the prefix",
	},
	cli.StringFlag{
		Name:  "delimiter",
		Usage: "group keys by delimiter, grouped keys are not listed",
	},
	cli.StringFlag{
		Name:  "marker",
		Usage: "start listing after this key",
	},
}

var stopSignalFlag = cli.StringSliceFlag{
	Name:  "stop-signal",
	Usage: "signals that stop the command (default SIGINT, SIGTERM, SIGHUP)",
}
