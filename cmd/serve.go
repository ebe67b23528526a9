package cmd

import (
	"github.com/elastic-io/bucketzip/app"
	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/urfave/cli"
)

var serveCommand = cli.Command{
	Name:      "serve",
	Usage:     "serve bucket archives over HTTP",
	ArgsUsage: ``,
	Description: `Downloads are served at GET /archive/<bucket>?prefix=...&name=...
and listings at GET /objects/<bucket> when the objects module is enabled.

    # bucketzip serve -e 127.0.0.1:8080 --mod archive --mod objects`,
	Flags: commandFlags(config.ServerFlags, config.ArchiveFlags, []cli.Flag{stopSignalFlag}),
	Action: func(ctx *cli.Context) error {
		if err := checkArgs(ctx, 0); err != nil {
			return err
		}
		return app.Main(ctx, app.NewServer, "server")
	},
}
