package cmd

import (
	"fmt"

	"github.com/elastic-io/bucketzip/app"
	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/urfave/cli"
)

var archiveCommand = cli.Command{
	Name:      "archive",
	Usage:     "stream the objects of a bucket into a zip archive",
	ArgsUsage: `<bucket>`,
	Description: `Objects are written in listing order, one entry per object, named by the
last path segment of the key. The archive goes to stdout unless --output is set.

    # bucketzip archive --prefix photos/2024/ -o photos.zip my-bucket`,
	Flags: commandFlags([]cli.Flag{
		cli.StringFlag{
			Name:  "output, o",
			Usage: "zip file to write, '-' for stdout",
		},
		cli.StringFlag{
			Name:  "report",
			Usage: "write a JSON report of the archived entries, '-' for stderr",
		},
		stopSignalFlag,
	}, queryFlags, config.ArchiveFlags),
	Action: func(ctx *cli.Context) error {
		if err := checkArgs(ctx, 1); err != nil {
			return fmt.Errorf("%s, please specify a bucket", err)
		}
		return app.Main(ctx, app.NewArchiver, "archive")
	},
}
