package cmd

import (
	"fmt"

	"github.com/elastic-io/bucketzip/app"
	"github.com/urfave/cli"
)

const formatOptions = `table or json`

var listCommand = cli.Command{
	Name:      "list",
	Usage:     "list the objects that would be archived",
	ArgsUsage: `<bucket>`,
	Flags: commandFlags([]cli.Flag{
		cli.StringFlag{
			Name:  "format, f",
			Value: "table",
			Usage: `select one of: ` + formatOptions,
		},
		cli.IntFlag{
			Name:  "limit, l",
			Usage: "stop after this many objects (0 lists everything)",
		},
	}, queryFlags),
	Action: func(ctx *cli.Context) error {
		if err := checkArgs(ctx, 1); err != nil {
			return fmt.Errorf("%s, please specify a bucket", err)
		}
		return app.Main(ctx, app.NewLister, "list")
	},
}
