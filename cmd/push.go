package cmd

import (
	"fmt"

	"github.com/elastic-io/bucketzip/app"
	"github.com/urfave/cli"
)

var pushCommand = cli.Command{
	Name:      "push",
	Usage:     "upload a local directory into a bucket",
	ArgsUsage: `<bucket>`,
	Description: `Every regular file under --dir is stored as <prefix><relative path>.
The bucket is created when it does not exist.

    # bucketzip --provider badger --store ./data push --dir ./photos --prefix photos/ my-bucket`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "dir, d",
			Usage: "path to the directory to push",
		},
		cli.StringFlag{
			Name:  "prefix",
			Usage: "key prefix of the uploaded objects",
		},
		cli.IntFlag{
			Name:  "jobs, j",
			Value: 4,
			Usage: "concurrent uploads",
		},
	},
	Action: func(ctx *cli.Context) error {
		if err := checkArgs(ctx, 1); err != nil {
			return fmt.Errorf("%s, please specify a bucket", err)
		}
		return app.Main(ctx, app.NewPusher, "push")
	},
}
