package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

// checkArgs 校验位置参数个数，不符合时打印该命令的帮助
func checkArgs(ctx *cli.Context, expected int) error {
	if ctx.NArg() == expected {
		return nil
	}
	cmdName := ctx.Command.Name
	fmt.Fprintf(os.Stderr, "Incorrect Usage.\n\n")
	cli.ShowCommandHelp(ctx, cmdName)
	return fmt.Errorf("%s: %q requires exactly %d argument(s), got %d", ctx.App.Name, cmdName, expected, ctx.NArg())
}
