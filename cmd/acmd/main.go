/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/toothbrush/acmd-assets/aem"
	"github.com/toothbrush/acmd-assets/assets"
	"github.com/toothbrush/acmd-assets/internal/exitcode"
)

func main() {
	os.Exit(int(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)))
}

// run executes one acmd invocation and returns its exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) exitcode.Status {
	c := &cli{}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	status := exitcode.FromError(err, classify)

	var se *exitcode.StatusError
	if err != nil && !errors.As(err, &se) {
		fmt.Fprintln(stderr, err)
	}
	return status
}

// classify maps the domain errors that can escape a command.
func classify(err error) (exitcode.Status, bool) {
	if aem.IsAssetError(err) {
		return exitcode.ServerError, true
	}
	var pe *assets.PathError
	if errors.As(err, &pe) {
		return exitcode.UserError, true
	}
	return 0, false
}
