package main

import (
	"context"
	"fmt"
	"os"

	"github.com/formbridge/formbridge/cmd/formsctl/cmds"
	"github.com/formbridge/formbridge/internal/exiterr"
	"github.com/formbridge/formbridge/internal/logger"
)

func runApp(ctx context.Context) int {
	err := cmds.NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	}

	return exiterr.Code(err)
}

func main() {
	logger.InitSlog()

	ctx := context.Background()
	os.Exit(runApp(ctx))
}
