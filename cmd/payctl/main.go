package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/warp/shift-payroll/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
