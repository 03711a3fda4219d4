package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wozlab/humanchat/cmd/humanchat/serve"
)

func main() {
	root := &cobra.Command{
		Use:           "humanchat",
		Short:         "OpenAI-compatible chat backend answered by a human operator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(servecmder.NewServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
