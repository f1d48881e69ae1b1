package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stock-recommender",
	Short: "A CLI for the stock recommender services",
	Long: `Stock recommender ranks companies for users: by sector overlap until a user
has enough follow history, then by a shared matrix factorization model.

Binaries:
  recommender-service  HTTP API for follows, sectors and recommendations
  retrain-worker       drains retrain requests and runs scheduled batch fits
  migrate              applies database migrations`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
