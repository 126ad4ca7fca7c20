package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "lensctl",
		Short: "CLI client for the OpenLens REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "OpenLens service base URL")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search the federated media catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			mediaType, _ := cmd.Flags().GetString("media-type")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			return runSearch(apiFlag, query, mediaType, page, pageSize, os.Stdout)
		},
	}
	searchCmd.Flags().StringP("query", "q", "", "Search query text (required)")
	searchCmd.Flags().StringP("media-type", "m", "both", "Media type: image, audio or both")
	searchCmd.Flags().IntP("page", "p", 1, "Page number")
	searchCmd.Flags().IntP("page-size", "s", 20, "Page size")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)

	mediaCmd := &cobra.Command{
		Use:   "media <id>",
		Short: "Fetch one cached media record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMedia(apiFlag, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(mediaCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
