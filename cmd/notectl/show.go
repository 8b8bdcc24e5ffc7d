package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	showJSON     bool
	showClientID string
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a note",
	Long: `Show a note by its ID. Content goes through the same visibility gate as
HTTP readers, using --client-id in place of the User-Agent.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := openService(cmd.Context())
		if err != nil {
			fatal("Failed to open note store", err)
		}

		note, err := svc.Get(cmd.Context(), args[0], showClientID)
		if err != nil {
			fatal("Failed to read note", err)
		}

		if showJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(note); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		fmt.Printf("# %s\n\n%s\n", note.Title, note.Content)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	showCmd.Flags().StringVar(&showClientID, "client-id", "notectl", "Client identifier presented to the visibility gate")
}
