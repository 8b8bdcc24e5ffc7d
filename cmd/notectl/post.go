package main

import (
	"fmt"
	"io"
	"os"

	"notes-publisher/internal/domain"

	"github.com/spf13/cobra"
)

var (
	postTitle    string
	postContent  string
	postFile     string
	postPassword string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a new note",
	Long: `Publish a note. Content comes from --content, from --file, or from stdin
when --file is "-". The password defaults to NOTES_PASSWORD.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		content := postContent
		if postFile != "" {
			data, err := readContent(postFile)
			if err != nil {
				fatal("Failed to read content", err)
			}
			content = string(data)
		}

		password := postPassword
		if password == "" {
			password = os.Getenv("NOTES_PASSWORD")
		}

		svc, err := openService(cmd.Context())
		if err != nil {
			fatal("Failed to open note store", err)
		}

		note, err := svc.Create(cmd.Context(), &domain.CreateNoteRequest{
			Title:    postTitle,
			Content:  content,
			Password: password,
		})
		if err != nil {
			fatal("Failed to publish note", err)
		}

		fmt.Println(note.ID)
	},
}

func readContent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func init() {
	rootCmd.AddCommand(postCmd)
	postCmd.Flags().StringVarP(&postTitle, "title", "t", "", "Note title")
	postCmd.Flags().StringVarP(&postContent, "content", "c", "", "Note content")
	postCmd.Flags().StringVarP(&postFile, "file", "f", "", "Read content from a file, or - for stdin")
	postCmd.Flags().StringVarP(&postPassword, "password", "p", "", "Posting password")
	postCmd.MarkFlagRequired("title")
	postCmd.MarkFlagsMutuallyExclusive("content", "file")
}
