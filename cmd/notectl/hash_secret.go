package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"notes-publisher/pkg/hash"

	"github.com/spf13/cobra"
)

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret",
	Short: "Print a bcrypt hash of a posting password",
	Long: `Reads a password from stdin and prints its bcrypt hash. The hash can be
used as NOTES_POST_PASSWORD so the plain password is not kept in the
environment.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fatal("Failed to read password", err)
		}

		hashed, err := hash.Hash(strings.TrimRight(line, "\r\n"))
		if err != nil {
			fatal("Failed to hash password", err)
		}

		fmt.Println(hashed)
	},
}

func init() {
	rootCmd.AddCommand(hashSecretCmd)
}
