package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealwatch/internal/crypt"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen <key-id>",
	Short: "Generate a recipient key pair in the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if err := crypt.GenerateKeyPair(cfg.KeyringDir, id); err != nil {
			return err
		}

		fmt.Printf("Generated key pair %q in %s\n", id, cfg.KeyringDir)
		fmt.Println("Keep the private key somewhere safe; only the .pub file is needed for sealing.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
