package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suPer8Hu/pairhub/internal/conversation"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the device_pairs and conversation_summaries tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		if err := gdb.WithContext(cmd.Context()).AutoMigrate(conversation.Models()...); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrated")
		return nil
	},
}
