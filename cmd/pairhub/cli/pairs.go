package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/pairing"
)

var pairsJSON bool

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Inspect and create device pairs",
}

var pairsIDCmd = &cobra.Command{
	Use:   "id [device-a] [device-b]",
	Short: "Print the canonical pair id for two devices (offline)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), pairing.PairID(args[0], args[1]))
	},
}

var pairsCheckCmd = &cobra.Command{
	Use:   "check [pair-id]",
	Short: "Check that a canonical pair id is well formed and ordered (offline)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := pairing.ParsePairID(args[0])
		if err != nil {
			return err
		}
		if !pairing.IsValidPairID(args[0]) {
			return fmt.Errorf("pair id %q is not ordered, expected pair_%d_%d", args[0], a, b)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "valid %d %d\n", a, b)
		return nil
	},
}

var pairsCreateCmd = &cobra.Command{
	Use:   "create [device-a] [device-b]",
	Short: "Find or create the pair for two devices",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		obs := newObserver(cfg, cmd.ErrOrStderr())
		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		p, err := conversation.NewPairStore(gdb, obs).FindOrCreate(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printPairs(cmd, []conversation.DevicePair{*p})
	},
}

var pairsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List device pairs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		obs := newObserver(cfg, cmd.ErrOrStderr())
		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		return printPairs(cmd, conversation.NewPairStore(gdb, obs).ListAll(cmd.Context()))
	},
}

func printPairs(cmd *cobra.Command, pairs []conversation.DevicePair) error {
	if pairsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEVICE A\tDEVICE B\tTEMP ID\tCREATED")
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.DeviceA, p.DeviceB, p.TempPairID, p.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func init() {
	pairsCmd.PersistentFlags().BoolVar(&pairsJSON, "json", false, "Print JSON instead of a table")
	pairsCmd.AddCommand(pairsIDCmd)
	pairsCmd.AddCommand(pairsCheckCmd)
	pairsCmd.AddCommand(pairsCreateCmd)
	pairsCmd.AddCommand(pairsListCmd)
}
