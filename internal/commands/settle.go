package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/groupsplit/internal/ledger"
)

func newSettleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "settle <ledger.yaml>",
		Short: "Print balances and a settlement plan for a YAML ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := ledger.Load(args[0])
			if err != nil {
				return err
			}
			res, err := file.Settle()
			if err != nil {
				return err
			}
			return ledger.WriteReport(cmd.OutOrStdout(), res)
		},
	}
}
