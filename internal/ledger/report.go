package ledger

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mmynk/groupsplit/internal/money"
)

// WriteReport prints net positions followed by the settlement plan.
func WriteReport(w io.Writer, res *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "MEMBER\tPAID\tOWED\tNET\t")
	for _, p := range res.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			res.Name(p.MemberID),
			money.Format(p.TotalPaid),
			money.Format(p.TotalOwed),
			money.Format(p.Net),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(res.Balances) == 0 {
		_, err := fmt.Fprintln(w, "All settled up.")
		return err
	}

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tAMOUNT")
	for _, b := range res.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Name(b.From), res.Name(b.To), money.Format(b.Amount))
	}
	return tw.Flush()
}
