package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smsledger/internal/models"
	"smsledger/internal/store"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger transactions, newest first",
		RunE:  runList,
	}
	cmd.Flags().Int("limit", 50, "maximum transactions to show")
	cmd.Flags().Int("offset", 0, "transactions to skip")
	cmd.Flags().String("category", "", "only show this category")
	cmd.Flags().String("start-date", "", "earliest business date (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "latest business date (YYYY-MM-DD)")
	cmd.Flags().Bool("json", false, "print the page as JSON")

	_ = viper.BindPFlag("list.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("list.offset", cmd.Flags().Lookup("offset"))
	_ = viper.BindPFlag("list.category", cmd.Flags().Lookup("category"))
	_ = viper.BindPFlag("list.start_date", cmd.Flags().Lookup("start-date"))
	_ = viper.BindPFlag("list.end_date", cmd.Flags().Lookup("end-date"))
	_ = viper.BindPFlag("list.json", cmd.Flags().Lookup("json"))
	return cmd
}

func listQuery() (store.ListQuery, error) {
	q := store.ListQuery{
		Limit:  viper.GetInt("list.limit"),
		Offset: viper.GetInt("list.offset"),
	}
	if v := viper.GetString("list.category"); v != "" {
		cat := models.Category(v)
		if !cat.IsValid() {
			return q, fmt.Errorf("unknown category %q", v)
		}
		q.Category = &cat
	}
	for key, dst := range map[string]**string{"list.start_date": &q.StartDate, "list.end_date": &q.EndDate} {
		if v := viper.GetString(key); v != "" {
			if !models.ValidDate(v) {
				return q, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, v)
			}
			*dst = &v
		}
	}
	return q, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	q, err := listQuery()
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.close()

	page, err := l.transactions.ListTransactions(cmd.Context(), l.deviceID, q)
	if err != nil {
		return err
	}
	if viper.GetBool("list.json") {
		return writeJSON(cmd.OutOrStdout(), page)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tTYPE\tAMOUNT\tCATEGORY\tMODE\tDESCRIPTION")
	for _, t := range page.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date, t.Time, t.Type, t.Amount.StringFixed(2), t.Category, t.PaymentMode, t.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d transactions\n", len(page.Transactions), page.Total)
	return err
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize spend and income",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := openLedger()
			if err != nil {
				return err
			}
			defer l.close()

			summary, err := l.transactions.GetSummary(cmd.Context(), l.deviceID, viper.GetString("summary.month"))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().String("month", "", "month to summarize (YYYY-MM); empty for all time")
	_ = viper.BindPFlag("summary.month", cmd.Flags().Lookup("month"))
	return cmd
}
