package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/core"
	"expenses/internal/filter"
	"expenses/internal/format"
	"expenses/internal/services"
)

type entryFlags struct {
	amount   string
	category string
	date     string
	note     string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount spent, e.g. 12.50")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "one of "+categoryList())
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&f.note, "note", "n", "", "free-text note")
}

type rootState struct {
	open       opener
	configFile string
}

// withApp opens the ledger for one command run and closes it afterwards.
func (r *rootState) withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := r.open(cmd.Context(), r.configFile)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args, a)
	}
}

func newRootCmd(open opener) *cobra.Command {
	r := &rootState{open: open}

	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Record and review personal expenses",
		Long:         "ledger adds, edits and removes expenses and prints totals for the configured backend.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&r.configFile, "config", "", "path to a YAML config file")

	root.AddCommand(
		newAddCmd(r),
		newEditCmd(r),
		newRmCmd(r),
		newLsCmd(r),
		newSummaryCmd(r),
		newCurrencyCmd(r),
		newOAuthInitCmd(r),
	)
	return root
}

func newAddCmd(r *rootState) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if f.date == "" {
				f.date = time.Now().Format("2006-01-02")
			}
			e, err := a.ledger.Add(cmd.Context(), core.EntryInput{
				Amount: f.amount, Category: f.category, Date: f.date, Note: f.note,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s %s\n",
				e.ID, e.Date, e.Category, format.Format(e.Amount.Value(), a.ledger.Currency()))
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(r *rootState) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an expense; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			existing, err := a.ledger.Get(args[0])
			if err != nil {
				return err
			}
			in := core.EntryInput{
				Amount:   strconv.FormatFloat(existing.Amount.Value(), 'f', -1, 64),
				Category: existing.Category.String(),
				Date:     existing.Date.String(),
				Note:     existing.Note,
			}
			flags := cmd.Flags()
			if flags.Changed("amount") {
				in.Amount = f.amount
			}
			if flags.Changed("category") {
				in.Category = f.category
			}
			if flags.Changed("date") {
				in.Date = f.date
			}
			if flags.Changed("note") {
				in.Note = f.note
			}

			e, err := a.ledger.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s %s %s\n",
				e.ID, e.Date, e.Category, format.Format(e.Amount.Value(), a.ledger.Currency()))
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newRmCmd(r *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove expenses; unknown ids are ignored",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			for _, id := range args {
				if err := a.ledger.Remove(cmd.Context(), id); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", len(args))
			return nil
		}),
	}
}

func newLsCmd(r *rootState) *cobra.Command {
	var category, from, to string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			d, err := dashboard(a, category, from, to)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(d.Entries) == 0 {
				fmt.Fprintln(out, services.EmptyListText)
				return nil
			}
			writeEntries(out, d.Entries)
			return nil
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&from, "from", "", "earliest date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "latest date, inclusive")
	return cmd
}

func newSummaryCmd(r *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print totals and the per-category breakdown",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			d, err := dashboard(a, "", "", "")
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), d)
			return nil
		}),
	}
}

func newCurrencyCmd(r *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "currency [code]",
		Short: "Show or set the display currency",
		Args:  cobra.MaximumNArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if len(args) == 1 {
				if err := a.ledger.SetCurrency(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ledger.Currency())
			return nil
		}),
	}
}

func dashboard(a *app, category, from, to string) (*services.Dashboard, error) {
	spec, err := filter.ParseSpec(category, from, to)
	if err != nil {
		return nil, err
	}
	state, revision := a.ledger.Store().Snapshot()
	return services.BuildDashboard(state, revision, spec, time.Now(), a.palette), nil
}

func writeEntries(out io.Writer, entries []services.EntryView) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tNOTE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n", e.ID, e.Date, e.Icon, e.Category, e.AmountText, e.Note)
	}
	tw.Flush()
}

func writeSummary(out io.Writer, d *services.Dashboard) {
	fmt.Fprintf(out, "Entries:    %d\n", d.Summary.Count)
	fmt.Fprintf(out, "Total:      %s\n", d.Summary.TotalText)
	fmt.Fprintf(out, "This month: %s (%s)\n", d.Summary.PeriodTotalText, d.Summary.Period)
	if len(d.Charts.Categories) == 0 {
		return
	}
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range d.Charts.Categories {
		fmt.Fprintf(tw, "%s\t%s\n", s.Category, format.Format(s.Amount, d.Currency))
	}
	tw.Flush()
}

func categoryList() string {
	cats := core.Categories()
	out := ""
	for i, c := range cats {
		if i > 0 {
			out += ", "
		}
		out += c.String()
	}
	return out
}
