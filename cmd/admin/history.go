package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"idlekingdom.dev/internal/persistence/savedb"
	"idlekingdom.dev/internal/persistence/snapshot"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var restore string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the save history of a sqlite slot, or restore an entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(g.dbPath) == "" {
				return errors.New("--db is required")
			}
			eng, err := g.engine()
			if err != nil {
				return err
			}
			db, err := savedb.Open(g.dbPath, savedb.Options{Slot: g.slot, Defaults: snapshot.Defaults{Loop: eng.LoopDefaults()}})
			if err != nil {
				return err
			}
			defer db.Close()

			if restore != "" {
				s, err := db.LoadHistory(cmd.Context(), restore)
				if err != nil {
					return err
				}
				if err := db.Save(cmd.Context(), s); err != nil {
					return err
				}
				okColor.Printf("restored %s (tick %d)\n", restore, s.Tick)
				return nil
			}

			rows, err := db.History(cmd.Context())
			if err != nil {
				return err
			}
			table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"ID", "Tick", "Digest", "Saved at"}))
			for _, r := range rows {
				table.Append([]string{
					r.ID,
					strconv.FormatUint(r.Tick, 10),
					shortDigest(r.Digest),
					r.SavedAt.UTC().Format(time.RFC3339),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&restore, "restore", "", "history id to make the current save")
	return cmd
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
