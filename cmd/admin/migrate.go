package main

import (
	"github.com/spf13/cobra"

	"idlekingdom.dev/internal/persistence/snapshot"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate IN OUT",
		Short: "Rewrite a save file at the current payload version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.engine()
			if err != nil {
				return err
			}
			payload, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, h, err := snapshot.Migrate(payload, snapshot.Defaults{Loop: eng.LoopDefaults()})
			if err != nil {
				return err
			}
			if err := snapshot.WriteFile(args[1], out); err != nil {
				return err
			}
			okColor.Printf("migrated v%d -> v%d (tick %d)\n", h.Version, snapshot.CurrentVersion, h.Tick)
			return nil
		},
	}
}
