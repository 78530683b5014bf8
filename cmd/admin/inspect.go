package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"idlekingdom.dev/internal/sim/digest"
	"idlekingdom.dev/internal/sim/economy"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	var catalogOnly bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the catalogs and a save",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.engine()
			if err != nil {
				return err
			}
			printCatalog(eng)
			if catalogOnly {
				return nil
			}
			s, err := g.loadState(cmd.Context(), eng)
			if err != nil {
				return err
			}
			printState(eng, s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&catalogOnly, "catalog", false, "only print the catalog summary")
	return cmd
}

func printCatalog(eng *engine.Engine) {
	cat := eng.Catalogs()
	titleColor.Println("Catalog " + shortDigest(cat.Digest()))
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Table", "Entries"}))
	table.Append([]string{"buildings", strconv.Itoa(len(cat.Buildings.ByID))})
	table.Append([]string{"technologies", strconv.Itoa(len(cat.Technologies.ByID))})
	table.Append([]string{"loop actions", strconv.Itoa(len(cat.LoopActions.ByID))})
	table.Append([]string{"manual actions", strconv.Itoa(len(cat.ManualActions.ByID))})
	table.Append([]string{"upgrades", strconv.Itoa(len(cat.Upgrades.ByID))})
	table.Append([]string{"achievements", strconv.Itoa(len(cat.Achievements.ByID))})
	table.Render()
	for _, w := range cat.Warnings {
		warnColor.Println("warning: " + w)
	}
	fmt.Println()
}

func printState(eng *engine.Engine, s game.State) {
	tune := eng.Tuning()
	titleColor.Printf("Save at tick %d (%s)\n", s.Tick, time.UnixMilli(s.ClockMs).UTC().Format(time.RFC3339))
	fmt.Println("digest " + digest.State(s))

	rates := eng.Rates(s)
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Resource", "Amount", "Per second", "Lifetime"}))
	for _, r := range ledger.AllResources() {
		p := tune.Precision(r)
		table.Append([]string{
			r.String(),
			economy.FormatAmount(s.Resources.Get(r), p),
			economy.FormatAmount(rates.Get(r), p),
			economy.FormatAmount(s.LifetimeResources.Get(r), p),
		})
	}
	table.Render()

	table = tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Building", "Count"}))
	for _, b := range ledger.AllBuildings() {
		if n := s.BuildingCounts.Get(b); n > 0 {
			table.Append([]string{b.String(), strconv.Itoa(n)})
		}
	}
	table.Render()

	if len(s.TechnologyLevels) > 0 {
		ids := make([]string, 0, len(s.TechnologyLevels))
		for id := range s.TechnologyLevels {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Printf("researched: %v\n", ids)
	}
	if s.Research.Active() {
		fmt.Printf("researching %s (%.0f%%)\n", s.Research.ActiveTechnology, 100*eng.ResearchProgress(s, s.ClockMs))
	}
	fmt.Printf("loops: %d/%d running\n", s.ActiveLoops(), s.LoopSettings.MaxConcurrentActions)
	fmt.Printf("achievements: %d unlocked\n", len(s.Achievements.Unlocked))
	okColor.Printf("prestige gain: %s\n", economy.FormatAmount(eng.PrestigeGain(s), 0))
}
