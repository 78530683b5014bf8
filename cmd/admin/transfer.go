package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/transfer"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var toClipboard bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a save as an export string",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.engine()
			if err != nil {
				return err
			}
			s, err := g.loadState(cmd.Context(), eng)
			if err != nil {
				return err
			}
			text, err := transfer.Export(s)
			if err != nil {
				return err
			}
			if toClipboard {
				if err := clipboard.WriteAll(text); err != nil {
					return fmt.Errorf("clipboard: %w", err)
				}
				okColor.Printf("copied %d characters (tick %d)\n", len(text), s.Tick)
				return nil
			}
			fmt.Println(text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy to the clipboard instead of printing")
	return cmd
}

func newImportCmd(g *globalFlags) *cobra.Command {
	var fromClipboard bool
	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Write an export string into the save (reads stdin without FILE)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readExportText(cmd.InOrStdin(), args, fromClipboard)
			if err != nil {
				return err
			}
			eng, err := g.engine()
			if err != nil {
				return err
			}
			s, err := transfer.Import(text, snapshot.Defaults{Loop: eng.LoopDefaults()})
			if err != nil {
				return err
			}
			st, closeFn, err := g.openStore(eng)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := st.Save(cmd.Context(), s); err != nil {
				return err
			}
			okColor.Printf("imported save at tick %d\n", s.Tick)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read the export string from the clipboard")
	return cmd
}

func readExportText(stdin io.Reader, args []string, fromClipboard bool) (string, error) {
	var (
		raw string
		err error
	)
	switch {
	case fromClipboard && len(args) > 0:
		return "", errors.New("--clipboard and FILE are exclusive")
	case fromClipboard:
		raw, err = clipboard.ReadAll()
	case len(args) == 1:
		var b []byte
		b, err = os.ReadFile(args[0])
		raw = string(b)
	default:
		var b []byte
		b, err = io.ReadAll(stdin)
		raw = string(b)
	}
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty export string")
	}
	return raw, nil
}
