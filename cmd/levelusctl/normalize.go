package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	usecaseai "github.com/johnquangdev/levelus/internal/usecase/ai"
)

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Normalize an analysis response into the canonical meeting shape",
		Long: `Reads a raw analysis response (JSON object) from a file or stdin and prints the
canonical meeting fragment it normalizes to.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			return runNormalize(cmd, in)
		},
	}
}

func runNormalize(cmd *cobra.Command, in io.Reader) error {
	var raw map[string]any
	dec := json.NewDecoder(in)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("input is not a JSON object: %w", err)
	}

	m := usecaseai.NewNormalizer(newLogger()).Normalize(raw)
	return writeOutput(cmd.OutOrStdout(), outputFormat, m)
}
