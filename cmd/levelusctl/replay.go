package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/usecase/playback"
)

func newReplayCommand() *cobra.Command {
	var period time.Duration

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the demo meeting one utterance per period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, period)
		},
	}
	cmd.Flags().DurationVar(&period, "period", playback.DefaultPeriod, "Delay between utterances")
	return cmd
}

func runReplay(cmd *cobra.Command, period time.Duration) error {
	demo := entities.DemoMeeting()
	names := make(map[string]string, len(demo.Participants))
	for _, p := range demo.Participants {
		names[p.ID] = p.DisplayName()
	}

	engine := playback.NewEngine(demo, playback.Options{Period: period}, newLogger())
	defer engine.Close()

	out := cmd.OutOrStdout()
	done := make(chan struct{})
	printed := 0
	engine.Subscribe(func(s playback.Snapshot) {
		for _, entry := range s.Visible[printed:] {
			fmt.Fprintf(out, "%s: %s\n", names[entry.ParticipantID], entry.Text)
		}
		printed = len(s.Visible)
		if s.State == playback.StateDone {
			close(done)
		}
	})

	fmt.Fprintf(out, "%s (%d utterances)\n", demo.Title, len(playback.Flatten(demo)))
	if err := engine.Enable(); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}
}
