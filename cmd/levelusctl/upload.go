package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/usecase/meeting"
	pkgai "github.com/johnquangdev/levelus/pkg/ai"
	"github.com/johnquangdev/levelus/pkg/config"
)

func newUploadCommand() *cobra.Command {
	var (
		meetingID    string
		title        string
		backendURL   string
		analysisPath string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "upload <audio>",
		Short: "Upload a recording for analysis and print the merged meeting",
		Long: `Sends the recording to the analysis backend (BACKEND_URL, BACKEND_ANALYSIS_PATH) and
prints the meeting that results from merging the normalized response into an empty meeting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			backend := cfg.Backend
			if cmd.Flags().Changed("backend-url") {
				backend.URL = backendURL
			}
			if cmd.Flags().Changed("analysis-path") {
				backend.AnalysisPath = analysisPath
			}
			if cmd.Flags().Changed("timeout") {
				backend.AnalysisTimeout = timeout
			}
			if meetingID == "" {
				meetingID = cfg.Session.MeetingID
			}
			return runUpload(cmd, &backend, args[0], meetingID, title)
		},
	}
	cmd.Flags().StringVar(&meetingID, "meeting-id", "", "Meeting id sent with the recording (default SESSION_MEETING_ID or \"cli\")")
	cmd.Flags().StringVar(&title, "title", "", "Meeting title")
	cmd.Flags().StringVar(&backendURL, "backend-url", "", "Analysis backend base URL (default BACKEND_URL)")
	cmd.Flags().StringVar(&analysisPath, "analysis-path", "", "Analysis endpoint path (default BACKEND_ANALYSIS_PATH)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Analysis timeout (default BACKEND_ANALYSIS_TIMEOUT)")
	return cmd
}

func runUpload(cmd *cobra.Command, backend *config.BackendConfig, path, meetingID, title string) error {
	if backend.DisableAPI {
		return fmt.Errorf("the backend API is disabled (DISABLE_API=true)")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if meetingID == "" {
		meetingID = "cli"
	}
	logger := newLogger()
	store := meeting.NewStore(entities.NewMeeting(meetingID, title), logger)
	service := meeting.NewService(store, pkgai.NewBackendClient(backend, logger), nil, meeting.Options{}, logger)

	name := filepath.Base(path)
	merged, err := service.SubmitAudio(cmd.Context(), meeting.AudioUpload{
		FileName:    name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Data:        f,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, merged)
}
