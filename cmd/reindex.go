package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"audio-diary/config"
	"audio-diary/repository"
	"audio-diary/service"
)

func reindex(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the semantic search index from stored transcripts and summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			ctx := logger.WithContext(context.Background())

			status, err := repository.NewStatusTracker(cfg.Storage.DataDir)
			if err != nil {
				return err
			}
			store, err := repository.NewStore(cfg.Storage.UploadDir, cfg.Storage.DataDir, status)
			if err != nil {
				return err
			}
			index, err := service.NewVectorIndex(cfg.Embedding, cfg.Storage.IndexDir)
			if err != nil {
				return err
			}

			indexed, skipped, err := index.Rebuild(ctx, store)
			if err != nil {
				return err
			}
			logger.Info().Int("indexed", indexed).Int("skipped", skipped).Msg("reindex complete")
			return nil
		},
	}
}
