package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shaharia-lab/recipechat/chat_history"
	"github.com/shaharia-lab/recipechat/config"
	"github.com/shaharia-lab/recipechat/observability"
	"github.com/spf13/cobra"
)

type conversationSummary struct {
	UserID       string    `json:"user_id"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newHistoryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history [user-id]",
		Short: "Print stored conversations",
		Long: `Without arguments, lists every stored conversation, most recently updated first.
With a user id, prints that user's full conversation as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			store, err := newStore(cmd.Context(), cfg.Store, observability.NewNullLogger())
			if err != nil {
				return fmt.Errorf("failed to open %s conversation store: %w", cfg.Store.Driver, err)
			}
			defer store.Close()

			userID := ""
			if len(args) == 1 {
				userID = args[0]
			}
			return printHistory(cmd.Context(), cmd.OutOrStdout(), store, userID)
		},
	}
}

func printHistory(ctx context.Context, w io.Writer, store chat_history.ConversationStorage, userID string) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if userID != "" {
		messages, err := store.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load conversation of %s: %w", userID, err)
		}
		return encoder.Encode(map[string]interface{}{
			"user_id":  userID,
			"messages": messages,
		})
	}

	records, err := store.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]conversationSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, conversationSummary{
			UserID:       record.UserID,
			MessageCount: len(record.Messages),
			UpdatedAt:    record.UpdatedAt,
		})
	}
	return encoder.Encode(summaries)
}
