// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/jeranaias/howto/internal/cloud"
	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var known bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available to the configured API key",
		Long: "List the models available to the configured API key.\n" +
			"The TOKENIZER column shows which models get a token count and cost line.",
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if known {
				printKnownModels(cmd.OutOrStdout())
				return nil
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			closer := setupLogging(cfg, opts, false)
			defer closer.Close()

			ids, err := listModels(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printModels(cmd.OutOrStdout(), ids, cfg.Model)
			return nil
		},
	}
	cmd.Flags().BoolVar(&known, "known", false, "List the built-in tokenizer table instead of querying the API")
	return cmd
}

// listModels fetches the model IDs the API exposes, sorted.
func listModels(ctx context.Context, cfg *config.Config) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	occ := openai.DefaultConfig(cfg.Token)
	occ.BaseURL = cfg.BaseURL
	client := openai.NewClientWithConfig(occ)

	list, err := client.ListModels(ctx)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &cloud.ProtocolError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &cloud.ProtocolError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return nil, &cloud.TransportError{Op: "connect", Err: err}
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// printModels writes one row per model; the configured model is starred.
func printModels(w io.Writer, ids []string, current string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  MODEL\tTOKENIZER")
	for _, id := range ids {
		marker := " "
		if id == current {
			marker = "*"
		}
		enc, ok := model.EncodingFor(id)
		if !ok {
			enc = "-"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", marker, id, enc)
	}
	tw.Flush()
}

// printKnownModels writes the built-in model table. It needs no config.
func printKnownModels(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tTOKENIZER\tCONTEXT")
	for _, id := range model.ModelIDs() {
		info := model.Models[id]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, info.Encoding, info.ContextString())
	}
	tw.Flush()
}
