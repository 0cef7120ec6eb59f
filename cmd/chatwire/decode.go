package main

import (
	"encoding/json"
	"fmt"

	"github.com/aschepis/backscratcher/chatwire/llm"
	llmopenai "github.com/aschepis/backscratcher/chatwire/llm/openai"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDecodeCmd(a *app) *cobra.Command {
	var unescape bool

	cmd := &cobra.Command{
		Use:   "decode [response.json]",
		Short: "Decode a chat completions response into a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			msg, err := llmopenai.ResponseToMessage(body, llm.SystemClock)
			if err != nil {
				return err
			}
			if unescape {
				msg = llmopenai.UnescapeToolArguments(msg)
			}

			for _, req := range msg.ToolRequests() {
				if req.Err != nil {
					status(cmd, color.FgYellow, "tool call %s: %v", req.ID, req.Err)
				}
			}

			out, err := json.MarshalIndent(msg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal message: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			a.logger.Debug().Int("items", len(msg.Content)).Msg("decoded response")
			return nil
		},
	}

	cmd.Flags().BoolVar(&unescape, "unescape", false, "unescape tool call arguments (Databricks)")
	return cmd
}

func newUsageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage [response.json]",
		Short: "Print the token usage and model of a chat completions response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			usage, err := llmopenai.GetUsage(body)
			if err != nil {
				if !llm.IsMissingUsageData(err) {
					return err
				}
				status(cmd, color.FgYellow, "%v", err)
			}

			out := struct {
				Model        string `json:"model"`
				InputTokens  *int32 `json:"input_tokens"`
				OutputTokens *int32 `json:"output_tokens"`
				TotalTokens  *int32 `json:"total_tokens"`
			}{
				Model:        llmopenai.GetModel(body),
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal usage: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			a.logger.Debug().Str("model", out.Model).Msg("extracted usage")
			return nil
		},
	}
}
