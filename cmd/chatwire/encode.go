package main

import (
	"encoding/json"
	"fmt"

	"github.com/aschepis/backscratcher/chatwire/llm"
	llmopenai "github.com/aschepis/backscratcher/chatwire/llm/openai"
	chatmcp "github.com/aschepis/backscratcher/chatwire/mcp"
	"github.com/fatih/color"
	"github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"
)

const tokenEncoding = "cl100k_base"

func newEncodeCmd(a *app) *cobra.Command {
	var (
		format     string
		model      string
		mcpTools   string
		mcpResults []string
		noCount    bool
	)

	cmd := &cobra.Command{
		Use:   "encode [conversation.json]",
		Short: "Encode a conversation as a chat completions request payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			conv, err := parseConversation(data)
			if err != nil {
				return err
			}
			if err := conv.addMCPTools(mcpTools, chatmcp.NewNameAdapter()); err != nil {
				return err
			}
			if err := conv.addMCPResults(mcpResults); err != nil {
				return err
			}

			cfg := conv.modelConfig()
			if model != "" {
				cfg.ModelName = model
			}
			if cfg.ModelName == "" {
				cfg.ModelName = a.cfg.OpenAI.Model
			}

			imageFormat := llm.ImageFormat(format)
			if imageFormat != llm.ImageFormatOpenAI && imageFormat != llm.ImageFormatAnthropic {
				return fmt.Errorf("unknown image format %q", format)
			}

			payload, err := llmopenai.BuildRequestPayload(cfg, conv.System, conv.Messages, conv.Tools, imageFormat)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal payload: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			a.logger.Debug().
				Str("model", cfg.ModelName).
				Int("messages", len(conv.Messages)).
				Int("tools", len(conv.Tools)).
				Msg("encoded request payload")

			if !noCount {
				if n, err := countTokens(string(out)); err != nil {
					a.logger.Warn().Err(err).Msg("token estimate unavailable")
				} else {
					status(cmd, color.FgCyan, "~%d tokens (%s)", n, tokenEncoding)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "image-format", string(llm.ImageFormatOpenAI), "image encoding: openai or anthropic")
	cmd.Flags().StringVar(&model, "model", "", "override the conversation's model")
	cmd.Flags().StringVar(&mcpTools, "mcp-tools", "", "MCP tools/list result to add as tools")
	cmd.Flags().StringArrayVar(&mcpResults, "mcp-result", nil, "MCP tools/call result answering a tool call, as ID=PATH (repeatable)")
	cmd.Flags().BoolVar(&noCount, "no-count", false, "skip the token estimate")
	return cmd
}

func countTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s encoding: %w", tokenEncoding, err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}
