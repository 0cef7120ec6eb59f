package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/aschepis/backscratcher/chatwire/config"
	"github.com/aschepis/backscratcher/chatwire/llm"
	chatmcp "github.com/aschepis/backscratcher/chatwire/mcp"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	var (
		output     string
		mcpTools   string
		mcpResults []string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send [conversation.json]",
		Short: "Send a conversation to the configured provider and print the reply",
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
			names := chatmcp.NewNameAdapter()
			if err := conv.addMCPTools(mcpTools, names); err != nil {
				return err
			}
			if err := conv.addMCPResults(mcpResults); err != nil {
				return err
			}

			client, model, err := config.NewClientFromPreferences(a.cfg, a.logger)
			if err != nil {
				return err
			}

			req := conv.request()
			req.Model = mergeModel(model, req.Model)
			if req.System == "" {
				req.System = a.cfg.SystemPrompt
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			resp, err := client.Complete(ctx, req)
			if err != nil {
				if llm.IsContextLengthExceeded(err) {
					status(cmd, color.FgRed, "conversation is too long for %s", req.Model.ModelName)
				}
				return err
			}

			printReply(cmd, resp, names)

			if output != "" {
				conv.Messages = append(conv.Messages, resp.Message)
				if err := writeConversation(output, conv); err != nil {
					return err
				}
				status(cmd, color.FgGreen, "wrote %s", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the conversation with the reply appended to this file")
	cmd.Flags().StringVar(&mcpTools, "mcp-tools", "", "MCP tools/list result to add as tools")
	cmd.Flags().StringArrayVar(&mcpResults, "mcp-result", nil, "MCP tools/call result answering a tool call, as ID=PATH (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline including retries")
	return cmd
}

// mergeModel lets settings in the conversation override the resolved provider defaults.
func mergeModel(base, override llm.ModelConfig) llm.ModelConfig {
	if override.ModelName != "" {
		base.ModelName = override.ModelName
	}
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.MaxTokens != nil {
		base.MaxTokens = override.MaxTokens
	}
	return base
}

func printReply(cmd *cobra.Command, resp *llm.Response, names *chatmcp.NameAdapter) {
	out := cmd.OutOrStdout()
	for _, item := range resp.Message.Content {
		switch {
		case item.Text != nil:
			fmt.Fprintln(out, item.Text.Text)
		case item.ToolRequest != nil && item.ToolRequest.Err != nil:
			status(cmd, color.FgYellow, "tool call %s failed to decode: %v", item.ToolRequest.ID, item.ToolRequest.Err)
		case item.ToolRequest != nil:
			call, _ := names.ResolveCall(*item.ToolRequest.Call)
			args, _ := json.Marshal(call.Arguments)
			status(cmd, color.FgMagenta, "tool call %s: %s(%s)", item.ToolRequest.ID, call.Name, args)
		}
	}

	usage := resp.Usage
	if usage.TotalTokens != nil {
		status(cmd, color.FgCyan, "%s: %d tokens", resp.Model, *usage.TotalTokens)
	}
}

func writeConversation(path string, conv *conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	return nil
}
