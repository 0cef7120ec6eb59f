package main

import (
	"encoding/json"
	"fmt"

	"github.com/aschepis/backscratcher/chatwire/llm"
	llmopenai "github.com/aschepis/backscratcher/chatwire/llm/openai"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [error.json]",
		Short: "Check whether a provider error reports an exceeded context length",
		Long: `classify reads either a full response body with a top-level "error"
object or the error object itself, and runs the context length checks on it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if !gjson.ValidBytes(data) {
				return fmt.Errorf("input is not valid JSON")
			}

			errJSON := data
			if obj, ok := llmopenai.ErrorObject(data); ok {
				errJSON = obj
			}

			result := struct {
				ContextLengthExceeded bool   `json:"context_length_exceeded"`
				Message               string `json:"message,omitempty"`
			}{}
			if cl := llmopenai.CheckContextLengthError(errJSON); cl != nil {
				result.ContextLengthExceeded = true
				result.Message = cl.Message
				status(cmd, color.FgRed, "%v", cl)
			} else {
				status(cmd, color.FgGreen, "not a context length error")
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			a.logger.Debug().Bool("context_length_exceeded", result.ContextLengthExceeded).Msg("classified error")
			return nil
		},
	}
}

func newUnescapeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unescape [value.json]",
		Short: "Replace literal escape sequences in every string of a JSON value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			value, err := llm.DecodeJSONValue(data)
			if err != nil {
				return fmt.Errorf("failed to parse JSON: %w", err)
			}

			out, err := json.MarshalIndent(llmopenai.UnescapeJSONValues(value), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal value: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			a.logger.Debug().Int("bytes", len(data)).Msg("unescaped value")
			return nil
		},
	}
}

func newSanitizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize NAME...",
		Short: "Print function-calling safe versions of tool names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				safe := llmopenai.SanitizeFunctionName(name)
				fmt.Fprintln(cmd.OutOrStdout(), safe)
				if safe != name {
					a.logger.Debug().Str("original", name).Str("sanitized", safe).Msg("renamed tool")
				}
			}
			return nil
		},
	}
}
