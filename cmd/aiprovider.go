package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/aiprovider"
	"github.com/abhisek/nutrify/internal/llm"
)

var aiProviderCmd = &cobra.Command{
	Use:     "ai-provider",
	Aliases: []string{"ai"},
	Short:   "Manage the AI providers the platform uses for plan generation",
}

var aiProviderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List AI providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeEnv, err := openAIProviders(cmd)
		if err != nil {
			return err
		}
		defer closeEnv()

		providers, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-12s  %-32s  %-8s  %-7s  %s\n", "Name", "Model", "Enabled", "Default", "Key")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, p := range providers {
			fmt.Fprintf(out, "%-12s  %-32s  %-8s  %-7s  %s\n",
				p.Name, truncate(p.Model, 32), mark(p.Enabled), mark(p.Default), mark(p.HasAPIKey))
		}
		return nil
	},
}

var aiProviderSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Change a provider's model, key or status",
	Long: `Change a provider's settings on the platform. A new model or API key is
probed with one small request first and nothing is saved if the probe fails;
pass --no-probe to skip it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := aiprovider.Settings{Name: args[0]}
		in.Model, _ = cmd.Flags().GetString("model")
		in.APIKey, _ = cmd.Flags().GetString("api-key")
		noProbe, _ := cmd.Flags().GetBool("no-probe")
		if cmd.Flags().Changed("enabled") {
			v, _ := cmd.Flags().GetBool("enabled")
			in.Enabled = &v
		}
		if cmd.Flags().Changed("default") {
			v, _ := cmd.Flags().GetBool("default")
			in.Default = &v
		}

		svc, closeEnv, err := openAIProviders(cmd)
		if err != nil {
			return err
		}
		defer closeEnv()

		saved, probe, err := svc.Update(cmd.Context(), in, !noProbe)
		if probe != nil {
			printProbe(cmd, probe)
		}
		if err != nil {
			return withHint(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: model %s, enabled %s, default %s.\n",
			saved.Name, saved.Model, mark(saved.Enabled), mark(saved.Default))
		return nil
	},
}

var aiProviderTestCmd = &cobra.Command{
	Use:   "test [name]",
	Short: "Send one request to a provider and report latency and usage",
	Long: `Probe a provider from this machine. The API key comes from --api-key,
NUTRIFY_<NAME>_API_KEY or the provider's usual variable (e.g. OPENAI_API_KEY).
Without a name the first provider with a key in the environment is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in aiprovider.Settings
		if len(args) == 1 {
			in.Name = args[0]
		} else {
			cfg, ok := llm.DiscoverConfig()
			if !ok {
				return errors.New("no provider key found in the environment; pass a provider name and --api-key")
			}
			in.Name = cfg.Provider
		}
		in.Model, _ = cmd.Flags().GetString("model")
		in.APIKey, _ = cmd.Flags().GetString("api-key")
		in.BaseURL, _ = cmd.Flags().GetString("base-url")

		svc, closeEnv, err := openAIProviders(cmd)
		if err != nil {
			return err
		}
		defer closeEnv()

		res, err := svc.Probe(cmd.Context(), in)
		if err != nil {
			return withHint(err)
		}
		printProbe(cmd, res)
		return nil
	},
}

var aiProviderHistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List recorded provider requests, or show one in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		svc, closeEnv, err := openAIProviders(cmd)
		if err != nil {
			return err
		}
		defer closeEnv()

		var id int64
		if len(args) == 1 {
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid ID %q: %w", args[0], err)
			}
			limit = 0
		}

		events, err := svc.History(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if id != 0 {
			for _, e := range events {
				if int64(e.ID) != id {
					continue
				}
				sep := strings.Repeat("─", 60)
				fmt.Fprintf(out, "ID:        %d\n", e.ID)
				fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
				fmt.Fprintf(out, "Model:     %s\n", e.Model)
				fmt.Fprintf(out, "Purpose:   %s (attempt %d)\n", e.Purpose, e.Attempt)
				fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
				fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
				fmt.Fprintf(out, "Success:   %v\n", e.Success)
				if e.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
				}
				fmt.Fprintf(out, "\n%s\nREQUEST\n%s\n%s\n", sep, sep, orNone(e.RequestBody))
				fmt.Fprintf(out, "%s\nRESPONSE\n%s\n%s\n", sep, sep, orNone(e.ResponseBody))
				return nil
			}
			return fmt.Errorf("event %d not found", id)
		}

		if len(events) == 0 {
			fmt.Fprintln(out, "No provider requests recorded.")
			return nil
		}
		fmt.Fprintf(out, "%-5s  %-19s  %-11s  %-28s  %-14s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Provider", "Model", "Purpose", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 116))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			if e.Attempt > 1 {
				ok += fmt.Sprintf(" (try %d)", e.Attempt)
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-11s  %-28s  %-14s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Provider,
				truncate(e.Model, 28),
				truncate(e.Purpose, 14),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

func init() {
	aiProviderSetCmd.Flags().String("model", "", "Model id")
	aiProviderSetCmd.Flags().String("api-key", "", "API key (stored write-only on the platform)")
	aiProviderSetCmd.Flags().Bool("enabled", true, "Enable or disable the provider")
	aiProviderSetCmd.Flags().Bool("default", false, "Make this the default provider")
	aiProviderSetCmd.Flags().Bool("no-probe", false, "Save without probing the new settings")

	aiProviderTestCmd.Flags().String("model", "", "Model id (defaults to the provider default)")
	aiProviderTestCmd.Flags().String("api-key", "", "API key (defaults to the environment)")
	aiProviderTestCmd.Flags().String("base-url", "", "Override the provider endpoint")

	aiProviderHistoryCmd.Flags().IntP("limit", "n", 20, "Number of events to show")

	aiProviderCmd.AddCommand(aiProviderListCmd)
	aiProviderCmd.AddCommand(aiProviderSetCmd)
	aiProviderCmd.AddCommand(aiProviderTestCmd)
	aiProviderCmd.AddCommand(aiProviderHistoryCmd)
}

// withHint appends what the user can do about a failed probe.
func withHint(err error) error {
	if hint := llm.HintFor(err); hint != "" {
		return fmt.Errorf("%w\nhint: %s", err, hint)
	}
	return err
}

func openAIProviders(cmd *cobra.Command) (*aiprovider.Service, func(), error) {
	e, err := openEnv(cmd, false)
	if err != nil {
		return nil, nil, err
	}
	svc := aiprovider.New(e.client, e.store.EventRepo(),
		aiprovider.WithLogger(e.logger.Named("aiprovider")),
		aiprovider.WithTimeout(e.cfg.LLM.Timeout),
	)
	return svc, e.Close, nil
}

func printProbe(cmd *cobra.Command, r *aiprovider.ProbeResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s responded (%s) in %dms, %d in / %d out tokens",
		r.Provider, r.Model, r.Latency.Milliseconds(), r.InputTokens, r.OutputTokens)
	if r.HasCost {
		fmt.Fprintf(out, ", about %s", formatCost(r.CostUSD))
	}
	fmt.Fprintln(out)
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if s == "" {
		return "(not captured)"
	}
	return s
}
