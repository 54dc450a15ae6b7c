// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var expandCmd = &cobra.Command{
	Use:   "expand <description>",
	Short: "Break a research description into sub-topics and keywords",
	Long: `Expand asks the configured language model (anthropic, openai, or gemini)
to split a free-text research description into sub-topics, each with a
keyword query. Without a configured provider the description is returned as
a single main_topic.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().Bool("json", false, "print topics as JSON instead of YAML")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	exp, err := newExpander(cfg.AI, nil)
	if err != nil {
		return err
	}

	topics := exp.Expand(cmd.Context(), strings.Join(args, " "), os.Stderr)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(topics)
	}
	out, err := yaml.Marshal(topics)
	if err != nil {
		return fmt.Errorf("formatting topics: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
