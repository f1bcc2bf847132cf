package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/export"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func parseFormat(value string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(value)); format {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use table, json, or yaml)", value)
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	return export.EncodeJSON(cmd.OutOrStdout(), v)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(cmd *cobra.Command, format string, v any) error {
	if format == formatYAML {
		return export.EncodeYAML(cmd.OutOrStdout(), v)
	}
	return writeJSON(cmd, v)
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func formatSeconds(value float64) string {
	return fmt.Sprintf("%.1fs", value)
}

func truncateText(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
