package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
)

// formatGrants renders a permission set as "api:perm, api:perm". APIs with
// nothing granted are omitted.
func formatGrants(p *core.PermissionSet) string {
	var parts []string
	for _, api := range p.APIs() {
		for _, perm := range p.Get(api) {
			parts = append(parts, api+":"+perm)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// commandContext is the context host calls run under. It falls back to
// Background when the command was not started with ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
