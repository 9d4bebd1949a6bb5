package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/barysiuk/hatch/internal/core"
)

// InspectMarkdown describes target as a markdown report: display fields,
// install state and one section per requested API the registry knows.
func InspectMarkdown(target core.TargetAppInfo) string {
	var b strings.Builder

	title := target.Title
	if title == "" {
		title = "Untitled app"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if target.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", target.Description)
	}

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Address | `%s` |\n", target.URL)
	fmt.Fprintf(&b, "| Author | %s |\n", orDash(target.Author))
	if target.Name != "" {
		fmt.Fprintf(&b, "| Default location | `%s` |\n", core.AppURL(target.Name))
	} else {
		b.WriteString("| Default location | - |\n")
	}
	if target.IsInstalled {
		var names []string
		for _, n := range target.Info.InstalledNames {
			names = append(names, "`"+core.AppURL(n)+"`")
		}
		fmt.Fprintf(&b, "| Installed at | %s |\n", strings.Join(names, ", "))
	} else {
		b.WriteString("| Installed at | not installed |\n")
	}

	req := target.RequestedPermissions
	if req == nil {
		b.WriteString("\nNo permissions requested.\n")
		return b.String()
	}

	b.WriteString("\n## Permissions\n")
	reg := core.BuiltinCapabilities()
	for _, api := range req.APIs() {
		def, ok := reg.Lookup(api)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", def.Label)
		for _, perm := range req.Get(api) {
			mark := " "
			if target.AssignedPermissions.Contains(api, perm) {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, def.Describe(perm))
		}
	}
	return b.String()
}

// RenderMarkdown renders md for a terminal of the given width. On renderer
// failure the raw markdown is returned.
func RenderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
