package core

import "testing"

func TestBuiltinCapabilities(t *testing.T) {
	reg := BuiltinCapabilities()

	for _, api := range []string{"profile", "bookmarks", "history", "archives", "network", "notifications"} {
		def, ok := reg.Lookup(api)
		if !ok {
			t.Errorf("expected builtin capability %q", api)
			continue
		}
		if def.Label == "" {
			t.Errorf("capability %q has no label", api)
		}
		if len(def.Perms) == 0 {
			t.Errorf("capability %q has no perms", api)
		}
	}

	if reg.Known("teleport") {
		t.Error("unexpected capability teleport")
	}
}

func TestCapabilityDef_Describe(t *testing.T) {
	def, ok := BuiltinCapabilities().Lookup("network")
	if !ok {
		t.Fatal("network capability missing")
	}
	if got := def.Describe("read"); got != "Fetch data from any site" {
		t.Errorf("Describe(read) = %q", got)
	}
	if got := def.Describe("mystery"); got != "mystery" {
		t.Errorf("Describe(mystery) = %q, want fallback to id", got)
	}
}

func TestParseCapabilities_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing api", "capabilities:\n  - label: Nameless\n"},
		{"duplicate", "capabilities:\n  - api: a\n  - api: a\n"},
		{"bad yaml", "capabilities: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCapabilities([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseCapabilities_KeepsOrder(t *testing.T) {
	reg, err := ParseCapabilities([]byte(`capabilities:
  - api: zeta
    label: Zeta
  - api: alpha
    label: Alpha
`))
	if err != nil {
		t.Fatalf("ParseCapabilities() error: %v", err)
	}
	all := reg.All()
	if len(all) != 2 || all[0].API != "zeta" || all[1].API != "alpha" {
		t.Errorf("All() = %+v, want zeta then alpha", all)
	}
}
