package core

import (
	"context"
	"errors"
	"slices"
	"testing"
)

const (
	newsURL  = "dat://" + testKey
	otherKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
	otherURL = "dat://" + otherKey
)

func TestResolve_FullManifest(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{
  "title": "News",
  "description": "Reads the news",
  "author": {"name": "Alice"},
  "app": {
    "name": "News Reader",
    "permissions": {"network": "read", "bogus": [], "bookmarks": ["read", "write"]}
  }
}`

	target, err := Resolve(context.Background(), host, newsURL)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if target.URL != newsURL {
		t.Errorf("URL = %q", target.URL)
	}
	if target.IsInstalled {
		t.Error("expected fresh target")
	}
	if target.Title != "News" || target.Description != "Reads the news" || target.Author != "Alice" {
		t.Errorf("display fields = %q, %q, %q", target.Title, target.Description, target.Author)
	}
	if target.Name != "news-reader" {
		t.Errorf("Name = %q, want news-reader", target.Name)
	}
	if got := target.RequestedPermissions.APIs(); !slices.Equal(got, []string{"network", "bookmarks"}) {
		t.Errorf("requested APIs = %v", got)
	}
	if target.AssignedPermissions == nil || target.AssignedPermissions.Len() != 0 {
		t.Errorf("assigned = %v, want empty non-nil set", target.AssignedPermissions)
	}
}

func TestResolve_MissingOrBrokenManifest(t *testing.T) {
	for name, manifest := range map[string]*string{
		"missing":     nil,
		"unparsable":  ptr("{not json"),
		"not object":  ptr(`["x"]`),
		"app invalid": ptr(`{"app": "news"}`),
	} {
		t.Run(name, func(t *testing.T) {
			host := newFakeHost()
			if manifest != nil {
				host.manifests[newsURL] = *manifest
			}
			target, err := Resolve(context.Background(), host, newsURL)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if target.Title != "" || target.Name != "" || target.RequestedPermissions != nil {
				t.Errorf("expected empty metadata, got %+v", target)
			}
		})
	}
}

func TestResolve_InstalledUsesFirstName(t *testing.T) {
	host := newFakeHost()
	host.infos[newsURL] = &InstallInfo{URL: newsURL, InstalledNames: []string{"daily", "news"}}
	assigned := NewPermissionSet()
	assigned.Add("network", "read")
	host.assigned["app://daily"] = assigned

	target, err := Resolve(context.Background(), host, newsURL)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !target.IsInstalled {
		t.Error("expected installed target")
	}
	if !target.AssignedPermissions.Equal(assigned) {
		t.Errorf("assigned = %v, want %v", target.AssignedPermissions.Map(), assigned.Map())
	}

	// The snapshot must not alias host state.
	assigned.Add("network", "write")
	if target.AssignedPermissions.Contains("network", "write") {
		t.Error("AssignedPermissions aliases host data")
	}
}

func TestResolve_InstalledWithoutPermissionRecord(t *testing.T) {
	host := newFakeHost()
	host.infos[newsURL] = &InstallInfo{URL: newsURL, InstalledNames: []string{"news"}}

	target, err := Resolve(context.Background(), host, newsURL)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if target.AssignedPermissions == nil || target.AssignedPermissions.Len() != 0 {
		t.Errorf("assigned = %v, want empty set", target.AssignedPermissions)
	}
}

func TestResolve_DoesNotModifyHostInfo(t *testing.T) {
	host := newFakeHost()
	reported := &InstallInfo{URL: newsURL, InstalledNames: []string{"news"}}
	host.infos[newsURL] = reported
	host.infos[otherURL] = &InstallInfo{URL: otherURL}

	target, err := Resolve(context.Background(), host, newsURL)
	if err != nil {
		t.Fatal(err)
	}
	target.Info.InstalledNames[0] = "changed"
	if reported.InstalledNames[0] != "news" {
		t.Error("target Info aliases host data")
	}

	target, err = Resolve(context.Background(), host, otherURL)
	if err != nil {
		t.Fatal(err)
	}
	if target.Info.InstalledNames == nil || target.IsInstalled {
		t.Errorf("InstalledNames = %v, installed = %v; want empty and not installed", target.Info.InstalledNames, target.IsInstalled)
	}
	if host.infos[otherURL].InstalledNames != nil {
		t.Error("Resolve wrote into the host's InstallInfo")
	}
}

func TestResolve_SetupFailures(t *testing.T) {
	host := newFakeHost()
	host.infoErr = errHostDown
	if _, err := Resolve(context.Background(), host, newsURL); !errors.Is(err, errHostDown) {
		t.Errorf("Resolve() error = %v, want host down", err)
	}

	host = newFakeHost()
	host.infos[newsURL] = &InstallInfo{URL: newsURL, InstalledNames: []string{"news"}}
	host.assignedErr = errHostDown
	if _, err := Resolve(context.Background(), host, newsURL); !errors.Is(err, errHostDown) {
		t.Errorf("Resolve() error = %v, want host down", err)
	}
}

func TestCurrentApp(t *testing.T) {
	target := TargetAppInfo{URL: newsURL}

	host := newFakeHost()
	host.bindings["self"] = &AppBinding{Name: "self", URL: newsURL}
	host.bindings["dat"] = &AppBinding{Name: "dat", URL: otherURL}
	host.bindings["web"] = &AppBinding{Name: "web", URL: "https://example.com/web"}
	host.infos[otherURL] = &InstallInfo{URL: otherURL, Title: "Other App"}

	tests := []struct {
		name string
		want *AppSummary
	}{
		{"", nil},
		{"free", nil},
		{"self", nil},
		{"dat", &AppSummary{URL: otherURL, Title: "Other App"}},
		{"web", &AppSummary{URL: "https://example.com/web"}},
	}
	for _, tt := range tests {
		got, err := CurrentApp(context.Background(), host, target, tt.name)
		if err != nil {
			t.Errorf("CurrentApp(%q) error: %v", tt.name, err)
			continue
		}
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("CurrentApp(%q) = %+v, want nil", tt.name, got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("CurrentApp(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestCurrentApp_InfoFailureDegrades(t *testing.T) {
	host := newFakeHost()
	host.bindings["dat"] = &AppBinding{Name: "dat", URL: otherURL}
	host.infoErr = errHostDown

	got, err := CurrentApp(context.Background(), host, TargetAppInfo{URL: newsURL}, "dat")
	if err != nil {
		t.Fatalf("CurrentApp() error: %v", err)
	}
	if got == nil || got.URL != otherURL || got.Title != "" {
		t.Errorf("CurrentApp() = %+v, want URL only", got)
	}
}

func TestCurrentApp_BindingError(t *testing.T) {
	host := newFakeHost()
	host.bindingErr = errHostDown
	if _, err := CurrentApp(context.Background(), host, TargetAppInfo{URL: newsURL}, "news"); !errors.Is(err, errHostDown) {
		t.Errorf("CurrentApp() error = %v, want host down", err)
	}
}

func ptr[T any](v T) *T { return &v }
