package core

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func setupWizard(t *testing.T, host *fakeHost, url string) *Wizard {
	t.Helper()
	w := Setup(context.Background(), host, url)
	if w.Err() != nil {
		t.Fatalf("Setup() error: %v", w.Err())
	}
	return w
}

func TestWizard_NoPermissionsHasTwoPages(t *testing.T) {
	for name, manifest := range map[string]string{
		"missing field": `{"app": {"name": "news"}}`,
		"empty object":  `{"app": {"name": "news", "permissions": {}}}`,
		"empty lists":   `{"app": {"name": "news", "permissions": {"network": []}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			host := newFakeHost()
			host.manifests[newsURL] = manifest
			w := setupWizard(t, host, newsURL)

			want := []Page{PageAppInfo, PageInstallLocation}
			if got := w.Pages(); !slices.Equal(got, want) {
				t.Errorf("Pages() = %v, want %v", got, want)
			}
			if len(w.PermissionRows()) != 0 {
				t.Error("expected no permission rows")
			}
		})
	}
}

func TestWizard_PermissionsPageListsKnownAPIsInOrder(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news", "permissions": {
  "network": "read",
  "teleport": ["now"],
  "bookmarks": ["write", "read"]
}}}`
	w := setupWizard(t, host, newsURL)

	want := []Page{PageAppInfo, PagePermissions, PageInstallLocation}
	if got := w.Pages(); !slices.Equal(got, want) {
		t.Fatalf("Pages() = %v, want %v", got, want)
	}

	rows := w.PermissionRows()
	var got []string
	for _, r := range rows {
		got = append(got, r.API+":"+r.Perm)
		if !r.Checked {
			t.Errorf("fresh install should pre-grant %s:%s", r.API, r.Perm)
		}
		if r.Label == "" || r.Description == "" {
			t.Errorf("row %s:%s missing label or description", r.API, r.Perm)
		}
	}
	if !slices.Equal(got, []string{"network:read", "bookmarks:write", "bookmarks:read"}) {
		t.Errorf("rows = %v", got)
	}
}

func TestWizard_TogglePermissionRoundTrip(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news", "permissions": {"network": "read", "bookmarks": "read"}}}`
	w := setupWizard(t, host, newsURL)

	before := w.Granted()

	// On, then off, for a permission not yet granted.
	if err := w.TogglePermission("bookmarks", "write", true); err != nil {
		t.Fatal(err)
	}
	if !w.Granted().Contains("bookmarks", "write") {
		t.Error("expected bookmarks:write to be granted")
	}
	if err := w.TogglePermission("bookmarks", "write", false); err != nil {
		t.Fatal(err)
	}
	if !w.Granted().Equal(before) {
		t.Errorf("granted = %v, want %v", w.Granted().Map(), before.Map())
	}

	// Off then on for one that was granted leaves it granted.
	if err := w.TogglePermission("network", "read", false); err != nil {
		t.Fatal(err)
	}
	if w.Granted().Contains("network", "read") {
		t.Error("expected network:read to be revoked")
	}
	if !w.Granted().Has("network") {
		t.Error("revoking the last perm must keep the api key")
	}
	if err := w.TogglePermission("network", "read", true); err != nil {
		t.Fatal(err)
	}
	if !w.Granted().Contains("network", "read") {
		t.Error("expected network:read to be granted again")
	}
}

func TestWizard_TogglePermissionUnknownAPI(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news", "permissions": {"teleport": "now"}}}`
	w := setupWizard(t, host, newsURL)

	before := w.Granted()
	if err := w.TogglePermission("teleport", "now", false); !errors.Is(err, ErrUnknownCapability) {
		t.Errorf("TogglePermission() error = %v, want ErrUnknownCapability", err)
	}
	if !w.Granted().Equal(before) {
		t.Error("rejected toggle changed granted permissions")
	}
}

func TestWizard_GrantedSkipsUnknownAPIs(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news", "permissions": {"network": "read", "teleport": "now"}}}`
	w := setupWizard(t, host, newsURL)

	reg := BuiltinCapabilities()
	for _, api := range w.Granted().APIs() {
		if !reg.Known(api) {
			t.Errorf("granted contains unknown API %q", api)
		}
	}
	if !w.Granted().Contains("network", "read") {
		t.Error("known API should stay granted")
	}

	// Assigned permissions of an existing install are filtered the same way.
	assigned := NewPermissionSet()
	assigned.Add("teleport", "now")
	assigned.Add("bookmarks", "read")
	w = NewWizard(TargetAppInfo{
		URL:                 newsURL,
		Name:                "news",
		IsInstalled:         true,
		Info:                InstallInfo{InstalledNames: []string{"news"}},
		AssignedPermissions: assigned,
	})
	if got := w.Granted().APIs(); !slices.Equal(got, []string{"bookmarks"}) {
		t.Errorf("granted APIs = %v, want [bookmarks]", got)
	}

	if _, err := w.Advance(context.Background(), host); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Advance(context.Background(), host); err != nil {
		t.Fatal(err)
	}
	if got := host.successes[0].Permissions; got.Has("teleport") {
		t.Errorf("result permissions = %v, want no teleport", got.Map())
	}
}

func TestWizard_FreshTargetNoReplacement(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"title": "News", "app": {"name": "news"}}`
	w := setupWizard(t, host, newsURL)

	if w.NameOption() != NameDefault {
		t.Errorf("NameOption() = %v, want default", w.NameOption())
	}
	if w.ResolvedName() != "news" {
		t.Errorf("ResolvedName() = %q, want news", w.ResolvedName())
	}
	if w.Replaced() != nil {
		t.Errorf("Replaced() = %+v, want nil", w.Replaced())
	}
	if w.Title() != "Install app://news" {
		t.Errorf("Title() = %q", w.Title())
	}
}

func TestWizard_SetupFindsOccupant(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news"}}`
	host.bindings["news"] = &AppBinding{Name: "news", URL: otherURL}
	host.infos[otherURL] = &InstallInfo{URL: otherURL, Title: "Old News"}

	w := setupWizard(t, host, newsURL)
	r := w.Replaced()
	if r == nil || r.Title != "Old News" {
		t.Errorf("Replaced() = %+v, want Old News", r)
	}
}

func TestWizard_InstalledWithOverriddenName(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news", "permissions": {"network": ["read", "write"]}}}`
	host.infos[newsURL] = &InstallInfo{URL: newsURL, InstalledNames: []string{"my-news"}}
	assigned := NewPermissionSet()
	assigned.Add("network", "read")
	host.assigned["app://my-news"] = assigned

	w := setupWizard(t, host, newsURL)

	if w.NameOption() != NameCustom {
		t.Errorf("NameOption() = %v, want custom", w.NameOption())
	}
	if w.CustomName() != "my-news" {
		t.Errorf("CustomName() = %q, want my-news", w.CustomName())
	}
	if !w.Granted().Equal(assigned) {
		t.Errorf("granted = %v, want assigned %v", w.Granted().Map(), assigned.Map())
	}
	if w.Title() != "Configure app://my-news" {
		t.Errorf("Title() = %q", w.Title())
	}
}

func TestWizard_InstalledUnderDefaultName(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news"}}`
	host.infos[newsURL] = &InstallInfo{URL: newsURL, InstalledNames: []string{"news"}}
	host.bindings["news"] = &AppBinding{Name: "news", URL: newsURL}

	w := setupWizard(t, host, newsURL)
	if w.NameOption() != NameDefault {
		t.Errorf("NameOption() = %v, want default", w.NameOption())
	}
	if w.Replaced() != nil {
		t.Errorf("reinstalling over itself should not warn, got %+v", w.Replaced())
	}
}

func TestWizard_NoManifestNameStartsCustom(t *testing.T) {
	host := newFakeHost()
	w := setupWizard(t, host, newsURL)

	if w.NameOption() != NameCustom || w.CustomName() != "" {
		t.Errorf("NameOption() = %v, CustomName() = %q; want custom, empty", w.NameOption(), w.CustomName())
	}
	if w.Ready() {
		t.Error("wizard should not be ready without a name")
	}
	if w.Title() != "Install this app" {
		t.Errorf("Title() = %q", w.Title())
	}

	// Default cannot be selected without a manifest name.
	w.SetNameOption(NameDefault)
	if w.NameOption() != NameCustom {
		t.Error("default option selected without a manifest name")
	}
}

func TestWizard_CustomNameIsSlugified(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news"}}`
	w := setupWizard(t, host, newsURL)

	w.SetNameOption(NameCustom)
	w.SetCustomName("My Pics App!")
	if w.CustomName() != "my-pics-app" {
		t.Errorf("CustomName() = %q, want my-pics-app", w.CustomName())
	}
	if w.ResolvedName() != "my-pics-app" {
		t.Errorf("ResolvedName() = %q", w.ResolvedName())
	}

	w.SetNameOption(NameDefault)
	if w.ResolvedName() != "news" {
		t.Errorf("ResolvedName() = %q, want news", w.ResolvedName())
	}
	if w.CustomName() != "my-pics-app" {
		t.Error("switching option should keep the custom text")
	}
}

func TestWizard_StaleLookupDropped(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news"}}`
	w := setupWizard(t, host, newsURL)

	first := w.SetCustomName("a")
	second := w.SetCustomName("ab")
	if second <= first {
		t.Fatalf("lookup ids not increasing: %d then %d", first, second)
	}

	if w.ApplyReplacement(first, &AppSummary{URL: "stale"}) {
		t.Error("stale lookup applied")
	}
	if w.Replaced() != nil {
		t.Errorf("Replaced() = %+v after stale result", w.Replaced())
	}
	if !w.ApplyReplacement(second, &AppSummary{URL: otherURL}) {
		t.Error("latest lookup not applied")
	}
	if w.Replaced() == nil || w.Replaced().URL != otherURL {
		t.Errorf("Replaced() = %+v", w.Replaced())
	}
}

func TestWizard_ResolveReplacementFailureClears(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news"}}`
	w := setupWizard(t, host, newsURL)
	w.ApplyReplacement(w.LookupID(), &AppSummary{URL: otherURL})

	host.bindingErr = errHostDown
	id := w.SetCustomName("other")
	if _, err := w.ResolveReplacement(context.Background(), host, id); !errors.Is(err, errHostDown) {
		t.Errorf("ResolveReplacement() error = %v", err)
	}
	if w.Replaced() != nil {
		t.Error("failed lookup should clear the replacement")
	}
}

func TestWizard_AdvanceAndFinalize(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "My App", "permissions": {"network": ["read"]}}}`
	w := setupWizard(t, host, newsURL)
	ctx := context.Background()

	for i := 1; i < len(w.Pages()); i++ {
		outcome, err := w.Advance(ctx, host)
		if err != nil || outcome != OutcomeNone {
			t.Fatalf("Advance() = %v, %v", outcome, err)
		}
		if w.PageIndex() != i {
			t.Errorf("PageIndex() = %d, want %d", w.PageIndex(), i)
		}
	}
	if !w.IsLastPage() || w.Page() != PageInstallLocation {
		t.Fatalf("expected to be on the location page, got %v", w.Page())
	}

	outcome, err := w.Advance(ctx, host)
	if err != nil {
		t.Fatalf("final Advance() error: %v", err)
	}
	if outcome != OutcomeInstalled || !w.Done() {
		t.Errorf("outcome = %v, done = %v", outcome, w.Done())
	}
	if len(host.successes) != 1 {
		t.Fatalf("expected one success close, got %d", len(host.successes))
	}

	data, err := json.Marshal(host.successes[0])
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"name":"my-app","permissions":{"network":["read"]}}`; string(data) != want {
		t.Errorf("payload = %s, want %s", data, want)
	}

	if _, err := w.Advance(ctx, host); !errors.Is(err, ErrDialogClosed) {
		t.Errorf("Advance() after finish error = %v, want ErrDialogClosed", err)
	}
}

func TestWizard_NotReadyBlocksFinish(t *testing.T) {
	host := newFakeHost()
	w := setupWizard(t, host, newsURL)
	ctx := context.Background()

	if _, err := w.Advance(ctx, host); err != nil {
		t.Fatalf("Advance() error: %v", err)
	}
	if _, err := w.Advance(ctx, host); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Advance() error = %v, want ErrNotReady", err)
	}
	if w.PageIndex() != 1 || w.Done() {
		t.Error("blocked advance changed state")
	}

	w.SetCustomName("fresh")
	if outcome, err := w.Advance(ctx, host); err != nil || outcome != OutcomeInstalled {
		t.Errorf("Advance() = %v, %v", outcome, err)
	}
	if host.successes[0].Name != "fresh" {
		t.Errorf("name = %q, want fresh", host.successes[0].Name)
	}
	if host.successes[0].Permissions == nil {
		t.Error("permissions should be an empty set, not nil")
	}
}

func TestWizard_FinalizeFailureReportsError(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news"}}`
	host.successErr = errHostDown
	w := setupWizard(t, host, newsURL)
	ctx := context.Background()

	_, _ = w.Advance(ctx, host)
	outcome, err := w.Advance(ctx, host)
	if !errors.Is(err, errHostDown) {
		t.Errorf("Advance() error = %v, want host down", err)
	}
	if outcome != OutcomeInternalError {
		t.Errorf("outcome = %v, want internal error", outcome)
	}
	if len(host.errorsOut) != 1 {
		t.Fatalf("expected one error close, got %d", len(host.errorsOut))
	}
	res := host.errorsOut[0]
	if res.Name != "InternalError" || res.Message != "host down" || !res.InternalError {
		t.Errorf("error result = %+v", res)
	}
}

func TestWizard_Cancel(t *testing.T) {
	host := newFakeHost()
	w := setupWizard(t, host, newsURL)

	outcome, err := w.Cancel(context.Background(), host)
	if err != nil || outcome != OutcomeCancelled {
		t.Errorf("Cancel() = %v, %v", outcome, err)
	}
	if host.cancels != 1 || len(host.successes) != 0 {
		t.Errorf("cancels = %d, successes = %d", host.cancels, len(host.successes))
	}
	if _, err := w.Cancel(context.Background(), host); !errors.Is(err, ErrDialogClosed) {
		t.Errorf("second Cancel() error = %v", err)
	}
}

func TestWizard_SetupErrorCaptured(t *testing.T) {
	host := newFakeHost()
	host.infoErr = errHostDown

	w := Setup(context.Background(), host, newsURL)
	if !errors.Is(w.Err(), errHostDown) {
		t.Fatalf("Err() = %v, want host down", w.Err())
	}
	if w.Ready() {
		t.Error("errored wizard must not be ready")
	}
	if _, err := w.Advance(context.Background(), host); !errors.Is(err, errHostDown) {
		t.Errorf("Advance() error = %v", err)
	}
	if outcome, _ := w.Cancel(context.Background(), host); outcome != OutcomeCancelled {
		t.Errorf("Cancel() outcome = %v", outcome)
	}
}

func TestWizard_SplitFinish(t *testing.T) {
	host := newFakeHost()
	host.manifests[newsURL] = `{"app": {"name": "news", "permissions": {"network": "read"}}}`
	w := setupWizard(t, host, newsURL)

	if _, err := w.BeginFinish(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("BeginFinish() on first page error = %v, want ErrNotReady", err)
	}
	for !w.IsLastPage() {
		if _, err := w.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := w.Step(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Step() on last page error = %v, want ErrNotReady", err)
	}

	result, err := w.BeginFinish()
	if err != nil {
		t.Fatalf("BeginFinish() error: %v", err)
	}
	if !w.Done() || w.Outcome() != OutcomeNone || len(host.successes) != 0 {
		t.Fatalf("done = %v, outcome = %v, successes = %d", w.Done(), w.Outcome(), len(host.successes))
	}
	if result.Name != "news" || !result.Permissions.Contains("network", "read") {
		t.Errorf("result = %+v", result)
	}
	if err := w.TogglePermission("network", "read", false); !errors.Is(err, ErrDialogClosed) {
		t.Errorf("TogglePermission() after BeginFinish error = %v", err)
	}
	if _, err := w.BeginFinish(); !errors.Is(err, ErrDialogClosed) {
		t.Errorf("second BeginFinish() error = %v", err)
	}

	if err := DeliverResult(context.Background(), host, result); err != nil {
		t.Fatal(err)
	}
	if got := w.EndFinish(nil); got != OutcomeInstalled || w.Outcome() != OutcomeInstalled {
		t.Errorf("EndFinish() = %v", got)
	}
}

func TestWizard_DeliverResultFailure(t *testing.T) {
	host := newFakeHost()
	host.successErr = errHostDown

	err := DeliverResult(context.Background(), host, InstallResult{Name: "news"})
	if !errors.Is(err, errHostDown) || len(host.errorsOut) != 1 {
		t.Fatalf("err = %v, error closes = %d", err, len(host.errorsOut))
	}

	w := NewWizard(TargetAppInfo{URL: newsURL, Name: "news"})
	if got := w.EndFinish(err); got != OutcomeInternalError {
		t.Errorf("EndFinish() = %v, want internal error", got)
	}
}

func TestWizard_MarkCancelled(t *testing.T) {
	host := newFakeHost()
	w := setupWizard(t, host, newsURL)

	if err := w.MarkCancelled(); err != nil {
		t.Fatal(err)
	}
	if !w.Done() || w.Outcome() != OutcomeCancelled || host.cancels != 0 {
		t.Errorf("done = %v, outcome = %v, cancels = %d", w.Done(), w.Outcome(), host.cancels)
	}
	if err := w.MarkCancelled(); !errors.Is(err, ErrDialogClosed) {
		t.Errorf("second MarkCancelled() error = %v", err)
	}
}
