package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/barysiuk/hatch/internal/logging"
)

// Page identifies one step of the install dialog.
type Page int

const (
	PageAppInfo Page = iota
	PagePermissions
	PageInstallLocation
)

func (p Page) String() string {
	switch p {
	case PageAppInfo:
		return "info"
	case PagePermissions:
		return "permissions"
	case PageInstallLocation:
		return "location"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

// NameOption selects where the install name comes from.
type NameOption int

const (
	NameDefault NameOption = iota // The manifest's app.name.
	NameCustom                    // Text typed by the user.
)

func (o NameOption) String() string {
	if o == NameCustom {
		return "custom"
	}
	return "default"
}

// Outcome is how a dialog ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeInstalled
	OutcomeInternalError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeInternalError:
		return "internal-error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// PermissionRow is one checkbox on the permissions page.
type PermissionRow struct {
	API         string
	Label       string // Registry label of API.
	Perm        string
	Description string
	Checked     bool
}

// Wizard holds the mutable state of one install dialog. It only moves
// forward: pages advance until the last one, and leaving the last page
// finalizes the install.
type Wizard struct {
	target   TargetAppInfo
	registry *CapabilityRegistry

	pages []Page
	page  int

	nameOption NameOption
	customName string
	granted    *PermissionSet

	replaced  *AppSummary
	lookupSeq int

	err     error
	done    bool
	outcome Outcome
}

// NewWizard creates the initial dialog state for target. No host calls are
// made; see Setup for the full sequence.
func NewWizard(target TargetAppInfo) *Wizard {
	w := &Wizard{
		target:   target,
		registry: BuiltinCapabilities(),
	}

	if target.RequestedPermissions == nil {
		w.pages = []Page{PageAppInfo, PageInstallLocation}
	} else {
		w.pages = []Page{PageAppInfo, PagePermissions, PageInstallLocation}
	}

	switch {
	case target.IsInstalled && len(target.Info.InstalledNames) > 0 && target.Name != target.Info.InstalledNames[0]:
		w.nameOption = NameCustom
		w.customName = Slugify(target.Info.InstalledNames[0])
	case target.Name == "":
		w.nameOption = NameCustom
	default:
		w.nameOption = NameDefault
	}

	switch {
	case target.IsInstalled:
		w.granted = target.AssignedPermissions.Clone()
	default:
		w.granted = target.RequestedPermissions.Clone()
	}
	if w.granted == nil {
		w.granted = NewPermissionSet()
	}
	// Only APIs the registry knows can be granted.
	for _, api := range w.granted.APIs() {
		if !w.registry.Known(api) {
			w.granted.Delete(api)
		}
	}

	return w
}

// NewWizardWithError creates a dialog that can only show err and be dismissed.
func NewWizardWithError(url string, err error) *Wizard {
	return &Wizard{
		target:   TargetAppInfo{URL: url, AssignedPermissions: NewPermissionSet()},
		registry: BuiltinCapabilities(),
		pages:    []Page{PageAppInfo, PageInstallLocation},
		granted:  NewPermissionSet(),
		err:      err,
	}
}

// Setup resolves url and prepares the dialog. When the manifest names a
// default install location, whatever currently occupies it is looked up.
// Failures are captured in Err rather than returned.
func Setup(ctx context.Context, host Host, url string) *Wizard {
	target, err := Resolve(ctx, host, url)
	if err != nil {
		logging.Error("Install dialog setup failed", zap.String("address", url), zap.Error(err))
		return NewWizardWithError(url, err)
	}

	w := NewWizard(target)
	if target.Name != "" {
		if _, err := w.ResolveReplacement(ctx, host, w.lookupSeq); err != nil {
			logging.Warn("Replacement lookup failed", zap.String("name", w.ResolvedName()), zap.Error(err))
		}
	}
	logging.LogTransition("setup", w.page, url)
	return w
}

// Target returns the snapshot the dialog was built from.
func (w *Wizard) Target() TargetAppInfo { return w.target }

// Err returns the setup failure, if any.
func (w *Wizard) Err() error { return w.err }

// Done reports whether the dialog has closed.
func (w *Wizard) Done() bool { return w.done }

// Outcome returns how the dialog ended, or OutcomeNone while it is open.
func (w *Wizard) Outcome() Outcome { return w.outcome }

// Pages returns the page sequence.
func (w *Wizard) Pages() []Page {
	out := make([]Page, len(w.pages))
	copy(out, w.pages)
	return out
}

// PageIndex returns the index of the current page. After finalization it
// equals len(Pages()).
func (w *Wizard) PageIndex() int { return w.page }

// Page returns the current page. After finalization it stays on the last one.
func (w *Wizard) Page() Page {
	if w.page >= len(w.pages) {
		return w.pages[len(w.pages)-1]
	}
	return w.pages[w.page]
}

// IsLastPage reports whether advancing would finalize the install.
func (w *Wizard) IsLastPage() bool {
	return w.page >= len(w.pages)-1
}

// NameOption returns the active name source.
func (w *Wizard) NameOption() NameOption { return w.nameOption }

// CustomName returns the slugified custom name.
func (w *Wizard) CustomName() string { return w.customName }

// HasDefaultName reports whether the manifest supplied a default name.
func (w *Wizard) HasDefaultName() bool { return w.target.Name != "" }

// ResolvedName returns the install name the dialog would finish with, or ""
// when none is selected.
func (w *Wizard) ResolvedName() string {
	if w.nameOption == NameDefault {
		return w.target.Name
	}
	return w.customName
}

// Ready reports whether the dialog can finish.
func (w *Wizard) Ready() bool {
	return w.err == nil && w.ResolvedName() != ""
}

// Granted returns a copy of the permissions the user is granting.
func (w *Wizard) Granted() *PermissionSet { return w.granted.Clone() }

// Replaced returns the application the resolved name currently points at,
// or nil.
func (w *Wizard) Replaced() *AppSummary { return w.replaced }

// LookupID returns the id of the most recent replacement lookup.
func (w *Wizard) LookupID() int { return w.lookupSeq }

// Title is the dialog heading, e.g. "Install app://news".
func (w *Wizard) Title() string {
	verb := "Install"
	if w.target.IsInstalled {
		verb = "Configure"
	}
	if name := w.ResolvedName(); name != "" {
		return verb + " " + AppURL(name)
	}
	return verb + " this app"
}

// PermissionRows lists one row per requested permission of every requested
// API the capability registry recognizes, in requested order.
func (w *Wizard) PermissionRows() []PermissionRow {
	req := w.target.RequestedPermissions
	var rows []PermissionRow
	for _, api := range req.APIs() {
		def, ok := w.registry.Lookup(api)
		if !ok {
			continue
		}
		for _, perm := range req.Get(api) {
			rows = append(rows, PermissionRow{
				API:         api,
				Label:       def.Label,
				Perm:        perm,
				Description: def.Describe(perm),
				Checked:     w.granted.Contains(api, perm),
			})
		}
	}
	return rows
}

// SetNameOption switches the name source and returns the id of the
// replacement lookup the change requires. The default option is only
// available when the manifest names one.
func (w *Wizard) SetNameOption(opt NameOption) int {
	if opt == NameDefault && !w.HasDefaultName() {
		opt = NameCustom
	}
	w.nameOption = opt
	return w.nextLookup()
}

// SetCustomName stores raw as a slug and returns the id of the replacement
// lookup the change requires.
func (w *Wizard) SetCustomName(raw string) int {
	w.customName = Slugify(raw)
	return w.nextLookup()
}

// TogglePermission grants (checked) or revokes perm for api. The api key is
// kept once created, even when its list becomes empty.
func (w *Wizard) TogglePermission(api, perm string, checked bool) error {
	if w.done {
		return ErrDialogClosed
	}
	if !w.registry.Known(api) {
		return fmt.Errorf("%w: %s", ErrUnknownCapability, api)
	}
	if checked {
		w.granted.Add(api, perm)
		return nil
	}
	if !w.granted.Has(api) {
		w.granted.Set(api, nil)
	}
	w.granted.Remove(api, perm)
	return nil
}

// ResolveReplacement runs replacement lookup id against the current name and
// applies the result when id is still the latest. A failed lookup clears the
// replacement and returns the error for logging.
func (w *Wizard) ResolveReplacement(ctx context.Context, host Host, lookup int) (*AppSummary, error) {
	summary, err := CurrentApp(ctx, host, w.target, w.ResolvedName())
	if err != nil {
		w.ApplyReplacement(lookup, nil)
		return nil, err
	}
	w.ApplyReplacement(lookup, summary)
	return summary, nil
}

// ApplyReplacement stores the result of lookup unless a newer lookup has
// been started since. Returns whether the result was applied.
func (w *Wizard) ApplyReplacement(lookup int, summary *AppSummary) bool {
	if lookup != w.lookupSeq {
		logging.Debug("Dropping stale replacement lookup",
			zap.Int("lookup", lookup), zap.Int("latest", w.lookupSeq))
		return false
	}
	w.replaced = summary
	return true
}

// Advance moves to the next page, finalizing when leaving the last one.
// On the last page it refuses with ErrNotReady until a name is resolved.
// It runs BeginFinish, DeliverResult and EndFinish in sequence; callers that
// deliver asynchronously use the three steps directly.
//
// A host failure to accept the result is reported back to the host as an
// error-shaped close and returned with OutcomeInternalError; it is not
// retried.
func (w *Wizard) Advance(ctx context.Context, host Host) (Outcome, error) {
	if !w.IsLastPage() || w.done || w.err != nil {
		return w.Step()
	}
	result, err := w.BeginFinish()
	if err != nil {
		return OutcomeNone, err
	}
	err = DeliverResult(ctx, host, result)
	return w.EndFinish(err), err
}

// Step moves to the next page without finalizing. On the last page it
// returns ErrNotReady; use BeginFinish there.
func (w *Wizard) Step() (Outcome, error) {
	if w.done {
		return w.outcome, ErrDialogClosed
	}
	if w.err != nil {
		return OutcomeNone, w.err
	}
	if w.IsLastPage() {
		return OutcomeNone, ErrNotReady
	}
	w.page++
	logging.LogTransition("advance", w.page, w.target.URL)
	return OutcomeNone, nil
}

// BeginFinish leaves the last page and closes the dialog to further edits.
// It returns the result to hand to the host with DeliverResult. The outcome
// stays OutcomeNone until EndFinish records the host's answer.
func (w *Wizard) BeginFinish() (InstallResult, error) {
	switch {
	case w.done:
		return InstallResult{}, ErrDialogClosed
	case w.err != nil:
		return InstallResult{}, w.err
	case !w.IsLastPage() || !w.Ready():
		return InstallResult{}, ErrNotReady
	}
	w.page++
	w.done = true
	return InstallResult{
		Name:        w.ResolvedName(),
		Permissions: w.granted.Clone(),
	}, nil
}

// DeliverResult hands result to host. A rejected result is reported back to
// the host as an error-shaped close. It touches no dialog state, so it may
// run off the goroutine that owns the Wizard.
func DeliverResult(ctx context.Context, host Host, result InstallResult) error {
	err := host.CloseSuccess(ctx, result)
	if err == nil {
		return nil
	}
	logging.Error("Finalizing install failed", zap.String("name", result.Name), zap.Error(err))
	if cerr := host.CloseError(ctx, NewErrorResult(err)); cerr != nil {
		logging.Error("Reporting install failure failed", zap.Error(cerr))
	}
	return err
}

// EndFinish records the host's answer to DeliverResult.
func (w *Wizard) EndFinish(err error) Outcome {
	if err != nil {
		w.outcome = OutcomeInternalError
		return w.outcome
	}
	w.outcome = OutcomeInstalled
	logging.LogTransition("finish", w.page, w.target.URL)
	return w.outcome
}

// Cancel closes the dialog without a result.
func (w *Wizard) Cancel(ctx context.Context, host Host) (Outcome, error) {
	if err := w.MarkCancelled(); err != nil {
		return w.outcome, err
	}
	if err := host.CloseCancel(ctx); err != nil {
		return w.outcome, fmt.Errorf("closing dialog: %w", err)
	}
	return w.outcome, nil
}

// MarkCancelled closes the dialog as cancelled without telling the host.
// The caller owes a host.CloseCancel.
func (w *Wizard) MarkCancelled() error {
	if w.done {
		return ErrDialogClosed
	}
	w.done = true
	w.outcome = OutcomeCancelled
	logging.LogTransition("cancel", w.page, w.target.URL)
	return nil
}

func (w *Wizard) nextLookup() int {
	w.lookupSeq++
	return w.lookupSeq
}
