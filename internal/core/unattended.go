package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/barysiuk/hatch/internal/logging"
)

// UnattendedOptions are the choices an unattended install makes up front.
type UnattendedOptions struct {
	// Name overrides the install name. Empty keeps the dialog's initial choice.
	Name string
	// Deny lists "api:perm" grants to revoke from the initial selection.
	Deny []string
}

// ParseGrant splits an "api:perm" pair.
func ParseGrant(s string) (api, perm string, err error) {
	api, perm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || api == "" || perm == "" {
		return "", "", fmt.Errorf("invalid permission %q: want api:perm", s)
	}
	return api, perm, nil
}

// RunUnattended drives the install dialog for url without a user: it applies
// opts and advances through every page. Any failure before finalization
// cancels the dialog. The returned wizard reflects the final state.
func RunUnattended(ctx context.Context, host Host, url string, opts UnattendedOptions) (*Wizard, error) {
	w := Setup(ctx, host, url)
	if err := w.Err(); err != nil {
		_, _ = w.Cancel(ctx, host)
		return w, err
	}

	if err := applyUnattended(w, opts); err != nil {
		_, _ = w.Cancel(ctx, host)
		return w, err
	}

	if opts.Name != "" {
		if _, err := w.ResolveReplacement(ctx, host, w.LookupID()); err != nil {
			logging.Warn("Replacement lookup failed", zap.String("name", w.ResolvedName()), zap.Error(err))
		}
	}

	if !w.Ready() {
		_, _ = w.Cancel(ctx, host)
		return w, fmt.Errorf("%w: the app does not name a default location, pass --name", ErrNotReady)
	}

	for !w.Done() {
		if _, err := w.Advance(ctx, host); err != nil {
			return w, err
		}
	}
	return w, nil
}

func applyUnattended(w *Wizard, opts UnattendedOptions) error {
	if opts.Name != "" {
		name := Slugify(opts.Name)
		if name == "" {
			return fmt.Errorf("%w: %q is not a usable app name", ErrInvalidAddress, opts.Name)
		}
		if w.HasDefaultName() && name == w.Target().Name {
			w.SetNameOption(NameDefault)
		} else {
			w.SetNameOption(NameCustom)
			w.SetCustomName(name)
		}
	}

	for _, d := range opts.Deny {
		api, perm, err := ParseGrant(d)
		if err != nil {
			return err
		}
		if err := w.TogglePermission(api, perm, false); err != nil {
			return err
		}
	}
	return nil
}
