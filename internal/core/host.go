package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/barysiuk/hatch/internal/logging"
)

// Host is everything the install dialog needs from its surrounding runtime:
// archive reads, the install registry, the permission store and the dialog
// close lifecycle.
type Host interface {
	// ReadManifest returns the raw manifest of the archive at url.
	// A missing manifest is reported with ErrNotFound.
	ReadManifest(ctx context.Context, url string) ([]byte, error)
	// GetInstallInfo reports which names are bound to the archive at url.
	GetInstallInfo(ctx context.Context, url string) (*InstallInfo, error)
	// GetAssignedPermissions returns what was granted to appURL (app://<name>).
	// ErrNotFound when nothing was recorded.
	GetAssignedPermissions(ctx context.Context, appURL string) (*PermissionSet, error)
	// GetInstalledBinding returns the binding for name in profile, or nil.
	GetInstalledBinding(ctx context.Context, profile int, name string) (*AppBinding, error)

	CloseSuccess(ctx context.Context, result InstallResult) error
	CloseError(ctx context.Context, result ErrorResult) error
	CloseCancel(ctx context.Context) error
}

// LocalHost is a Host backed by the on-disk install store and archive readers.
// Close results are written as JSON lines to Out.
type LocalHost struct {
	Store    *StoreManager
	Archives ArchiveReader
	Target   string // Canonical URL of the archive being installed.
	Out      io.Writer
	Now      func() time.Time

	closed bool
}

// NewLocalHost creates a host for installing target.
func NewLocalHost(store *StoreManager, archives ArchiveReader, target string, out io.Writer) *LocalHost {
	return &LocalHost{
		Store:    store,
		Archives: archives,
		Target:   target,
		Out:      out,
		Now:      time.Now,
	}
}

// Closed reports whether one of the Close methods completed.
func (h *LocalHost) Closed() bool {
	return h.closed
}

// ReadManifest implements Host.
func (h *LocalHost) ReadManifest(ctx context.Context, url string) ([]byte, error) {
	addr, err := ParseAddress(url)
	if err != nil {
		return nil, err
	}
	data, err := h.Archives.ReadFile(ctx, addr, ManifestFile)
	logging.LogHostCall("readManifest", addr.URL, err)
	return data, err
}

// GetInstallInfo implements Host. The archive must exist; its title comes
// from the manifest when one is readable.
func (h *LocalHost) GetInstallInfo(ctx context.Context, url string) (*InstallInfo, error) {
	addr, err := ParseAddress(url)
	if err != nil {
		return nil, err
	}
	if err := h.Archives.Exists(ctx, addr); err != nil {
		logging.LogHostCall("getInstallInfo", addr.URL, err)
		return nil, err
	}

	names, err := h.Store.NamesFor(addr.URL)
	if err != nil {
		logging.LogHostCall("getInstallInfo", addr.URL, err)
		return nil, err
	}

	info := &InstallInfo{URL: addr.URL, InstalledNames: names}
	if data, err := h.Archives.ReadFile(ctx, addr, ManifestFile); err == nil {
		manifest, _ := ParseManifestOrEmpty(data)
		info.Title = AsDisplayString(manifest.Get("title"))
	}
	logging.LogHostCall("getInstallInfo", addr.URL, nil)
	return info, nil
}

// GetAssignedPermissions implements Host.
func (h *LocalHost) GetAssignedPermissions(_ context.Context, appURL string) (*PermissionSet, error) {
	perms, err := h.Store.Permissions(appURL)
	logging.LogHostCall("getAssignedPermissions", appURL, err)
	return perms, err
}

// GetInstalledBinding implements Host. Only profile 0 exists.
func (h *LocalHost) GetInstalledBinding(_ context.Context, profile int, name string) (*AppBinding, error) {
	if profile != 0 || name == "" {
		return nil, nil
	}
	b, err := h.Store.Binding(name)
	logging.LogHostCall("getInstalledBinding", AppURL(name), err)
	return b, err
}

// CloseSuccess implements Host: it binds the name, stores the granted
// permissions and prints the result.
func (h *LocalHost) CloseSuccess(ctx context.Context, result InstallResult) error {
	if h.closed {
		return ErrDialogClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.Name == "" {
		return ErrNotReady
	}
	if err := h.Store.Install(result.Name, h.Target, result.Permissions, h.Now()); err != nil {
		return fmt.Errorf("installing %s: %w", AppURL(result.Name), err)
	}
	if result.Permissions == nil {
		result.Permissions = NewPermissionSet()
	}
	if err := h.emit(result); err != nil {
		return err
	}
	h.closed = true
	logging.Info("Installed app", zap.String("name", result.Name), zap.String("url", h.Target))
	return nil
}

// CloseError implements Host.
func (h *LocalHost) CloseError(_ context.Context, result ErrorResult) error {
	if h.closed {
		return ErrDialogClosed
	}
	h.closed = true
	logging.Warn("Install failed", zap.String("kind", result.Name), zap.String("message", result.Message))
	return h.emit(result)
}

// CloseCancel implements Host.
func (h *LocalHost) CloseCancel(_ context.Context) error {
	if h.closed {
		return ErrDialogClosed
	}
	h.closed = true
	logging.Info("Install cancelled", zap.String("url", h.Target))
	return nil
}

func (h *LocalHost) emit(v any) error {
	if h.Out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')
	if _, err := h.Out.Write(data); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// IsNotFound reports whether err means a record was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
