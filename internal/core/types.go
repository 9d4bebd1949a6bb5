// Package core provides the business logic for hatch.
// It has zero UI dependencies and is independently testable.
package core

import "time"

// Config represents the hatch configuration stored at ~/.hatch/config.json.
type Config struct {
	Settings Settings `json:"settings"`
}

// Settings holds user preferences.
type Settings struct {
	ArchivesDir  string `json:"archivesDir,omitempty"`  // Overrides <home>/archives for dat:// keys.
	HTTPRetryMax int    `json:"httpRetryMax,omitempty"` // Retries for http(s) archive reads.
}

// InstallInfo is what the host reports about an application archive.
type InstallInfo struct {
	URL            string   `json:"url"`
	Title          string   `json:"title,omitempty"`
	InstalledNames []string `json:"installedNames"` // Names bound to this URL, in binding order.
}

// AppBinding is an install binding: a short name pointing at an archive URL.
type AppBinding struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	InstalledAt time.Time `json:"installedAt,omitempty"`
}

// AppSummary describes the application currently occupying an install name.
// Title is empty when the occupant could not be described beyond its URL.
type AppSummary struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// TargetAppInfo is the immutable snapshot of the application being installed.
// Optional strings are empty when the manifest did not provide a usable value.
type TargetAppInfo struct {
	URL         string      `json:"url"`
	Info        InstallInfo `json:"info"`
	IsInstalled bool        `json:"isInstalled"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Author      string      `json:"author,omitempty"`
	Name        string      `json:"name,omitempty"` // Manifest default install name (slug).

	// RequestedPermissions is nil when the manifest requests nothing usable.
	RequestedPermissions *PermissionSet `json:"requestedPermissions,omitempty"`
	// AssignedPermissions is never nil; it is empty for fresh installs.
	AssignedPermissions *PermissionSet `json:"assignedPermissions"`
}

// InstallResult is handed to the host when the dialog finishes successfully.
type InstallResult struct {
	Name        string         `json:"name"`
	Permissions *PermissionSet `json:"permissions"`
}

// ErrorResult is handed to the host when finalization itself failed.
type ErrorResult struct {
	Name          string `json:"name"`
	Message       string `json:"message"`
	InternalError bool   `json:"internalError"`
}

// InstallStore is the on-disk registry of install bindings and granted
// permissions, stored at ~/.hatch/installs.json.
type InstallStore struct {
	Version     int                       `json:"version"`
	Bindings    []AppBinding              `json:"bindings"`
	Permissions map[string]*PermissionSet `json:"permissions"` // Keyed by app://<name>.
}
