package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	installsFileName    = "installs.json"
	currentStoreVersion = 1
)

// StoreManager reads and writes the install store: which names are bound to
// which archive URLs, and the permissions granted to each installed app.
type StoreManager struct {
	dir string
	mu  sync.RWMutex
}

// NewStoreManager creates a StoreManager keeping installs.json in dir.
func NewStoreManager(dir string) *StoreManager {
	return &StoreManager{dir: dir}
}

// Path returns the full path to the install store file.
func (sm *StoreManager) Path() string {
	return filepath.Join(sm.dir, installsFileName)
}

// Load reads the store from disk. Returns an empty store if the file doesn't exist.
func (sm *StoreManager) Load() (*InstallStore, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.load()
}

func (sm *StoreManager) load() (*InstallStore, error) {
	data, err := os.ReadFile(sm.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return emptyStore(), nil
		}
		return nil, fmt.Errorf("reading install store: %w", err)
	}

	var st InstallStore
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing install store: %w", err)
	}
	if st.Permissions == nil {
		st.Permissions = make(map[string]*PermissionSet)
	}
	return &st, nil
}

// save writes the store to disk atomically. Bindings keep the order they
// were first made in. Callers hold sm.mu.
func (sm *StoreManager) save(st *InstallStore) error {
	if st.Version == 0 {
		st.Version = currentStoreVersion
	}

	if err := os.MkdirAll(sm.dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling install store: %w", err)
	}
	data = append(data, '\n')

	tmpPath := sm.Path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing install store: %w", err)
	}
	if err := os.Rename(tmpPath, sm.Path()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving install store: %w", err)
	}
	return nil
}

// Binding returns the binding for name, or nil if the name is free.
func (sm *StoreManager) Binding(name string) (*AppBinding, error) {
	st, err := sm.Load()
	if err != nil {
		return nil, err
	}
	for _, b := range st.Bindings {
		if b.Name == name {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

// NamesFor returns every install name bound to url, in binding order.
func (sm *StoreManager) NamesFor(url string) ([]string, error) {
	st, err := sm.Load()
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, b := range st.Bindings {
		if b.URL == url {
			names = append(names, b.Name)
		}
	}
	return names, nil
}

// Permissions returns the permissions granted to appURL (an app://<name> address).
func (sm *StoreManager) Permissions(appURL string) (*PermissionSet, error) {
	st, err := sm.Load()
	if err != nil {
		return nil, err
	}
	perms, ok := st.Permissions[appURL]
	if !ok || perms == nil {
		return nil, fmt.Errorf("permissions for %s: %w", appURL, ErrNotFound)
	}
	return perms, nil
}

// Install binds name to url and records perms under app://<name>.
// Whatever previously occupied name is replaced; other names bound to url
// are left alone.
func (sm *StoreManager) Install(name, url string, perms *PermissionSet, now time.Time) error {
	if name == "" {
		return ErrNotReady
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	st, err := sm.load()
	if err != nil {
		return err
	}

	binding := AppBinding{Name: name, URL: url, InstalledAt: now.UTC()}
	found := false
	for i, b := range st.Bindings {
		if b.Name == name {
			st.Bindings[i] = binding
			found = true
			break
		}
	}
	if !found {
		st.Bindings = append(st.Bindings, binding)
	}

	if perms == nil {
		perms = NewPermissionSet()
	}
	st.Permissions[AppURL(name)] = perms.Clone()

	return sm.save(st)
}

// Uninstall removes the binding for name and its granted permissions.
func (sm *StoreManager) Uninstall(name string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	st, err := sm.load()
	if err != nil {
		return err
	}

	idx := -1
	for i, b := range st.Bindings {
		if b.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("app://%s: %w", name, ErrNotFound)
	}

	st.Bindings = append(st.Bindings[:idx], st.Bindings[idx+1:]...)
	delete(st.Permissions, AppURL(name))
	return sm.save(st)
}

func emptyStore() *InstallStore {
	return &InstallStore{
		Version:     currentStoreVersion,
		Bindings:    []AppBinding{},
		Permissions: make(map[string]*PermissionSet),
	}
}
