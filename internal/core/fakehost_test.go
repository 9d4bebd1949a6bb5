package core

import (
	"context"
	"errors"
	"fmt"
)

// fakeHost is an in-memory Host for exercising the resolver and wizard.
type fakeHost struct {
	manifests   map[string]string
	infos       map[string]*InstallInfo
	assigned    map[string]*PermissionSet
	bindings    map[string]*AppBinding
	infoErr     error
	assignedErr error
	bindingErr  error
	successErr  error

	successes []InstallResult
	errorsOut []ErrorResult
	cancels   int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		manifests: make(map[string]string),
		infos:     make(map[string]*InstallInfo),
		assigned:  make(map[string]*PermissionSet),
		bindings:  make(map[string]*AppBinding),
	}
}

func (h *fakeHost) ReadManifest(_ context.Context, url string) ([]byte, error) {
	m, ok := h.manifests[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	return []byte(m), nil
}

func (h *fakeHost) GetInstallInfo(_ context.Context, url string) (*InstallInfo, error) {
	if h.infoErr != nil {
		return nil, h.infoErr
	}
	if info, ok := h.infos[url]; ok {
		return info, nil
	}
	return &InstallInfo{URL: url, InstalledNames: []string{}}, nil
}

func (h *fakeHost) GetAssignedPermissions(_ context.Context, appURL string) (*PermissionSet, error) {
	if h.assignedErr != nil {
		return nil, h.assignedErr
	}
	p, ok := h.assigned[appURL]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (h *fakeHost) GetInstalledBinding(_ context.Context, profile int, name string) (*AppBinding, error) {
	if h.bindingErr != nil {
		return nil, h.bindingErr
	}
	if profile != 0 {
		return nil, nil
	}
	return h.bindings[name], nil
}

func (h *fakeHost) CloseSuccess(_ context.Context, result InstallResult) error {
	if h.successErr != nil {
		return h.successErr
	}
	h.successes = append(h.successes, result)
	return nil
}

func (h *fakeHost) CloseError(_ context.Context, result ErrorResult) error {
	h.errorsOut = append(h.errorsOut, result)
	return nil
}

func (h *fakeHost) CloseCancel(context.Context) error {
	h.cancels++
	return nil
}

var errHostDown = errors.New("host down")
