package core

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// AddressType indicates how an application archive is reached.
type AddressType string

const (
	AddressDat   AddressType = "dat"   // dat://<key>, resolved into the local archives dir
	AddressHTTP  AddressType = "http"  // http(s)://host/path
	AddressLocal AddressType = "local" // directory on disk
	AddressApp   AddressType = "app"   // app://<name>, an install binding
)

// datKeyPattern matches a hex-encoded 32-byte archive key.
var datKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Address is a parsed application address.
type Address struct {
	Type AddressType
	Key  string // Archive key (dat) or install name (app)
	Host string // Hostname (http)
	Path string // Absolute directory (local) or URL path (http)
	URL  string // Canonical form used for comparisons and storage
}

// ParseAddress parses an application address.
//
// Supported formats:
//   - "dat://<64 hex chars>[/]"   → archive key
//   - "app://<name>"              → install binding
//   - "https://host/path"         → remote archive served over http(s)
//   - "./dir", "/abs/dir", "~/dir", "file:///abs/dir" → local directory
func ParseAddress(input string) (*Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	switch {
	case strings.HasPrefix(input, "dat://"):
		key := strings.TrimSuffix(strings.TrimPrefix(input, "dat://"), "/")
		if !datKeyPattern.MatchString(key) {
			return nil, fmt.Errorf("%w: %q is not a 64-character hex archive key", ErrInvalidAddress, key)
		}
		key = strings.ToLower(key)
		return &Address{Type: AddressDat, Key: key, URL: "dat://" + key}, nil

	case strings.HasPrefix(input, "app://"):
		name := strings.TrimSuffix(strings.TrimPrefix(input, "app://"), "/")
		if name == "" || Slugify(name) != name {
			return nil, fmt.Errorf("%w: %q is not a valid install name", ErrInvalidAddress, name)
		}
		return &Address{Type: AddressApp, Key: name, URL: AppURL(name)}, nil

	case strings.HasPrefix(input, "https://"), strings.HasPrefix(input, "http://"):
		u, err := url.Parse(input)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, input)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawQuery = ""
		u.Fragment = ""
		return &Address{Type: AddressHTTP, Host: u.Host, Path: u.Path, URL: u.String()}, nil

	case strings.HasPrefix(input, "file://"):
		return parseLocalAddress(strings.TrimPrefix(input, "file://"))
	}

	if isLocalPath(input) {
		return parseLocalAddress(input)
	}

	return nil, fmt.Errorf("%w: unsupported address %q", ErrInvalidAddress, input)
}

// AppURL returns the app:// address of an install name.
func AppURL(name string) string {
	return "app://" + name
}

func isLocalPath(input string) bool {
	return strings.HasPrefix(input, "./") ||
		strings.HasPrefix(input, "../") ||
		strings.HasPrefix(input, "/") ||
		strings.HasPrefix(input, "~/") ||
		input == "." || input == ".."
}

func parseLocalAddress(input string) (*Address, error) {
	path := input
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving path %q: %v", ErrInvalidAddress, input, err)
	}
	return &Address{
		Type: AddressLocal,
		Path: abs,
		URL:  "file://" + filepath.ToSlash(abs),
	}, nil
}
