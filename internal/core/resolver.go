package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/barysiuk/hatch/internal/logging"
)

// Resolve builds the TargetAppInfo snapshot for url.
//
// An absent or unreadable manifest degrades to an empty one. Failing to read
// install info or previously assigned permissions is returned as a setup
// error; a missing permission record just means nothing was granted.
func Resolve(ctx context.Context, host Host, url string) (TargetAppInfo, error) {
	manifest := Object{}
	data, err := host.ReadManifest(ctx, url)
	if err != nil {
		logging.Debug("Manifest unavailable, using empty manifest",
			zap.String("address", url), zap.Error(err))
	} else if manifest, err = ParseManifest(data); err != nil {
		logging.Debug("Manifest unparsable, using empty manifest",
			zap.String("address", url), zap.Error(err))
		manifest = Object{}
	}

	reported, err := host.GetInstallInfo(ctx, url)
	if err != nil {
		return TargetAppInfo{}, fmt.Errorf("reading install info for %s: %w", url, err)
	}
	info := InstallInfo{URL: url}
	if reported != nil {
		info = *reported
	}
	info.InstalledNames = append([]string{}, info.InstalledNames...)

	target := TargetAppInfo{
		URL:                 url,
		Info:                info,
		IsInstalled:         len(info.InstalledNames) > 0,
		AssignedPermissions: NewPermissionSet(),
	}

	if target.IsInstalled {
		appURL := AppURL(info.InstalledNames[0])
		assigned, err := host.GetAssignedPermissions(ctx, appURL)
		switch {
		case IsNotFound(err):
		case err != nil:
			return TargetAppInfo{}, fmt.Errorf("reading permissions for %s: %w", appURL, err)
		case assigned != nil:
			target.AssignedPermissions = assigned.Clone()
		}
	}

	target.Title = AsDisplayString(manifest.Get("title"))
	target.Description = AsDisplayString(manifest.Get("description"))
	target.Author = AsAuthorName(manifest.Get("author"))
	if app, ok := manifest.Get("app").(Object); ok {
		target.Name = AsSlug(app.Get("name"))
		target.RequestedPermissions = AsPermissionMap(app.Get("permissions"))
	}

	return target, nil
}

// CurrentApp describes whatever is bound to name, so the user can be warned
// before replacing it. It returns nil when the name is free or already bound
// to target itself.
func CurrentApp(ctx context.Context, host Host, target TargetAppInfo, name string) (*AppSummary, error) {
	if name == "" {
		return nil, nil
	}
	binding, err := host.GetInstalledBinding(ctx, 0, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up %s: %w", AppURL(name), err)
	}
	if binding == nil || binding.URL == "" || binding.URL == target.URL {
		return nil, nil
	}

	summary := &AppSummary{URL: binding.URL}
	if strings.HasPrefix(binding.URL, "dat://") {
		info, err := host.GetInstallInfo(ctx, binding.URL)
		if err != nil {
			logging.Debug("Could not describe replaced app",
				zap.String("address", binding.URL), zap.Error(err))
			return summary, nil
		}
		if info != nil {
			summary.Title = info.Title
		}
	}
	return summary, nil
}
