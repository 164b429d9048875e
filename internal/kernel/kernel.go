// Package kernel maps a kernel source tree and a release string to the
// artifact paths the deploy steps move around.
package kernel

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"kdeploy/internal/runner"
)

// imageRelPaths maps a target architecture to the boot image the build
// produces, relative to the source root.
var imageRelPaths = map[string]string{
	"x86_64":  "arch/x86/boot/bzImage",
	"aarch64": "arch/arm64/boot/Image",
	"riscv64": "arch/riscv/boot/Image",
}

// Artifacts are the build outputs a deploy installs.
type Artifacts struct {
	Image     string
	SystemMap string
	Config    string
}

// Resolve obtains the release string by asking the build system in query
// mode. The query runs de-elevated so it cannot leave root-owned build
// state behind in the tree.
var Resolve = func(srcRoot string) (string, error) {
	res, err := runner.Run(
		runner.Request{Command: fmt.Sprintf("make -s -C %s kernelrelease", srcRoot)},
		runner.Options{DropPrivileges: true, CaptureOutput: true},
	)
	if err != nil {
		return "", fmt.Errorf("failed to query kernel release: %w", err)
	}
	release := strings.TrimSpace(res.Stdout)
	if release == "" {
		return "", fmt.Errorf("build system returned an empty kernel release")
	}
	return release, nil
}

// BuiltArtifacts returns the source-side paths of the image, symbol map
// and configuration for the given architecture.
func BuiltArtifacts(srcRoot, arch string) (*Artifacts, error) {
	rel, ok := imageRelPaths[arch]
	if !ok {
		return nil, fmt.Errorf("unsupported architecture %q", arch)
	}
	return &Artifacts{
		Image:     filepath.Join(srcRoot, rel),
		SystemMap: filepath.Join(srcRoot, "System.map"),
		Config:    filepath.Join(srcRoot, ".config"),
	}, nil
}

// InstalledNames returns the file names the artifacts take in the target's
// boot directory.
func InstalledNames(release string) (image, systemMap, config string) {
	return "vmlinuz-" + release, "System.map-" + release, "config-" + release
}

// ReleaseFromImage extracts the release from an installed image file name.
func ReleaseFromImage(name string) (string, bool) {
	return strings.CutPrefix(name, "vmlinuz-")
}

// PruneCandidates picks the releases to delete: everything except the
// currently running release, the release being installed, and the newest
// keep releases.
func PruneCandidates(installed []string, running, incoming string, keep int) []string {
	var candidates []string
	for _, r := range installed {
		if r == running || r == incoming {
			continue
		}
		candidates = append(candidates, r)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return CompareReleases(candidates[i], candidates[j]) > 0
	})
	if keep >= len(candidates) {
		return nil
	}
	return candidates[keep:]
}

// CompareReleases orders release strings by their numeric fields, so that
// 5.10.2 sorts after 5.9.12. Non-numeric fields fall back to string order.
func CompareReleases(a, b string) int {
	fa := splitRelease(a)
	fb := splitRelease(b)
	for i := 0; i < len(fa) && i < len(fb); i++ {
		na, errA := strconv.Atoi(fa[i])
		nb, errB := strconv.Atoi(fb[i])
		if errA == nil && errB == nil {
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if fa[i] != fb[i] {
			if fa[i] < fb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(fa) < len(fb):
		return -1
	case len(fa) > len(fb):
		return 1
	}
	return 0
}

func splitRelease(r string) []string {
	return strings.FieldsFunc(r, func(c rune) bool {
		return c == '.' || c == '-' || c == '_' || c == '+'
	})
}
