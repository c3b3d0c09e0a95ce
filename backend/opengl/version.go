// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/naga/glsl"
)

// glVersion is a parsed GL_VERSION string.
type glVersion struct {
	major, minor int
	es           bool
}

// parseVersion parses GL_VERSION strings such as "4.6.0 NVIDIA 535.54",
// "3.3 (Core Profile) Mesa 23.1" and "OpenGL ES 3.2 v1.r32p1".
func parseVersion(s string) (glVersion, error) {
	var v glVersion
	rest := strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(rest, "OpenGL ES"); ok {
		v.es = true
		// OpenGL ES 1.x reports "OpenGL ES-CM 1.1".
		if i := strings.IndexByte(after, ' '); i >= 0 {
			after = after[i:]
		}
		rest = strings.TrimSpace(after)
	}
	num, _, _ := strings.Cut(rest, " ")
	parts := strings.Split(num, ".")
	if len(parts) < 2 {
		return glVersion{}, fmt.Errorf("opengl: malformed GL_VERSION %q", s)
	}
	var err error
	if v.major, err = strconv.Atoi(parts[0]); err != nil {
		return glVersion{}, fmt.Errorf("opengl: malformed GL_VERSION %q: %w", s, err)
	}
	if v.minor, err = strconv.Atoi(parts[1]); err != nil {
		return glVersion{}, fmt.Errorf("opengl: malformed GL_VERSION %q: %w", s, err)
	}
	return v, nil
}

func (v glVersion) atLeast(major, minor int) bool {
	return v.major > major || (v.major == major && v.minor >= minor)
}

func (v glVersion) String() string {
	if v.es {
		return fmt.Sprintf("OpenGL ES %d.%d", v.major, v.minor)
	}
	return fmt.Sprintf("OpenGL %d.%d", v.major, v.minor)
}

// shadingLanguage returns the GLSL version WGSL shaders are translated to.
// Translation emits explicit binding qualifiers, which need GLSL 4.20 or
// GLSL ES 3.10.
func (v glVersion) shadingLanguage() (glsl.Version, bool) {
	if v.es {
		switch {
		case v.atLeast(3, 2):
			return glsl.VersionES320, true
		case v.atLeast(3, 1):
			return glsl.VersionES310, true
		}
		return glsl.Version{}, false
	}
	switch {
	case v.atLeast(4, 6):
		return glsl.Version460, true
	case v.atLeast(4, 5):
		return glsl.Version450, true
	case v.atLeast(4, 3):
		return glsl.Version430, true
	case v.atLeast(4, 2):
		return glsl.Version420, true
	}
	return glsl.Version{}, false
}
