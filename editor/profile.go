package editor

import "strings"

// DefaultProfile is part of every active profile.
const DefaultProfile = "default"

// Profile is the set of currently active profile names.
type Profile map[string]struct{}

// NewProfile builds an active profile; DefaultProfile is always included.
func NewProfile(names ...string) Profile {
	p := Profile{DefaultProfile: {}}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			p[name] = struct{}{}
		}
	}
	return p
}

// Has reports whether name is active. DefaultProfile is implied even for a nil Profile.
func (p Profile) Has(name string) bool {
	if name == DefaultProfile {
		return true
	}
	_, ok := p[name]
	return ok
}

// Allows reports whether an editor tagged with tags is active: untagged editors always are,
// tagged ones need at least one tag in common with p.
func (p Profile) Allows(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if p.Has(tag) {
			return true
		}
	}
	return false
}

// Names returns the active names, DefaultProfile included.
func (p Profile) Names() []string {
	out := []string{DefaultProfile}
	for name := range p {
		if name != DefaultProfile {
			out = append(out, name)
		}
	}
	return out
}
