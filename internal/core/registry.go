package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// registry holds all known platforms, keyed by Platform.Key.
// Registration happens at init time from the platforms package; lookups
// happen on every league page render, so reads take the cheap path.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Platform)
)

// Register adds a platform definition to the registry.
// It panics on an empty or duplicate key or a malformed header spec, since
// registration only runs from init() and a bad definition is a programming
// error that should fail loudly at startup.
func Register(p Platform) {
	if p.Key == "" {
		panic("core: Register called with empty platform key")
	}
	for _, h := range p.Headers {
		if h.Field == "" {
			panic(fmt.Sprintf("core: platform %q has a header with no field name", p.Key))
		}
		if h.Type != FieldTypeText && h.Type != FieldTypeNumber {
			panic(fmt.Sprintf("core: platform %q field %q has invalid type %q", p.Key, h.Field, h.Type))
		}
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Key]; exists {
		panic(fmt.Sprintf("core: platform %q registered twice", p.Key))
	}
	registry[p.Key] = p
}

// GetPlatform looks up a platform by key.
func GetPlatform(key string) (Platform, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	return p, ok
}

// Platforms returns all registered platforms sorted by key.
func Platforms() []Platform {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Platform, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// PlatformKeys returns the sorted keys of all registered platforms.
func PlatformKeys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PlatformCount returns the number of registered platforms.
func PlatformCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// HeaderSpecsFor resolves an ordered platform key list to the concatenated
// header specs of those platforms. Unknown keys are skipped: a league may
// reference a platform this build no longer ships, and an empty result is a
// valid state the callers tolerate.
func HeaderSpecsFor(keys []string) []HeaderSpec {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var specs []HeaderSpec
	for _, k := range keys {
		p, ok := registry[k]
		if !ok {
			continue
		}
		specs = append(specs, p.Headers...)
	}
	return specs
}

// NormalizeValue cleans a raw cell value with the normalizer of the
// platform owning the field. Fields without a normalizer, and fields no
// registered platform owns, get a plain trim.
func NormalizeValue(field, value string) string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, p := range registry {
		for _, h := range p.Headers {
			if h.Field != field {
				continue
			}
			if p.Normalizer != nil {
				return p.Normalizer(field, value)
			}
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(value)
}

// ClearRegistry removes all registered platforms. Test helper.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Platform)
}
