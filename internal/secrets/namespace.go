// Package secrets holds the process-wide secret namespace: an immutable
// name -> value snapshot built once at startup and only read afterwards.
package secrets

import (
	"os"
	"strings"
)

// Lookuper is the read side of a secret namespace
type Lookuper interface {
	Lookup(name string) (string, bool)
}

// Namespace is an immutable snapshot of named secrets. It is safe for
// concurrent use because nothing mutates it after construction.
type Namespace struct {
	values map[string]string
}

// New copies values into a new Namespace
func New(values map[string]string) *Namespace {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Namespace{values: copied}
}

// FromEnviron builds a Namespace from KEY=VALUE pairs as returned by os.Environ
func FromEnviron(environ []string) *Namespace {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		values[name] = value
	}
	return &Namespace{values: values}
}

// FromProcessEnv snapshots the current process environment
func FromProcessEnv() *Namespace {
	return FromEnviron(os.Environ())
}

// Merge combines namespaces into one. Earlier layers win over later ones.
func Merge(layers ...*Namespace) *Namespace {
	values := make(map[string]string)
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i] == nil {
			continue
		}
		for k, v := range layers[i].values {
			values[k] = v
		}
	}
	return &Namespace{values: values}
}

// Lookup returns the value for name. Empty values count as absent.
func (n *Namespace) Lookup(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	v, ok := n.values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Len returns the number of entries
func (n *Namespace) Len() int {
	if n == nil {
		return 0
	}
	return len(n.values)
}
