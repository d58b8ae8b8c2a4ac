// Package reconcile partitions a list of requested item names against an
// authoritative item set.
//
// The engine is pure: it performs no I/O and never mutates its inputs. Callers
// treat a non-empty Unavailable list as a rejection of the whole write.
package reconcile

import "github.com/rl1809/marketplace/internal/core/domain"

// Result holds the outcome of a reconciliation.
type Result struct {
	// Available holds the ids of authoritative entries whose name was
	// requested, in authoritative order. Each entry appears at most once.
	Available []string `json:"available"`

	// Unavailable holds requested tokens that matched no authoritative
	// name, in request order. Duplicates are kept.
	Unavailable []string `json:"unavailable"`
}

// OK reports whether every requested token was resolved.
func (r Result) OK() bool {
	return len(r.Unavailable) == 0
}

// Reconcile matches requested names against authoritative by exact,
// case-sensitive name equality.
func Reconcile(requested []string, authoritative []domain.ItemRef) Result {
	res := Result{
		Available:   []string{},
		Unavailable: []string{},
	}

	known := make(map[string]struct{}, len(authoritative))
	for _, ref := range authoritative {
		known[ref.Name] = struct{}{}
	}

	wanted := make(map[string]struct{}, len(requested))
	for _, token := range requested {
		if _, ok := known[token]; !ok {
			res.Unavailable = append(res.Unavailable, token)
			continue
		}
		wanted[token] = struct{}{}
	}

	for _, ref := range authoritative {
		if _, ok := wanted[ref.Name]; ok {
			res.Available = append(res.Available, ref.ID)
		}
	}

	return res
}

// Resolve maps each requested token to the id it resolved to. Tokens with
// several authoritative entries of the same name resolve to the first one.
// Unresolved tokens are absent from the map.
func Resolve(requested []string, authoritative []domain.ItemRef) map[string]string {
	byName := make(map[string]string, len(authoritative))
	for _, ref := range authoritative {
		if _, dup := byName[ref.Name]; !dup {
			byName[ref.Name] = ref.ID
		}
	}

	out := make(map[string]string, len(requested))
	for _, token := range requested {
		if id, ok := byName[token]; ok {
			out[token] = id
		}
	}
	return out
}
