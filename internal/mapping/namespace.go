// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mapping

// Namespace is a named coordinate space for identifiers.
type Namespace string

// Well-known namespaces used by the toolchain.
const (
	Official     Namespace = "official"
	Intermediary Namespace = "intermediary"
	Named        Namespace = "named"
)

func (n Namespace) String() string { return string(n) }

// resolveAliases follows alias chains until each alias lands on a declared
// namespace. Chains that loop or end on an undeclared name are rejected.
func resolveAliases(declared []Namespace, aliases map[Namespace]Namespace) (map[Namespace]Namespace, error) {
	known := make(map[Namespace]bool, len(declared))
	for _, ns := range declared {
		known[ns] = true
	}

	resolved := make(map[Namespace]Namespace, len(aliases))
	for alias := range aliases {
		if known[alias] {
			return nil, malformed(0, "alias %q shadows a declared namespace", alias)
		}
		seen := map[Namespace]bool{alias: true}
		cur := aliases[alias]
		for !known[cur] {
			next, ok := aliases[cur]
			if !ok {
				return nil, malformed(0, "alias %q resolves to undeclared namespace %q", alias, cur)
			}
			if seen[cur] {
				return nil, malformed(0, "cyclic namespace alias involving %q", alias)
			}
			seen[cur] = true
			cur = next
		}
		resolved[alias] = cur
	}
	return resolved, nil
}
