package ubltr

import (
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// UBL namespace URIs and the prefixes paths use to refer to them.
const (
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
)

// Namespaces maps path prefixes to namespace URIs.
type Namespaces map[string]string

// UBL is the prefix mapping used by every path in this package.
var UBL = Namespaces{
	"cbc": NsCbc,
	"cac": NsCac,
}

// Path is a compiled, namespace-aware element path such as
// "cac:AccountingSupplierParty/cac:Party". Each prefix is resolved to its
// namespace URI at compile time and the path is matched by etree on URI and
// local name, so documents may bind the UBL namespaces to any prefix. A
// leading ".//" matches the first step at any depth below the starting
// element.
type Path struct {
	expr string
	deep bool
	path etree.Path
}

// Compile parses expr, resolving each prefix through ns.
func Compile(expr string, ns Namespaces) (Path, error) {
	rest := expr
	deep := strings.HasPrefix(rest, ".//")
	var b strings.Builder
	b.WriteString(".")
	if deep {
		b.WriteString("/")
		rest = rest[len(".//"):]
	}
	if rest == "" {
		return Path{}, fmt.Errorf("%w: %q is empty", ErrInvalidPath, expr)
	}

	for _, part := range strings.Split(rest, "/") {
		prefix, local, ok := strings.Cut(part, ":")
		if !ok || prefix == "" || local == "" || strings.ContainsAny(local, "[]'\"*@") {
			return Path{}, fmt.Errorf("%w: %q: step %q is not prefix:Name", ErrInvalidPath, expr, part)
		}
		uri, bound := ns[prefix]
		if !bound {
			return Path{}, fmt.Errorf("%w: %q: prefix %q is not bound", ErrInvalidPath, expr, prefix)
		}
		fmt.Fprintf(&b, "/*[local-name()='%s'][namespace-uri()='%s']", local, uri)
	}

	compiled, err := etree.CompilePath(b.String())
	if err != nil {
		return Path{}, fmt.Errorf("%w: %q: %v", ErrInvalidPath, expr, err)
	}
	return Path{expr: expr, deep: deep, path: compiled}, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level path variables.
func MustCompile(expr string, ns Namespaces) Path {
	p, err := Compile(expr, ns)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p Path) String() string {
	return p.expr
}

// First returns the first element matching p below el in document order,
// or nil. A nil el yields nil.
func (p Path) First(el *etree.Element) *etree.Element {
	if el == nil || p.expr == "" {
		return nil
	}
	if p.deep {
		if all := p.All(el); len(all) > 0 {
			return all[0]
		}
		return nil
	}
	return el.FindElementPath(p.path)
}

// All returns every element matching p below el in document order.
func (p Path) All(el *etree.Element) []*etree.Element {
	if el == nil || p.expr == "" {
		return nil
	}
	matches := el.FindElementsPath(p.path)
	if p.deep {
		// etree collects descendants level by level.
		sortDocumentOrder(matches)
	}
	return matches
}

// sortDocumentOrder orders elements of one tree as they appear in the
// source, comparing their child-index chains from the root.
func sortDocumentOrder(elems []*etree.Element) {
	keys := make(map[*etree.Element][]int, len(elems))
	for _, e := range elems {
		var key []int
		for n := e; n.Parent() != nil; n = n.Parent() {
			key = append(key, n.Index())
		}
		slices.Reverse(key)
		keys[e] = key
	}
	slices.SortStableFunc(elems, func(a, b *etree.Element) int {
		return slices.Compare(keys[a], keys[b])
	})
}
