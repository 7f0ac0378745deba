package shared

import (
	"github.com/ipld/go-ipld-prime"
	selectorparse "github.com/ipld/go-ipld-prime/traversal/selector/parse"
)

// AllSelector matches an entire payload DAG. Used when writing the sealed
// payload out as a CAR so every block under the root is included.
func AllSelector() ipld.Node { return selectorparse.CommonSelector_ExploreAllRecursively }
