// Search nodes. Strong references flow from the open list and the
// closed set; the parent chain is walked at termination to reconstruct
// the plan.
package fstrips

// Node is one search node.
type Node struct {
	State  *State
	Action *GroundAction // nil at the root
	Parent *Node
	G      int
	H      int
	Novelty int

	// Unachieved and Reached are the counts behind the novelty table
	// key: goal conjuncts still false, relevant atoms reached on the
	// path.
	Unachieved int
	Reached    int

	rset      *RelevantSet
	reached   *Bitset
	valuation []int
	key       int

	heapIndex int
	seq       uint64
	stale     bool
}

// NoveltyKey packs the per-type table key: unachieved goals in the
// upper half, reached relevant atoms in the lower 16 bits.
func NoveltyKey(unachieved, reached int) int {
	return unachieved<<16 | (reached & 0xffff)
}

// PlanFrom walks the parent chain and returns the plan's action names
// in execution order.
func PlanFrom(n *Node) []string {
	var rev []string
	for cur := n; cur != nil && cur.Action != nil; cur = cur.Parent {
		rev = append(rev, cur.Action.Name())
	}
	plan := make([]string, len(rev))
	for i, name := range rev {
		plan[len(rev)-1-i] = name
	}
	return plan
}
