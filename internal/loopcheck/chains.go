package loopcheck

// transChain is a non-repeating sequence of transition nodes such that each
// consecutive pair is an edge of the pruned transition graph.
type transChain []TransitionNode

func (c transChain) contains(n TransitionNode) bool {
	for _, x := range c {
		if x == n {
			return true
		}
	}
	return false
}

func (c transChain) equal(other transChain) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// enumerateChains builds every maximal non-repeating walk of the pruned
// transition graph. Seeded with one two-node chain per edge, it extends each
// chain by every successor not already present, stopping when a full pass
// produces nothing new. Chains are finite because each is non-repeating in a
// graph of bounded cardinality.
func enumerateChains(graph TransitionGraph) []transChain {
	var chains []transChain
	for from, targets := range graph {
		for _, to := range targets {
			chains = append(chains, transChain{from, to})
		}
	}

	for {
		var next []transChain
		changed := false

		for _, c := range chains {
			last := c[len(c)-1]
			targets, ok := graph[last]
			if !ok {
				next = append(next, c)
				continue
			}

			extended := false
			for _, to := range targets {
				if c.contains(to) {
					continue
				}
				candidate := append(append(transChain{}, c...), to)
				if containsChain(chains, candidate) || containsChain(next, candidate) {
					continue
				}
				next = append(next, candidate)
				changed = true
				extended = true
			}
			if !extended {
				next = append(next, c)
			}
		}

		chains = next
		if !changed {
			return chains
		}
	}
}

func containsChain(chains []transChain, target transChain) bool {
	for _, c := range chains {
		if c.equal(target) {
			return true
		}
	}
	return false
}
