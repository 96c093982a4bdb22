package loopcheck

// prune removes nodes that cannot participate in any causal chain: a node
// is dead once its outgoing list is empty AND no surviving node's edge
// targets it. A referenced sink is kept — with a nil target list — as the
// terminus of whatever chain causes it; only a node nobody points to and
// that points nowhere itself is true dead weight.
//
// This iterates to a true fixed point — repeatedly dropping dead keys,
// recomputing which nodes are still referenced, and dropping dangling
// references to removed keys — rather than the single two-phase pass a
// naive reverse-reachability prune might take, which can stop one
// iteration early depending on map iteration order. Every surviving node
// is guaranteed to be either a source of some edge or the target of one.
func prune(graph TransitionGraph) {
	for {
		changed := false

		referenced := referencedNodes(graph)
		for node, targets := range graph {
			if len(targets) == 0 && !referenced[node] {
				delete(graph, node)
				changed = true
			}
		}

		for node, targets := range graph {
			filtered := targets[:0]
			for _, t := range targets {
				if _, ok := graph[t]; ok {
					filtered = append(filtered, t)
				} else {
					changed = true
				}
			}
			graph[node] = filtered
		}

		if !changed {
			return
		}
	}
}
