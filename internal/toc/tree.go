package toc

// Flatten returns the Link nodes depth-first in document order.
func Flatten(nodes []Node) []Node {
	out := []Node{}
	var walk func([]Node)
	walk = func(list []Node) {
		for _, n := range list {
			switch n.Kind {
			case KindLink:
				out = append(out, n)
			case KindSection:
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return out
}

// Filter returns a pruned copy keeping only links whose URL is in allow and
// sections that still have at least one descendant.
func Filter(nodes []Node, allow map[string]struct{}) []Node {
	out := []Node{}
	for _, n := range nodes {
		switch n.Kind {
		case KindLink:
			if _, ok := allow[n.URL]; ok {
				out = append(out, n)
			}
		case KindSection:
			children := Filter(n.Children, allow)
			if len(children) == 0 {
				continue
			}
			section := n
			section.Children = children
			out = append(out, section)
		}
	}
	return out
}

// Walk visits every node in document order with its depth.
func Walk(nodes []Node, fn func(n Node, depth int)) {
	var walk func([]Node, int)
	walk = func(list []Node, depth int) {
		for _, n := range list {
			fn(n, depth)
			if n.Kind == KindSection {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}

func Single(title, pageURL string) []Node {
	return []Node{{Title: title, Kind: KindLink, URL: pageURL}}
}

// Count returns the number of links and sections in the tree.
func Count(nodes []Node) (links, sections int) {
	Walk(nodes, func(n Node, _ int) {
		if n.Kind == KindSection {
			sections++
			return
		}
		links++
	})
	return links, sections
}
