package correlation

import (
	"errors"

	"github.com/diwise/alarm-correlation/pkg/types"
)

var ErrNoCorrelationData = errors.New("no correlation data")

func RoleOf(a types.Alarm) types.Role {
	if a.IsRoot && !a.HasParent() {
		return types.RoleRoot
	}
	return types.RoleSymptom
}

// BuildTree assembles a flat correlation group into a forest. Alarms whose parent
// is missing from the group become top level roots, as does the first member of
// any cycle that is not reachable from another root. Every distinct alarm in flat
// appears exactly once in the result.
func BuildTree(flat []types.Alarm, focusID string) ([]*types.TreeNode, error) {
	if len(flat) == 0 {
		return nil, ErrNoCorrelationData
	}

	nodes := make(map[string]*types.TreeNode, len(flat))
	order := make([]*types.TreeNode, 0, len(flat))

	for _, a := range flat {
		a = a.Normalize()
		if _, ok := nodes[a.ID]; ok {
			continue
		}

		n := &types.TreeNode{
			Alarm:     a,
			Role:      RoleOf(a),
			IsFocused: a.ID == focusID,
		}
		nodes[a.ID] = n
		order = append(order, n)
	}

	isTopLevel := func(n *types.TreeNode) bool {
		if !n.Alarm.HasParent() || n.Alarm.ParentIs(n.Alarm.ID) {
			return true
		}
		_, inGroup := nodes[*n.Alarm.ParentID]
		return !inGroup
	}

	roots := []*types.TreeNode{}
	children := map[string][]*types.TreeNode{}

	for _, n := range order {
		if isTopLevel(n) {
			roots = append(roots, n)
			continue
		}
		parentID := *n.Alarm.ParentID
		children[parentID] = append(children[parentID], n)
	}

	attached := make(map[string]struct{}, len(order))

	attach := func(root *types.TreeNode) {
		attached[root.Alarm.ID] = struct{}{}
		stack := []*types.TreeNode{root}

		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, c := range children[n.Alarm.ID] {
				if _, ok := attached[c.Alarm.ID]; ok {
					continue
				}
				attached[c.Alarm.ID] = struct{}{}
				n.Children = append(n.Children, c)
				stack = append(stack, c)
			}
		}
	}

	for _, r := range roots {
		attach(r)
	}

	// whatever is left hangs off a cycle inside the group
	for _, n := range order {
		if _, ok := attached[n.Alarm.ID]; ok {
			continue
		}
		roots = append(roots, n)
		attach(n)
	}

	return roots, nil
}

// Walk visits every node of the forest depth first, parents before children.
func Walk(roots []*types.TreeNode, visit func(n *types.TreeNode, depth int)) {
	type item struct {
		node  *types.TreeNode
		depth int
	}

	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], 0})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visit(it.node, it.depth)

		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.Children[i], it.depth + 1})
		}
	}
}
