// Package hierarchy turns the flat pod list returned upstream into the
// parent/child forest the console displays, and answers ancestry questions
// about it. Stored nesting levels and deletion flags are never trusted for
// structure: both are re-derived from the parentPodId chain.
package hierarchy

import (
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
)

type Node struct {
	Pod          *models.Pod
	Children     []*Node
	DisplayLevel int
}

// Row is one line of the flattened tree table.
type Row struct {
	Pod          *models.Pod
	DisplayLevel int
	HasChildren  bool
}

// Index maps pod id to pod.
type Index map[string]*models.Pod

func NewIndex(pods []models.Pod) Index {
	idx := make(Index, len(pods))
	for i := range pods {
		idx[pods[i].ID] = &pods[i]
	}
	return idx
}

// Build arranges pods into a forest. Children keep input order. A pod whose
// parent is not in the input becomes a root so filtered views still show it.
// Pods that no root can reach sit on a parent cycle and are reported as an
// IntegrityError.
func Build(pods []models.Pod) ([]*Node, error) {
	nodes := make(map[string]*Node, len(pods))
	order := make([]*Node, 0, len(pods))
	for i := range pods {
		id := pods[i].ID
		if _, dup := nodes[id]; dup {
			return nil, apperr.Integrity("pod %s appears more than once", id)
		}
		n := &Node{Pod: &pods[i]}
		nodes[id] = n
		order = append(order, n)
	}

	var roots []*Node
	for _, n := range order {
		parentID := n.Pod.ParentID()
		parent, ok := nodes[parentID]
		if parentID == "" || !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	reached := 0
	visited := make(map[string]bool, len(order))
	stack := make([]*Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		roots[i].DisplayLevel = 0
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n.Pod.ID] {
			return nil, apperr.Integrity("pod %s is its own ancestor", n.Pod.ID)
		}
		visited[n.Pod.ID] = true
		reached++
		for i := len(n.Children) - 1; i >= 0; i-- {
			child := n.Children[i]
			child.DisplayLevel = n.DisplayLevel + 1
			stack = append(stack, child)
		}
	}

	if reached != len(order) {
		for _, n := range order {
			if !visited[n.Pod.ID] {
				return nil, apperr.Integrity("pod %s is part of a parent cycle", n.Pod.ID)
			}
		}
	}

	return roots, nil
}

// Flatten emits the forest in pre-order. Each node is emitted once; seeing a
// node twice means the forest is not a forest and traversal stops.
func Flatten(forest []*Node) ([]Row, error) {
	var rows []Row
	visited := make(map[string]bool)

	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := top.node.Pod.ID
		if visited[id] {
			return nil, apperr.Integrity("pod %s reached twice while flattening", id)
		}
		visited[id] = true

		rows = append(rows, Row{
			Pod:          top.node.Pod,
			DisplayLevel: top.depth,
			HasChildren:  len(top.node.Children) > 0,
		})

		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.node.Children[i], top.depth + 1})
		}
	}

	return rows, nil
}

// Tree builds and flattens in one step.
func Tree(pods []models.Pod) ([]Row, error) {
	forest, err := Build(pods)
	if err != nil {
		return nil, err
	}
	return Flatten(forest)
}

// DetectCycles walks every pod's parent chain and reports the first cycle.
// Chains that leave the list end quietly.
func DetectCycles(pods []models.Pod) error {
	idx := NewIndex(pods)
	for i := range pods {
		if _, err := idx.Ancestors(pods[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// Ancestors returns the parent chain of id, nearest first. The chain stops at
// the first parent missing from the index.
func (idx Index) Ancestors(id string) ([]*models.Pod, error) {
	pod, ok := idx[id]
	if !ok {
		return nil, apperr.NotFound("pod", id)
	}

	var chain []*models.Pod
	seen := map[string]bool{id: true}
	for parentID := pod.ParentID(); parentID != ""; {
		if seen[parentID] {
			return nil, apperr.Integrity("pod %s is its own ancestor", parentID)
		}
		seen[parentID] = true

		parent, ok := idx[parentID]
		if !ok {
			break
		}
		chain = append(chain, parent)
		parentID = parent.ParentID()
	}
	return chain, nil
}

// NestingLevel is the number of known ancestors of id.
func (idx Index) NestingLevel(id string) (int, error) {
	chain, err := idx.Ancestors(id)
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// EffectivelyVisible reports whether id and every ancestor are active. A
// child of a deleted pod keeps its own flag but is hidden from active views.
func (idx Index) EffectivelyVisible(id string) (bool, error) {
	pod, ok := idx[id]
	if !ok {
		return false, apperr.NotFound("pod", id)
	}
	if pod.IsDeleted {
		return false, nil
	}
	chain, err := idx.Ancestors(id)
	if err != nil {
		return false, err
	}
	for _, p := range chain {
		if p.IsDeleted {
			return false, nil
		}
	}
	return true, nil
}

// ParentDeleted reports whether the direct parent of id is known and deleted.
func (idx Index) ParentDeleted(id string) bool {
	pod, ok := idx[id]
	if !ok {
		return false
	}
	parent, ok := idx[pod.ParentID()]
	return ok && parent.IsDeleted
}

// ParentName is the display name of id's parent, or "" for roots and
// orphans.
func (idx Index) ParentName(id string) string {
	pod, ok := idx[id]
	if !ok {
		return ""
	}
	if parent, ok := idx[pod.ParentID()]; ok {
		return parent.Name
	}
	return pod.ParentName
}

// InScope reports whether id is scopeRootID or one of its descendants. An
// empty scope means unrestricted.
func (idx Index) InScope(scopeRootID, id string) (bool, error) {
	if scopeRootID == "" || scopeRootID == id {
		return true, nil
	}
	chain, err := idx.Ancestors(id)
	if err != nil {
		return false, err
	}
	for _, p := range chain {
		if p.ID == scopeRootID {
			return true, nil
		}
	}
	return false, nil
}

// Children returns the direct children of id in input order, deleted or not.
func Children(pods []models.Pod, id string) []models.Pod {
	var out []models.Pod
	for _, p := range pods {
		if p.ParentID() == id {
			out = append(out, p)
		}
	}
	return out
}

// Scope keeps the pods inside scopeRootID's subtree.
func Scope(pods []models.Pod, scopeRootID string) ([]models.Pod, error) {
	if scopeRootID == "" {
		return pods, nil
	}
	idx := NewIndex(pods)
	out := make([]models.Pod, 0, len(pods))
	for _, p := range pods {
		ok, err := idx.InScope(scopeRootID, p.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Filter keeps pods whose name or associated email contains query, case
// insensitively. Filter before Build so orphaned matches surface as roots.
func Filter(pods []models.Pod, query string) []models.Pod {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return pods
	}
	out := make([]models.Pod, 0, len(pods))
	for _, p := range pods {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.AssociatedEmail), q) {
			out = append(out, p)
		}
	}
	return out
}

// Deleted and Active split a listing by the pod's own flag.
func Deleted(pods []models.Pod) []models.Pod {
	out := make([]models.Pod, 0)
	for _, p := range pods {
		if p.IsDeleted {
			out = append(out, p)
		}
	}
	return out
}

func Active(pods []models.Pod) []models.Pod {
	out := make([]models.Pod, 0, len(pods))
	for _, p := range pods {
		if !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out
}

// Recompute overwrites each pod's NestingLevel with the depth derived from
// its parent chain.
func Recompute(pods []models.Pod) error {
	idx := NewIndex(pods)
	for i := range pods {
		level, err := idx.NestingLevel(pods[i].ID)
		if err != nil {
			return err
		}
		pods[i].NestingLevel = level
	}
	return nil
}

type Neighbourhood struct {
	Parent   *models.Pod
	Pod      *models.Pod
	Children []models.Pod
}

// NeighbourhoodOf returns id with its parent and direct children.
func NeighbourhoodOf(pods []models.Pod, id string) (*Neighbourhood, error) {
	idx := NewIndex(pods)
	pod, ok := idx[id]
	if !ok {
		return nil, apperr.NotFound("pod", id)
	}
	return &Neighbourhood{
		Parent:   idx[pod.ParentID()],
		Pod:      pod,
		Children: Children(pods, id),
	}, nil
}
