package comments

import (
	"slices"
	"strings"
)

// MaxThreadDepth bounds how far BuildForest descends below a top-level comment.
// Replies nested deeper are reported as truncated.
const MaxThreadDepth = 512

// SortMode is the ordering applied to every sibling group in a thread forest.
type SortMode int

const (
	// SortByRecency keeps the order the comments were fetched in.
	SortByRecency SortMode = iota
	// SortByUpvotes orders by net score, highest first.
	SortByUpvotes
	// SortByDownvotes orders by net score, lowest first.
	SortByDownvotes
)

// ParseSort maps the query-string value to a SortMode.
// Unknown values fall back to SortByRecency so rendering never fails on a bad sort.
func ParseSort(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return SortByUpvotes
	case "controversial":
		return SortByDownvotes
	default:
		return SortByRecency
	}
}

func (m SortMode) String() string {
	switch m {
	case SortByUpvotes:
		return "top"
	case SortByDownvotes:
		return "controversial"
	default:
		return "new"
	}
}

// ThreadNode is one comment and its ordered replies.
type ThreadNode struct {
	Comment *Comment
	Replies []*ThreadNode
	Level   int // 0 for top-level comments
}

// Count returns the number of comments in the subtree rooted at n.
func (n *ThreadNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, r := range n.Replies {
		total += r.Count()
	}
	return total
}

// Forest is the result of one build pass.
//
// Every non-nil input comment ends up in exactly one place:
// inside Threads, in Orphans (its parent is not in the input, or it
// descends from such a comment), or in Truncated (unreachable because of a parent cycle, a duplicate id,
// or nesting beyond MaxThreadDepth).
type Forest struct {
	Threads   []*ThreadNode
	Orphans   []*Comment
	Truncated []*Comment
}

// Count returns the number of comments placed in Threads.
func (f *Forest) Count() int {
	total := 0
	for _, t := range f.Threads {
		total += t.Count()
	}
	return total
}

// BuildThreads arranges a flat comment list into ordered reply threads.
// It is BuildForest without the bookkeeping of dropped comments.
func BuildThreads(list []*Comment, mode SortMode) []*ThreadNode {
	return BuildForest(list, mode).Threads
}

// BuildForest arranges a flat comment list into ordered reply threads.
//
// The input slice is not modified. Orphan replies stay hidden; callers that want
// to surface them can read Forest.Orphans.
func BuildForest(list []*Comment, mode SortMode) *Forest {
	forest := &Forest{Threads: make([]*ThreadNode, 0)}
	if len(list) == 0 {
		return forest
	}

	present := make(map[string]struct{}, len(list))
	for _, c := range list {
		if c != nil {
			present[c.ID] = struct{}{}
		}
	}

	topLevel := make([]*Comment, 0, len(list))
	repliesByParent := make(map[string][]*Comment)
	for _, c := range list {
		if c == nil {
			continue
		}
		if c.IsTopLevel() {
			topLevel = append(topLevel, c)
			continue
		}
		if _, ok := present[*c.ParentID]; !ok {
			forest.Orphans = append(forest.Orphans, c)
			continue
		}
		repliesByParent[*c.ParentID] = append(repliesByParent[*c.ParentID], c)
	}

	b := &builder{
		mode:            mode,
		repliesByParent: repliesByParent,
		visited:         make(map[string]struct{}, len(list)),
		placed:          make(map[*Comment]struct{}, len(list)),
	}
	sortSiblings(topLevel, mode)
	for _, c := range topLevel {
		if node := b.attach(c, 0); node != nil {
			forest.Threads = append(forest.Threads, node)
		}
	}

	// Replies below an orphan are hidden with it.
	orphaned := make(map[*Comment]struct{}, len(forest.Orphans))
	for _, c := range forest.Orphans {
		orphaned[c] = struct{}{}
	}
	pending := append([]*Comment(nil), forest.Orphans...)
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if _, seen := b.visited[c.ID]; seen {
			continue
		}
		b.visited[c.ID] = struct{}{}
		for _, child := range repliesByParent[c.ID] {
			if _, placed := b.placed[child]; placed {
				continue
			}
			if _, done := orphaned[child]; done {
				continue
			}
			orphaned[child] = struct{}{}
			forest.Orphans = append(forest.Orphans, child)
			pending = append(pending, child)
		}
	}
	for _, c := range list {
		if c == nil {
			continue
		}
		if _, ok := b.placed[c]; ok {
			continue
		}
		if _, ok := orphaned[c]; ok {
			continue
		}
		forest.Truncated = append(forest.Truncated, c)
	}

	return forest
}

type builder struct {
	repliesByParent map[string][]*Comment
	visited         map[string]struct{} // ids already expanded
	placed          map[*Comment]struct{}
	mode            SortMode
}

func (b *builder) attach(c *Comment, level int) *ThreadNode {
	if level > MaxThreadDepth {
		return nil
	}
	if _, seen := b.visited[c.ID]; seen {
		return nil
	}
	b.visited[c.ID] = struct{}{}
	b.placed[c] = struct{}{}

	node := &ThreadNode{Comment: c, Level: level}
	children := b.repliesByParent[c.ID]
	if len(children) == 0 {
		return node
	}

	sortSiblings(children, b.mode)
	node.Replies = make([]*ThreadNode, 0, len(children))
	for _, child := range children {
		if childNode := b.attach(child, level+1); childNode != nil {
			node.Replies = append(node.Replies, childNode)
		}
	}
	return node
}

// sortSiblings orders one sibling group in place. The slice must be owned by the caller.
func sortSiblings(group []*Comment, mode SortMode) {
	switch mode {
	case SortByUpvotes:
		slices.SortStableFunc(group, func(a, b *Comment) int {
			return b.NetScore() - a.NetScore()
		})
	case SortByDownvotes:
		slices.SortStableFunc(group, func(a, b *Comment) int {
			return a.NetScore() - b.NetScore()
		})
	}
}

// Walk visits every node depth-first in display order.
func Walk(threads []*ThreadNode, fn func(*ThreadNode)) {
	for _, t := range threads {
		fn(t)
		Walk(t.Replies, fn)
	}
}
