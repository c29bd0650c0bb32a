package ai

import "container/heap"

// Point is a 2D grid coordinate.
type Point struct {
	X, Y int
}

// Grid reports which cells can be stood on. Cells outside the grid must
// report false.
type Grid interface {
	Passable(p Point) bool
}

// GridFunc adapts a function to Grid.
type GridFunc func(p Point) bool

func (f GridFunc) Passable(p Point) bool { return f(p) }

// MaxExpanded caps the number of cells AStar will close before giving up.
const MaxExpanded = 20000

type node struct {
	pt     Point
	g, f   int
	parent *node
}

type openSet []*node

func (o openSet) Len() int            { return len(o) }
func (o openSet) Less(i, j int) bool  { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int)       { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x interface{}) { *o = append(*o, x.(*node)) }
func (o *openSet) Pop() interface{} {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}

func manhattan(a, b Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

var dirs = []Point{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// AStar finds the shortest 4-connected passable path from `from` to `to`.
// Returns the path as a slice of Points (excluding the start, including the end).
// Returns nil if no path exists or the search exceeds MaxExpanded cells.
func AStar(g Grid, from, to Point) []Point {
	if g == nil || !g.Passable(to) {
		return nil
	}
	if from == to {
		return []Point{}
	}

	closed := make(map[Point]bool)
	gScore := map[Point]int{from: 0}
	open := &openSet{{pt: from, f: manhattan(from, to)}}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.pt] {
			continue
		}
		closed[cur.pt] = true
		if len(closed) > MaxExpanded {
			return nil
		}

		if cur.pt == to {
			var path []Point
			for n := cur; n.parent != nil; n = n.parent {
				path = append(path, n.pt)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range dirs {
			np := Point{cur.pt.X + d.X, cur.pt.Y + d.Y}
			if closed[np] || !g.Passable(np) {
				continue
			}
			ng := cur.g + 1
			if prev, ok := gScore[np]; !ok || ng < prev {
				gScore[np] = ng
				heap.Push(open, &node{pt: np, g: ng, f: ng + manhattan(np, to), parent: cur})
			}
		}
	}
	return nil
}

// Simplify drops the points of a path from start where it carries on in
// the same direction, so only the turns and the end remain.
func Simplify(start Point, path []Point) []Point {
	if len(path) < 2 {
		return path
	}
	out := make([]Point, 0, len(path))
	prev := start
	for i := 0; i < len(path)-1; i++ {
		in := Point{path[i].X - prev.X, path[i].Y - prev.Y}
		next := Point{path[i+1].X - path[i].X, path[i+1].Y - path[i].Y}
		if in != next {
			out = append(out, path[i])
		}
		prev = path[i]
	}
	return append(out, path[len(path)-1])
}
