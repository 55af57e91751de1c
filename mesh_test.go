package globe

import (
	. "gopkg.in/check.v1"
)

type MeshSuite struct{}

var _ = Suite(&MeshSuite{})

func (s *MeshSuite) TestCounts(c *C) {
	for _, seg := range [][2]int{{64, 64}, {8, 4}, {3, 2}} {
		m := NewSphereMesh(1, seg[0], seg[1])
		ws, hs := seg[0], seg[1]
		c.Check(m.Positions, HasLen, (ws+1)*(hs+1), Commentf("segments %v", seg))
		c.Check(m.UVs, HasLen, len(m.Positions))
		c.Check(m.Triangles(), Equals, ws*(2*hs-2), Commentf("segments %v", seg))
	}
}

func (s *MeshSuite) TestMinimumSegments(c *C) {
	m := NewSphereMesh(1, 0, 0)
	c.Assert(m.Positions, HasLen, 4*3)
}

func (s *MeshSuite) TestVerticesOnSphere(c *C) {
	m := NewSphereMesh(2.5, 16, 12)
	for i, p := range m.Positions {
		c.Assert(p.Norm(), ApproxEquals, 2.5, 1e-12, Commentf("vertex %d", i))
	}
	for _, idx := range m.Indices {
		c.Assert(idx >= 0 && idx < len(m.Positions), Equals, true)
	}
}
