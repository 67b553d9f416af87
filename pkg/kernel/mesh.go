package kernel

// Mesh is a triangle mesh suitable for rendering or export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // region or primitive this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddVertex appends a vertex with its normal and returns its index.
func (m *Mesh) AddVertex(p, n [3]float64) uint32 {
	m.Vertices = append(m.Vertices, float32(p[0]), float32(p[1]), float32(p[2]))
	m.Normals = append(m.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
	return uint32(m.VertexCount() - 1)
}

// AddTriangle appends a triangle of existing vertex indices.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// Append adds the geometry of o, re-indexing its triangles.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// Bounds returns the axis-aligned bounds of the vertices. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (min, max [3]float64, ok bool) {
	if m.IsEmpty() {
		return min, max, false
	}
	for i := range 3 {
		min[i] = float64(m.Vertices[i])
		max[i] = min[i]
	}
	for v := 0; v < len(m.Vertices); v += 3 {
		for i := range 3 {
			c := float64(m.Vertices[v+i])
			if c < min[i] {
				min[i] = c
			}
			if c > max[i] {
				max[i] = c
			}
		}
	}
	return min, max, true
}
