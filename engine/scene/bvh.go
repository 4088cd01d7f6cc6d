package scene

import (
	"sort"
)

// bvhLeafSize caps the triangle count per leaf. Small leaves deepen the tree;
// the traversal stack in the shaders holds 32 entries, which covers scenes up
// to several million triangles at this leaf size.
const bvhLeafSize = 4

// BuildBvh builds a binary bounding volume hierarchy over the triangle slice
// using median splits along the widest centroid axis. The triangle slice is
// reordered in place so leaves reference contiguous runs; callers must upload
// the reordered slice alongside the nodes.
//
// Parameters:
//   - triangles: the world-space triangles to partition, reordered in place
//
// Returns:
//   - []GPUBvhNode: the node array, root at index 0
func BuildBvh(triangles []Triangle) []GPUBvhNode {
	if len(triangles) == 0 {
		return []GPUBvhNode{{Count: 0}}
	}

	nodes := make([]GPUBvhNode, 0, 2*len(triangles))
	nodes = append(nodes, GPUBvhNode{})
	buildBvhNode(&nodes, 0, triangles, 0)
	return nodes
}

// buildBvhNode fills nodes[index] for the triangle run starting at offset and
// recurses into children for interior nodes.
func buildBvhNode(nodes *[]GPUBvhNode, index int, triangles []Triangle, offset uint32) {
	bmin, bmax := triangleBounds(triangles)
	(*nodes)[index].BoundsMin = bmin
	(*nodes)[index].BoundsMax = bmax

	if len(triangles) <= bvhLeafSize {
		(*nodes)[index].LeftOrFirst = offset
		(*nodes)[index].Count = uint32(len(triangles))
		return
	}

	axis := widestAxis(triangles)
	sort.Slice(triangles, func(i, j int) bool {
		return triangles[i].Centroid()[axis] < triangles[j].Centroid()[axis]
	})
	mid := len(triangles) / 2

	left := len(*nodes)
	*nodes = append(*nodes, GPUBvhNode{}, GPUBvhNode{})
	(*nodes)[index].LeftOrFirst = uint32(left)
	(*nodes)[index].Count = 0

	buildBvhNode(nodes, left, triangles[:mid], offset)
	buildBvhNode(nodes, left+1, triangles[mid:], offset+uint32(mid))
}

func triangleBounds(triangles []Triangle) ([3]float32, [3]float32) {
	bmin := triangles[0].V0
	bmax := triangles[0].V0
	for i := range triangles {
		for _, v := range [3][3]float32{triangles[i].V0, triangles[i].V1, triangles[i].V2} {
			for a := range 3 {
				if v[a] < bmin[a] {
					bmin[a] = v[a]
				}
				if v[a] > bmax[a] {
					bmax[a] = v[a]
				}
			}
		}
	}
	return bmin, bmax
}

func widestAxis(triangles []Triangle) int {
	cmin := triangles[0].Centroid()
	cmax := cmin
	for i := range triangles {
		c := triangles[i].Centroid()
		for a := range 3 {
			if c[a] < cmin[a] {
				cmin[a] = c[a]
			}
			if c[a] > cmax[a] {
				cmax[a] = c[a]
			}
		}
	}
	axis := 0
	widest := cmax[0] - cmin[0]
	for a := 1; a < 3; a++ {
		if extent := cmax[a] - cmin[a]; extent > widest {
			widest = extent
			axis = a
		}
	}
	return axis
}
