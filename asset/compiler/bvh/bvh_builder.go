package bvh

import (
	"math"
	"sort"
	"time"

	"github.com/achilleasa/bindless/asset/scene"
	"github.com/achilleasa/bindless/log"
	"github.com/achilleasa/bindless/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The BVH builder will not attempt to calculate split candidates
	// if the centroid bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-6

	// The number of evenly spaced split planes evaluated per axis.
	splitCandidates = 32
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{}
)

// The BoundedVolume interface is implemented by all primitives that can
// be partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() types.AABB
	Center() types.Vec3
}

// A callback that is called whenever the BVH builder creates a new leaf. It
// receives the slot of the leaf in the flattened node list and the items
// that the leaf owns. Leaves are emitted in depth-first order so the
// callback can lay out the leaf items as contiguous runs.
type LeafCallback func(leafIndex uint32, itemList []BoundedVolume)

// A split scoring strategy.
type ScoreStrategy interface {
	// Calculate a score for splitting workList at splitPoint along a particular Axis.
	ScoreSplit(workList []BoundedVolume, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32)

	// Calculate a score for all items in workList.
	ScorePartition(workList []BoundedVolume) (score float32)
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

// Returns true if s is a better split than other. Ties are broken by axis
// and split point so that builds are reproducible regardless of the order
// in which the parallel scoring goroutines report back.
func (s *splitScore) betterThan(other *splitScore) bool {
	if s.score != other.score {
		return s.score < other.score
	}
	if s.axis != other.axis {
		return s.axis < other.axis
	}
	return s.splitPoint < other.splitPoint
}

// Stats collected while building a BVH.
type Stats struct {
	PartitionedItems int
	TotalItems       int
	Nodes            int
	Leafs            int
	MedianSplits     int
	MaxDepth         int
}

type builder struct {
	logger log.Logger

	// Bvh nodes stored as a contiguous depth-first list
	nodes []scene.Node

	// A callback invoked to set up BVH leafs depending on the type of
	// partitioned bounding volume
	leafCb LeafCallback

	// Work lists with at most this many items become leafs.
	minLeafItems int

	// The split scoring strategy to use.
	scoreStrategy ScoreStrategy

	stats Stats
}

// Construct a flattened BVH from a set of bounded volumes.
//
// The builder uses SAH for scoring splits:
// score = num_polygons * node bbox face area.
//
// The minLeafItems param specifies the maximum number of items that can
// form a leaf. The BVH builder will automatically generate leafs if the
// incoming work length is <= minLeafItems. Larger work lists are always
// split; if no SAH candidate improves the node score the builder falls back
// to a median split along the longest centroid axis.
//
// The returned node list is ready for stackless traversal (see scene.Node).
func Build(workList []BoundedVolume, minLeafItems int, leafCb LeafCallback, scoreStrategy ScoreStrategy) ([]scene.Node, Stats) {
	if minLeafItems < 1 {
		minLeafItems = 1
	}

	b := &builder{
		logger:        log.New("bvh builder"),
		nodes:         make([]scene.Node, 0),
		leafCb:        leafCb,
		minLeafItems:  minLeafItems,
		scoreStrategy: scoreStrategy,
		stats: Stats{
			TotalItems: len(workList),
		},
	}

	if len(workList) == 0 {
		return b.nodes, b.stats
	}

	start := time.Now()
	b.partition(workList, 0)
	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, median splits: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leafs, b.stats.MedianSplits,
	)
	return b.nodes, b.stats
}

// Partition worklist and return node index.
func (b *builder) partition(workList []BoundedVolume, depth int) uint32 {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	// Calculate bounding box for node and for the item centers
	bbox := types.EmptyAABB()
	centerBBox := types.EmptyAABB()
	for _, item := range workList {
		bbox = bbox.Union(item.BBox())
		centerBBox = centerBBox.Grow(item.Center())
	}

	node := scene.Node{}
	node.SetBBox(bbox)

	// Do we have enough items for partitioning? If not create a leaf
	if len(workList) <= b.minLeafItems {
		return b.createLeaf(&node, workList)
	}

	leftWorkList, rightWorkList := b.split(workList, centerBBox)

	// Add node to list. Nodes are emitted before their children so the
	// left child always occupies the next slot.
	nodeIndex := uint32(len(b.nodes))
	node.EntryIndex = nodeIndex + 1
	node.FaceIndex = scene.InvalidIndex
	b.nodes = append(b.nodes, node)
	b.stats.Nodes++

	b.partition(leftWorkList, depth+1)
	b.partition(rightWorkList, depth+1)

	// The first node after this subtree is where traversal resumes on a miss.
	b.nodes[nodeIndex].ExitIndex = uint32(len(b.nodes))

	return nodeIndex
}

// Split work list into two non-empty sets.
func (b *builder) split(workList []BoundedVolume, centerBBox types.AABB) (left, right []BoundedVolume) {
	bestSplit := b.findBestSplit(workList, centerBBox)
	if bestSplit == nil {
		b.stats.MedianSplits++
		return medianSplit(workList, centerBBox)
	}

	left = make([]BoundedVolume, 0, bestSplit.leftCount)
	right = make([]BoundedVolume, 0, bestSplit.rightCount)
	for _, item := range workList {
		if item.Center()[bestSplit.axis] < bestSplit.splitPoint {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}
	return left, right
}

// Score candidate split planes along each axis and return the split with the
// best score or nil if no split improves the score of the unsplit work list.
func (b *builder) findBestSplit(workList []BoundedVolume, centerBBox types.AABB) *splitScore {
	scoreChan := make(chan splitScore)
	pendingScores := 0

	// Run axis split tests in parallel
	side := centerBBox.Size()
	for axis := XAxis; axis <= ZAxis; axis++ {
		// Skip axis if all centers project to (almost) the same point
		if side[axis] < minSideLength {
			continue
		}

		splitStep := side[axis] / splitCandidates
		for step := 1; step < splitCandidates; step++ {
			pendingScores++
			go func(axis Axis, splitPoint float32) {
				lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
				scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,

					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, centerBBox.Min[axis]+float32(step)*splitStep)
		}
	}

	// Process all scores and pick the best split
	var bestScore = b.scoreStrategy.ScorePartition(workList)
	var bestSplit *splitScore
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-scoreChan
		if candidate.leftCount == 0 || candidate.rightCount == 0 || candidate.score >= bestScore {
			continue
		}
		if bestSplit == nil || candidate.betterThan(bestSplit) {
			c := candidate
			bestSplit = &c
		}
	}

	return bestSplit
}

// Split the work list in two halves after sorting its items by their center
// along the longest axis of the centroid bbox. The sort is stable so items
// with equal centers keep their input order.
func medianSplit(workList []BoundedVolume, centerBBox types.AABB) (left, right []BoundedVolume) {
	side := centerBBox.Size()
	axis := XAxis
	if side[YAxis] > side[axis] {
		axis = YAxis
	}
	if side[ZAxis] > side[axis] {
		axis = ZAxis
	}

	sorted := make([]BoundedVolume, len(workList))
	copy(sorted, workList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Center()[axis] < sorted[j].Center()[axis]
	})

	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

// Setup the given node item as a leaf node containing all items in the work list.
// Returns the index to the node in the bvh node array.
func (b *builder) createLeaf(node *scene.Node, workList []BoundedVolume) uint32 {
	nodeIndex := uint32(len(b.nodes))

	node.EntryIndex = scene.InvalidIndex
	node.ExitIndex = nodeIndex + 1
	node.FaceIndex = uint32(b.stats.PartitionedItems)
	b.nodes = append(b.nodes, *node)

	if b.leafCb != nil {
		b.leafCb(nodeIndex, workList)
	}

	// update stats
	b.stats.Leafs++
	b.stats.PartitionedItems += len(workList)

	return nodeIndex
}

// A score implementation that uses surface area heuristic for calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a BVH split based on the surface area heuristic. The SAH calculates
// the split score using the formula (lower score is better):
//
// left count * left BBOX area + rightCount * right BBOX area.
//
// SAH avoids splits that generate empty partitions by assigning the worst
// possible score (MaxFloat32) when it enounters such cases.
func (h surfaceAreaHeuristic) ScoreSplit(workList []BoundedVolume, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	lbox := types.EmptyAABB()
	rbox := types.EmptyAABB()

	for _, item := range workList {
		if item.Center()[axis] < splitPoint {
			leftCount++
			lbox = lbox.Union(item.BBox())
		} else {
			rightCount++
			rbox = rbox.Union(item.BBox())
		}
	}

	// Make sure that we don't generate empty partitions
	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	score = float32(leftCount)*lbox.HalfArea() + float32(rightCount)*rbox.HalfArea()
	return leftCount, rightCount, score
}

// Calculate score for a partitioned workList using formula:
// count * BBOX area
//
// If the workList is empty, then this method returns the worst possible
// score (MaxFloat32).
func (h surfaceAreaHeuristic) ScorePartition(workList []BoundedVolume) (score float32) {
	if len(workList) == 0 {
		return math.MaxFloat32
	}

	bbox := types.EmptyAABB()
	for _, item := range workList {
		bbox = bbox.Union(item.BBox())
	}

	return float32(len(workList)) * bbox.HalfArea()
}
