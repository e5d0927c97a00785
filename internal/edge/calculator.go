package edge

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/navgraph/internal/geometry"
)

var up = r3.Vec{Z: 1}

// Calculator computes edges with fixed settings and coefficients. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	settings     Settings
	coefficients Coefficients
}

func NewCalculator(settings Settings, coefficients Coefficients) *Calculator {
	return &Calculator{settings: settings, coefficients: coefficients}
}

// DefaultCalculator uses DefaultSettings and DefaultCoefficients.
func DefaultCalculator() *Calculator {
	return NewCalculator(DefaultSettings(), DefaultCoefficients())
}

func (c *Calculator) Settings() Settings { return c.settings }

// ComputeSequenceEdges returns the Next and Prev edges of node within seq.
func (c *Calculator) ComputeSequenceEdges(node Candidate, seq Sequence) ([]Edge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}
	if node.SequenceKey() != seq.Key() {
		return nil, ErrSequenceMismatch
	}

	var edges []Edge
	if next, ok := seq.FindNextKey(node.Key()); ok {
		edges = append(edges, Edge{From: node.Key(), To: next,
			Data: sequenceEdgeData(Next)})
	}
	if prev, ok := seq.FindPrevKey(node.Key()); ok {
		edges = append(edges, Edge{From: node.Key(), To: prev,
			Data: sequenceEdgeData(Prev)})
	}
	return edges, nil
}

// GetPotentialEdges computes the feature set from node to every candidate
// within MaxDistance. Candidates whose key is in fallbackKeys are kept at any
// distance. The node itself and candidates that are not full are skipped.
// The result is sorted by distance, then key.
func (c *Calculator) GetPotentialEdges(node Candidate, candidates []Candidate, fallbackKeys []string) ([]PotentialEdge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}

	lat0, lon0, alt0 := node.LatLonAlt()
	curDir := geometry.ViewingDirection(node.Rotation())
	curVertical := geometry.AngleToPlane(curDir, up)
	mergeCC, merged := node.MergeCC()
	maxDistance := c.settings.MaxDistance()

	fallback := make(map[string]bool, len(fallbackKeys))
	for _, k := range fallbackKeys {
		fallback[k] = true
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]PotentialEdge, 0, len(candidates))
	for _, p := range candidates {
		key := p.Key()
		if key == node.Key() || !p.Full() || seen[key] {
			continue
		}
		seen[key] = true

		lat, lon, alt := p.LatLonAlt()
		motion := geometry.GeodeticToENU(lat, lon, alt, lat0, lon0, alt0)
		distance := r3.Norm(motion)
		if distance > maxDistance && !fallback[key] {
			continue
		}

		dir := geometry.ViewingDirection(p.Rotation())
		pMergeCC, pMerged := p.MergeCC()

		out = append(out, PotentialEdge{
			Key:                     key,
			SequenceKey:             p.SequenceKey(),
			Distance:                distance,
			MotionChange:            geometry.AngleBetweenVector2(curDir.X, curDir.Y, motion.X, motion.Y),
			VerticalMotion:          geometry.AngleToPlane(motion, up),
			DirectionChange:         geometry.AngleBetweenVector2(curDir.X, curDir.Y, dir.X, dir.Y),
			VerticalDirectionChange: geometry.AngleToPlane(dir, up) - curVertical,
			Rotation:                geometry.RelativeRotationAngle(node.Rotation(), p.Rotation()),
			WorldMotionAzimuth:      geometry.AngleBetweenVector2(1, 0, motion.X, motion.Y),
			SameSequence:            p.SequenceKey() != "" && p.SequenceKey() == node.SequenceKey(),
			SameMergeCC:             merged && pMerged && mergeCC == pMergeCC,
			SameUser:                p.UserKey() != "" && p.UserKey() == node.UserKey(),
			FullPano:                p.FullPano(),
			CapturedAt:              p.CapturedAt(),
		})
	}
	sortCanonical(out)
	return out, nil
}

// ComputeStepEdges selects one step edge per step direction. For forward
// and backward steps, the sequence neighbours prevKey and nextKey are used
// as a fallback when they satisfy the drift criteria but no candidate
// qualifies within StepMaxDistance.
func (c *Calculator) ComputeStepEdges(node Candidate, potentials []PotentialEdge, prevKey, nextKey string) ([]Edge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}
	if node.FullPano() {
		return nil, nil
	}
	s, k := c.settings, c.coefficients
	potentials = canonical(potentials)

	var edges []Edge
	for _, step := range stepDirections {
		var best, fallback *PotentialEdge
		lowest := math.MaxFloat64
		for i := range potentials {
			p := &potentials[i]
			if p.FullPano || math.Abs(p.DirectionChange) > s.StepMaxDirectionChange {
				continue
			}

			motionDiff := geometry.AngleDifference(step.motionChange, p.MotionChange)
			dirMotionDiff := geometry.AngleDifference(p.DirectionChange, motionDiff)
			drift := math.Max(math.Abs(motionDiff), math.Abs(dirMotionDiff))
			if drift > s.StepMaxDrift {
				continue
			}
			if step.useFallback && p.Key != "" && (p.Key == prevKey || p.Key == nextKey) {
				fallback = p
			}
			if p.Distance > s.StepMaxDistance {
				continue
			}

			motionDiff = math.Hypot(motionDiff, p.VerticalMotion)
			score := k.StepPreferredDistance*math.Abs(p.Distance-s.StepPreferredDistance)/s.StepMaxDistance +
				k.StepMotion*motionDiff/s.StepMaxDrift +
				k.StepRotation*p.Rotation/s.StepMaxDirectionChange +
				k.StepSequencePenalty*penalty(p.SameSequence) +
				k.StepMergeCCPenalty*penalty(p.SameMergeCC)
			if score < lowest {
				lowest = score
				best = p
			}
		}
		if best == nil {
			best = fallback
		}
		if best != nil {
			edges = append(edges, toEdge(node, best, step.direction))
		}
	}
	return edges, nil
}

// ComputeTurnEdges selects one edge per turn direction. Very close
// candidates facing partly towards the turn (camera rigs) are preferred over
// regular turn candidates.
func (c *Calculator) ComputeTurnEdges(node Candidate, potentials []PotentialEdge) ([]Edge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}
	if node.FullPano() {
		return nil, nil
	}
	s, k := c.settings, c.coefficients
	potentials = canonical(potentials)

	var edges []Edge
	for _, turn := range turnDirections {
		var best *PotentialEdge
		lowest := math.MaxFloat64
		for i := range potentials {
			p := &potentials[i]
			if p.FullPano || p.Distance > s.TurnMaxDistance {
				continue
			}

			rig := turn.direction != TurnU &&
				p.Distance < s.TurnMaxRigDistance &&
				math.Abs(p.DirectionChange) > s.TurnMinRigDirectionChange

			var score float64
			if rig && p.DirectionChange*turn.directionChange > 0 &&
				math.Abs(p.DirectionChange) < math.Abs(turn.directionChange) {
				score = -math.Pi/2 + math.Abs(p.DirectionChange)
			} else {
				if math.Abs(geometry.AngleDifference(turn.directionChange, p.DirectionChange)) > s.TurnMaxDirectionChange {
					continue
				}
				var motionDiff float64
				if turn.hasMotion {
					motionDiff = geometry.AngleDifference(turn.motionChange, p.MotionChange)
				}
				motionDiff = math.Hypot(motionDiff, p.VerticalMotion)
				score = k.TurnDistance*p.Distance/s.TurnMaxDistance +
					k.TurnMotion*motionDiff/math.Pi +
					k.TurnSequencePenalty*penalty(p.SameSequence) +
					k.TurnMergeCCPenalty*penalty(p.SameMergeCC)
			}
			if score < lowest {
				lowest = score
				best = p
			}
		}
		if best != nil {
			edges = append(edges, toEdge(node, best, turn.direction))
		}
	}
	return edges, nil
}

// ComputePerspectiveToPanoEdges links a regular photo to its best nearby
// panorama.
func (c *Calculator) ComputePerspectiveToPanoEdges(node Candidate, potentials []PotentialEdge) ([]Edge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}
	if node.FullPano() {
		return nil, nil
	}
	s, k := c.settings, c.coefficients
	potentials = canonical(potentials)

	var best *PotentialEdge
	lowest := math.MaxFloat64
	for i := range potentials {
		p := &potentials[i]
		if !p.FullPano {
			continue
		}
		score := k.PanoPreferredDistance*math.Abs(p.Distance-s.PanoPreferredDistance)/s.PanoMaxDistance +
			k.PanoMotion*math.Abs(p.MotionChange)/math.Pi +
			k.PanoMergeCCPenalty*penalty(p.SameMergeCC)
		if score < lowest {
			lowest = score
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	return []Edge{toEdge(node, best, Pano)}, nil
}

type stepCandidate struct {
	direction Direction
	potential *PotentialEdge
}

// ComputePanoEdges links a panorama to up to PanoMaxItems surrounding
// panoramas, spread evenly around it, and fills the remaining angular slots
// with step edges to regular photos.
func (c *Calculator) ComputePanoEdges(node Candidate, potentials []PotentialEdge) ([]Edge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}
	if !node.FullPano() {
		return nil, nil
	}
	s, k := c.settings, c.coefficients
	potentials = canonical(potentials)

	var panos []*PotentialEdge
	var steps []stepCandidate
	for i := range potentials {
		p := &potentials[i]
		if p.Distance > s.PanoMaxDistance {
			continue
		}
		if p.FullPano {
			if p.Distance < s.PanoMinDistance {
				continue
			}
			panos = append(panos, p)
			continue
		}
		turn := geometry.AngleDifference(p.DirectionChange, p.MotionChange)
		for _, pd := range panoDirections {
			if math.Abs(geometry.AngleDifference(pd.directionChange, turn)) > s.PanoMaxStepTurnChange {
				continue
			}
			steps = append(steps, stepCandidate{pd.direction, p})
			break
		}
	}

	items := s.PanoMaxItems
	if items <= 0 {
		return nil, nil
	}
	maxRotationDiff := math.Pi / float64(items)

	var edges []Edge
	var occupied, stepAngles []float64
	for i := 0; i < items; i++ {
		rotation := float64(i) / float64(items) * 2 * math.Pi
		var best *PotentialEdge
		lowest := math.MaxFloat64
		for _, p := range panos {
			motionDiff := geometry.AngleDifference(rotation, p.MotionChange)
			if math.Abs(motionDiff) > maxRotationDiff {
				continue
			}
			if minAngleDifference(occupied, p.MotionChange) <= maxRotationDiff {
				continue
			}
			score := k.PanoPreferredDistance*math.Abs(p.Distance-s.PanoPreferredDistance)/s.PanoMaxDistance +
				k.PanoMotion*math.Abs(motionDiff)/maxRotationDiff +
				k.PanoSequencePenalty*penalty(p.SameSequence) +
				k.PanoMergeCCPenalty*penalty(p.SameMergeCC)
			if score < lowest {
				lowest = score
				best = p
			}
		}
		if best != nil {
			occupied = append(occupied, best.MotionChange)
			edges = append(edges, toEdge(node, best, Pano))
		} else {
			stepAngles = append(stepAngles, rotation)
		}
	}

	occupiedSteps := map[Direction][]float64{Pano: occupied}
	for _, stepAngle := range stepAngles {
		var occupations []stepCandidate
		for _, pd := range panoDirections {
			var all []float64
			all = append(all, occupiedSteps[Pano]...)
			all = append(all, occupiedSteps[pd.direction]...)
			all = append(all, occupiedSteps[pd.prev]...)
			all = append(all, occupiedSteps[pd.next]...)

			var best *stepCandidate
			lowest := math.MaxFloat64
			for j := range steps {
				sc := &steps[j]
				if sc.direction != pd.direction {
					continue
				}
				p := sc.potential
				motionChange := geometry.AngleDifference(stepAngle, p.MotionChange)
				if math.Abs(motionChange) > maxRotationDiff {
					continue
				}
				if minAngleDifference(all, p.MotionChange) <= maxRotationDiff {
					continue
				}
				score := k.PanoPreferredDistance*math.Abs(p.Distance-s.PanoPreferredDistance)/s.PanoMaxDistance +
					k.PanoMotion*math.Abs(motionChange)/maxRotationDiff +
					k.PanoMergeCCPenalty*penalty(p.SameMergeCC)
				if score < lowest {
					lowest = score
					best = sc
				}
			}
			if best != nil {
				occupations = append(occupations, *best)
				edges = append(edges, toEdge(node, best.potential, best.direction))
			}
		}
		for _, o := range occupations {
			occupiedSteps[o.direction] = append(occupiedSteps[o.direction], o.potential.MotionChange)
		}
	}
	return edges, nil
}

// ComputeSimilarEdges links node to the best candidate of every other
// sequence that captured roughly the same view. Candidates from the same user
// captured within SimilarMinTimeDifference are ignored. Edges are ordered by
// sequence key.
func (c *Calculator) ComputeSimilarEdges(node Candidate, potentials []PotentialEdge) ([]Edge, error) {
	if !node.Full() {
		return nil, ErrNodeNotFull
	}
	s, k := c.settings, c.coefficients
	potentials = canonical(potentials)
	nodePano := node.FullPano()

	groups := make(map[string][]*PotentialEdge)
	for i := range potentials {
		p := &potentials[i]
		if p.SequenceKey == "" || p.SameSequence {
			continue
		}
		if nodePano {
			if !p.FullPano {
				continue
			}
		} else if !p.FullPano && math.Abs(p.DirectionChange) > s.SimilarMaxDirectionChange {
			continue
		}
		if p.Distance > s.SimilarMaxDistance {
			continue
		}
		if p.SameUser && absInt64(p.CapturedAt-node.CapturedAt()) < s.SimilarMinTimeDifference {
			continue
		}
		groups[p.SequenceKey] = append(groups[p.SequenceKey], p)
	}

	score := func(p *PotentialEdge) float64 {
		if nodePano {
			return p.Distance
		}
		return k.SimilarDistance*p.Distance + k.SimilarRotation*p.Rotation
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var edges []Edge
	for _, key := range keys {
		var best *PotentialEdge
		lowest := math.MaxFloat64
		for _, p := range groups[key] {
			if sc := score(p); sc < lowest {
				lowest = sc
				best = p
			}
		}
		if best != nil {
			edges = append(edges, toEdge(node, best, Similar))
		}
	}
	return edges, nil
}

func toEdge(node Candidate, p *PotentialEdge, dir Direction) Edge {
	return Edge{
		From: node.Key(),
		To:   p.Key,
		Data: EdgeData{
			Direction:               dir,
			Distance:                p.Distance,
			MotionChange:            p.MotionChange,
			VerticalMotion:          p.VerticalMotion,
			DirectionChange:         p.DirectionChange,
			VerticalDirectionChange: p.VerticalDirectionChange,
			Rotation:                p.Rotation,
			WorldMotionAzimuth:      p.WorldMotionAzimuth,
			SameSequence:            p.SameSequence,
			SameMergeCC:             p.SameMergeCC,
			FullPano:                p.FullPano,
		},
	}
}

func penalty(same bool) float64 {
	if same {
		return 0
	}
	return 1
}

func minAngleDifference(angles []float64, angle float64) float64 {
	closest := math.MaxFloat64
	for _, a := range angles {
		if d := math.Abs(geometry.AngleDifference(a, angle)); d < closest {
			closest = d
		}
	}
	return closest
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sortCanonical(ps []PotentialEdge) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Distance != ps[j].Distance {
			return ps[i].Distance < ps[j].Distance
		}
		return ps[i].Key < ps[j].Key
	})
}

// canonical returns potentials in canonical order without reordering the
// caller's slice.
func canonical(ps []PotentialEdge) []PotentialEdge {
	out := make([]PotentialEdge, len(ps))
	copy(out, ps)
	sortCanonical(out)
	return out
}
