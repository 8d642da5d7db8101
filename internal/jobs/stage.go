package jobs

// Pipeline stage labels derived from numeric progress. Display only; the
// engine's status field is authoritative.
const (
	StageExtraction = "frame extraction"
	StageDetection  = "object detection"
	StageIdentity   = "identity resolution"
	StageFinalizing = "finalizing"
)

// stageBoundaries maps the inclusive lower edge of each progress band to
// its label. Bands partition [0,100] without gaps or overlaps.
var stageBoundaries = []struct {
	from  int
	label string
}{
	{85, StageFinalizing},
	{55, StageIdentity},
	{25, StageDetection},
	{0, StageExtraction},
}

// StageFor maps a progress value to its pipeline stage label. Total over
// [0,100]; out-of-range inputs are clamped.
func StageFor(progress int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	for _, b := range stageBoundaries {
		if progress >= b.from {
			return b.label
		}
	}
	return StageExtraction
}

// stageIndex returns the ordinal position of a stage label, for monotonicity
// checks in tests.
func stageIndex(label string) int {
	switch label {
	case StageExtraction:
		return 0
	case StageDetection:
		return 1
	case StageIdentity:
		return 2
	case StageFinalizing:
		return 3
	}
	return -1
}
