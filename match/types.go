package match

import "fmt"

// ImageSource identifies one image. The reference carries Data, candidates
// carry a Locator that still has to be fetched.
type ImageSource struct {
	Locator string
	Data    []byte
}

// Stage is the last pipeline step a candidate reached.
type Stage int

const (
	StagePending Stage = iota
	StageFetching
	StageNormalizing
	StageEmbedding
	StageScored
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageFetching:
		return "fetching"
	case StageNormalizing:
		return "normalizing"
	case StageEmbedding:
		return "embedding"
	case StageScored:
		return "scored"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Outcome is the result for a single candidate. Exactly one of Score or Err
// is meaningful: Err == nil means the candidate was scored.
type Outcome struct {
	Index   int
	Locator string
	Score   float64
	Err     error
	Stage   Stage
}

// OK reports whether the candidate was scored successfully.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Stage == StageScored
}

// Reason is the human readable failure reason, empty on success.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Ranked is a scored candidate in the final ordering.
type Ranked struct {
	Index   int     `json:"-"`
	Locator string  `json:"image_url"`
	Score   float64 `json:"similarity"`
}

// Report is the result of one Compare call.
type Report struct {
	Ranked   []Ranked
	Failures []Outcome
	Model    string
}
