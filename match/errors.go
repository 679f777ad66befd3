package match

import (
	"errors"

	"github.com/7blacky7/imagematch/embedding"
)

// Request-level errors abort the whole comparison. Candidate-level errors
// (ErrCandidateFetch, ErrCandidateDecode, ErrOracle, ErrInternal) are recorded
// in the candidate's Outcome and never returned from Compare.
var (
	ErrRequestMalformed = errors.New("image_urls must be a JSON list string")
	ErrReferenceDecode  = errors.New("uploaded image invalid")
	ErrCandidateFetch   = errors.New("candidate fetch failed")
	ErrCandidateDecode  = errors.New("candidate decode failed")
	ErrOracle           = embedding.ErrOracle
	ErrInternal         = errors.New("internal error")
)
