package classification

import (
	"github.com/belikedeep/feedbacksense/core/domain"
)

// ResolutionState is the classification state an item holds before a
// resolution decision.
type ResolutionState struct {
	Category       domain.Category
	Confidence     float64
	ManualOverride bool
}

// ResolveOptions describes what triggered the resolution.
type ResolveOptions struct {
	// ManualEdit marks userCategory as a deliberate human correction.
	ManualEdit bool

	// Reanalyze is an explicit re-analysis request. It is the only
	// automatic trigger allowed to replace a manual override.
	Reanalyze bool

	// ContentChanged marks an implicit trigger (the feedback text was
	// edited). It never displaces a pending manual override.
	ContentChanged bool
}

// Resolution is the outcome of one policy decision. Changed=false means
// the no-op path was taken and no history event may be appended.
type Resolution struct {
	Category   domain.Category
	Confidence float64
	Override   bool
	Method     domain.ClassificationMethod
	Changed    bool
}

// Resolve applies the category resolution policy. In priority order:
//
//  1. A manual edit with an explicit category wins outright: confidence is
//     pinned to 1.0, the override flag is set, method is manual_override.
//  2. An explicit re-analysis, or a content change on an item without a
//     pending override, adopts the analysis result and clears the override.
//  3. Otherwise nothing changes and no event is appended.
//
// A human correction is therefore never silently overwritten by a later
// automatic re-analysis.
func Resolve(current ResolutionState, aiResult *domain.AnalysisResult, userCategory *domain.Category, opts ResolveOptions) Resolution {
	if opts.ManualEdit && userCategory != nil {
		return Resolution{
			Category:   *userCategory,
			Confidence: 1.0,
			Override:   true,
			Method:     domain.MethodManualOverride,
			Changed:    true,
		}
	}

	triggered := opts.Reanalyze || (opts.ContentChanged && !current.ManualOverride)
	if triggered && aiResult != nil {
		return Resolution{
			Category:   aiResult.Category,
			Confidence: aiResult.Confidence,
			Override:   false,
			Method:     aiResult.Method,
			Changed:    true,
		}
	}

	return Resolution{
		Category:   current.Category,
		Confidence: current.Confidence,
		Override:   current.ManualOverride,
		Changed:    false,
	}
}
