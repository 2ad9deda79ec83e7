package voronoi

import "fmt"

// DegenerateInputError rejects generators the diagram cannot represent:
// coincident sites, zero-length segments, zero-radius arcs. The diagram
// is unchanged when this is returned.
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate input: " + e.Reason
}

// UnsupportedGeneratorPairError reports a generator-kind combination that
// is absent from the classification tables. The diagram is unchanged when
// this is returned.
type UnsupportedGeneratorPairError struct {
	Classes []SiteClass
}

func (e *UnsupportedGeneratorPairError) Error() string {
	return fmt.Sprintf("unsupported generator combination %v", e.Classes)
}

// NumericalPrecisionError reports that a bisector crossing fell within
// tolerance of existing structure, making the split placement ambiguous.
// The diagram is unchanged when this is returned.
type NumericalPrecisionError struct {
	Detail string
}

func (e *NumericalPrecisionError) Error() string {
	return "numerical precision: " + e.Detail
}

// TopologyViolationError reports a failed internal consistency check.
// This indicates a builder defect; the diagram must be treated as
// corrupted once it has been returned from a mutation.
type TopologyViolationError struct {
	Detail string
	Cause  error
}

func (e *TopologyViolationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("topology violation: %s: %v", e.Detail, e.Cause)
	}
	return "topology violation: " + e.Detail
}

func (e *TopologyViolationError) Unwrap() error { return e.Cause }
