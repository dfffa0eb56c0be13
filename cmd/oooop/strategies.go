package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/oooop/timing/pipeline"
)

// Strategies is the operation and cancel predicate picked on the command
// line.
type Strategies struct {
	Operation pipeline.Operation
	Cancel    pipeline.CancelPredicate
}

// parseStrategies resolves the --op and --cancel names.
func parseStrategies(op, cancel string) (Strategies, error) {
	var s Strategies
	var err error

	if s.Operation, err = parseOperation(op); err != nil {
		return Strategies{}, err
	}
	if s.Cancel, err = parseCancel(cancel); err != nil {
		return Strategies{}, err
	}

	return s, nil
}

// parseOperation accepts increment, identity, add, max, saturate:<limit>
// and affine:<mul>.
func parseOperation(name string) (pipeline.Operation, error) {
	kind, arg, hasArg := strings.Cut(name, ":")

	switch kind {
	case "increment":
		return pipeline.Increment, nil
	case "identity":
		return pipeline.Identity, nil
	case "add":
		return pipeline.AddAux, nil
	case "max":
		return pipeline.MaxAux, nil
	case "saturate", "affine":
		if !hasArg {
			return nil, fmt.Errorf("operation %s needs an argument, e.g. %s:3", kind, kind)
		}
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid argument of %s: %q", kind, arg)
		}
		if kind == "saturate" {
			return pipeline.SaturatingIncrement(v), nil
		}
		return pipeline.Affine(v), nil
	}

	return nil, fmt.Errorf("unknown operation %q", name)
}

// parseCancel accepts never and unchanged.
func parseCancel(name string) (pipeline.CancelPredicate, error) {
	switch name {
	case "never":
		return pipeline.NeverCancel, nil
	case "unchanged":
		return pipeline.CancelUnchanged, nil
	}

	return nil, fmt.Errorf("unknown cancel predicate %q", name)
}
