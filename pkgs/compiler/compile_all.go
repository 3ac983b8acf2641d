package compiler

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
)

// CompileAll compiles descs concurrently. Parsers are returned in input
// order; all compile errors are joined.
func CompileAll[T any](descs []*descriptor.Command, opts ...CompileOption) ([]*Parser[T], error) {
	parsers := make([]*Parser[T], len(descs))

	p := pool.New().WithErrors().WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for i, desc := range descs {
		p.Go(func() error {
			parser, err := Compile[T](desc, opts...)
			if err != nil {
				return err
			}
			parsers[i] = parser
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return parsers, nil
}
