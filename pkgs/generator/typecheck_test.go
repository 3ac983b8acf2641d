package generator

import (
	"go/ast"
	"go/build"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cligen/pkgs/extract"
)

// typeCheck type-checks the annotated source together with the parsers
// generated for it. Imports, this module's packages included, are loaded
// from source, so unused variables, unused imports and mismatched field
// types in the generated code all fail the check.
func typeCheck(t *testing.T, targets []*extract.Target) {
	t.Helper()
	if testing.Short() {
		t.Skip("loads every dependency from source")
	}

	// Pure Go std packages keep the check independent of a C toolchain.
	saved := build.Default
	build.Default.CgoEnabled = false
	t.Cleanup(func() { build.Default = saved })

	src, err := GenerateGo("app", targets)
	require.NoError(t, err)

	// Files must sit inside the module so module imports resolve.
	wd, err := os.Getwd()
	require.NoError(t, err)

	fset := token.NewFileSet()
	var files []*ast.File
	for name, code := range map[string][]byte{
		"app.go":      []byte(appSource),
		DefaultOutput: src,
	} {
		f, err := parser.ParseFile(fset, filepath.Join(wd, name), code, parser.ParseComments)
		require.NoError(t, err)
		files = append(files, f)
	}

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err = conf.Check("example.com/app", fset, files, nil)
	require.NoError(t, err, "generated code:\n%s", src)
}

func TestGeneratedCodeTypeChecks(t *testing.T) {
	typeCheck(t, appTargets(t))
}

func TestGeneratedCodeWithoutFieldsTypeChecks(t *testing.T) {
	typeCheck(t, appTargets(t)[1:2])
}
