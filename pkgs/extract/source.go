package extract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// Target is one annotated struct found in source.
type Target struct {
	Package  string
	Dir      string
	File     string
	TypeName string
	Command  *descriptor.Command

	// GoTypes maps each option and parameter field to its type expression.
	GoTypes map[string]string
}

// Source scans the Go files of one package directory for annotated structs.
// Test files and generated files are skipped. Targets come back in file
// order, then declaration order.
func Source(fs afero.Fs, dir string) ([]*Target, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, cerrors.NewInputError(dir, err)
	}

	fset := token.NewFileSet()
	var targets []*Target
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		path := filepath.Join(dir, name)
		src, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, cerrors.NewInputError(path, err)
		}

		found, err := File(fset, path, src)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			t.Dir = dir
		}
		targets = append(targets, found...)
	}
	return targets, nil
}

// File extracts targets from one source file. Generated files yield none.
func File(fset *token.FileSet, path string, src []byte) ([]*Target, error) {
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, cerrors.NewFileParseError(path, err)
	}
	if ast.IsGenerated(f) {
		return nil, nil
	}

	var targets []*Target
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			args, ok := directiveArgs(doc)
			if !ok {
				continue
			}

			t, err := target(f.Name.Name, path, ts.Name.Name, args, st)
			if err != nil {
				return nil, cerrors.NewExtractionError(ts.Name.Name, err.Error()).
					WithContext("file", path).
					WithContext("line", fset.Position(ts.Pos()).Line)
			}
			targets = append(targets, t)
		}
	}
	return targets, nil
}

func directiveArgs(doc *ast.CommentGroup) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		if rest, ok := strings.CutPrefix(c.Text, Directive); ok {
			if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
				continue
			}
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func target(pkg, path, typeName, args string, st *ast.StructType) (*Target, error) {
	info, err := parseDirective(args)
	if err != nil {
		return nil, err
	}

	cmd := &descriptor.Command{
		Name:         info.Name,
		Description:  info.Description,
		Version:      info.Version,
		StandardHelp: info.StandardHelp,
	}
	t := &Target{
		Package:  pkg,
		File:     path,
		TypeName: typeName,
		Command:  cmd,
		GoTypes:  make(map[string]string),
	}

	for _, field := range st.Fields.List {
		if field.Tag == nil {
			continue
		}
		raw, err := strconv.Unquote(field.Tag.Value)
		if err != nil {
			return nil, err
		}
		tag := reflect.StructTag(raw)
		_, isOption := tag.Lookup(TagOption)
		_, isParam := tag.Lookup(TagParam)
		if !isOption && !isParam {
			continue
		}
		if len(field.Names) != 1 {
			return nil, errTagged(field)
		}

		name := field.Names[0].Name
		if !ast.IsExported(name) {
			return nil, errUnexported(name)
		}
		expr := types.ExprString(field.Type)
		m := member{field: name, tag: tag, typ: TypeOf(expr)}
		if err := m.apply(cmd); err != nil {
			return nil, err
		}
		t.GoTypes[name] = expr
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func errTagged(field *ast.Field) error {
	return fmt.Errorf("tagged field declarations must name exactly one field, not %d", len(field.Names))
}
