// Command sqllint fails when an inline query constant (named Q...) lacks its
// leading --sql <uuid> audit marker or reuses another query's marker. SQLRunner
// logs statements by marker, so each one must be unique.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlMarkerPattern  = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	queryNamePattern  = regexp.MustCompile(`^Q[A-Z]`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	violations, err := lint(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker problems")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "  %s:%d %s (%s)\n", v.file, v.line, v.message, v.name)
		}
		os.Exit(1)
	}
}

// lint checks every Go file under targets and reports markers that are
// missing, malformed, or shared by more than one query.
func lint(targets []string) ([]violation, error) {
	var (
		violations []violation
		markers    []marker
	)
	visit := func(path string) error {
		vs, ms, err := lintFile(path)
		if err != nil {
			return err
		}
		violations = append(violations, vs...)
		markers = append(markers, ms...)
		return nil
	}
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".go" {
				if err := visit(target); err != nil {
					return nil, err
				}
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			return visit(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return append(violations, duplicateMarkers(markers)...), nil
}

type marker struct {
	id   string
	name string
	file string
	line int
}

func duplicateMarkers(markers []marker) []violation {
	first := make(map[string]marker, len(markers))
	var out []violation
	for _, m := range markers {
		prev, seen := first[m.id]
		if !seen {
			first[m.id] = m
			continue
		}
		out = append(out, violation{
			file:    m.file,
			line:    m.line,
			name:    m.name,
			message: fmt.Sprintf("marker %s already used by %s", m.id, prev.name),
		})
	}
	return out
}

func lintFile(path string) ([]violation, []marker, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	var (
		violations []violation
		markers    []marker
	)
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			if i >= len(vs.Names) || !queryNamePattern.MatchString(vs.Names[i].Name) {
				continue
			}
			bl := leadingLiteral(value)
			if bl == nil {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil {
				continue
			}
			if !sqlMarkerPattern.MatchString(raw) {
				continue
			}
			pos := fset.Position(bl.Pos())
			head := firstLine(raw)
			if !uuidMarkerPattern.MatchString(head) {
				violations = append(violations, violation{
					file:    path,
					line:    pos.Line,
					name:    vs.Names[i].Name,
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			markers = append(markers, marker{
				id:   strings.TrimPrefix(head, "--sql "),
				name: vs.Names[i].Name,
				file: path,
				line: pos.Line,
			})
		}
		return true
	})
	return violations, markers, nil
}

// leadingLiteral returns the first string literal of a constant expression,
// following the left operand of concatenations.
func leadingLiteral(expr ast.Expr) *ast.BasicLit {
	for {
		switch e := expr.(type) {
		case *ast.BasicLit:
			if e.Kind != token.STRING {
				return nil
			}
			return e
		case *ast.BinaryExpr:
			if e.Op != token.ADD {
				return nil
			}
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		default:
			return nil
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
