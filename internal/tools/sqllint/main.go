// Command sqllint checks that every inline SQL string constant starts with a
// unique "--sql <uuid>" marker so statements can be traced in pg_stat_statements.
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
	"sort"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

// marked is a query whose marker passed the format check.
type marked struct {
	file   string
	name   string
	line   int
	marker string
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
			fmt.Fprintf(os.Stderr, "  %s\n", v)
		}
		os.Exit(1)
	}
}

// lint walks the targets and reports malformed or reused markers.
func lint(targets []string) ([]violation, error) {
	var (
		violations []violation
		seen       []marked
	)
	visit := func(path string) error {
		vs, ms, err := lintFile(path)
		if err != nil {
			return err
		}
		violations = append(violations, vs...)
		seen = append(seen, ms...)
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
		walkErr := filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor" || d.Name() == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			return visit(path)
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return append(violations, duplicates(seen)...), nil
}

func lintFile(path string) ([]violation, []marked, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	var (
		violations []violation
		ok         []marked
	)
	ast.Inspect(file, func(n ast.Node) bool {
		vs, isSpec := n.(*ast.ValueSpec)
		if !isSpec {
			return true
		}
		for i, value := range vs.Values {
			bl, isLit := value.(*ast.BasicLit)
			if !isLit || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := specName(vs.Names, i)
			line := fset.Position(bl.Pos()).Line
			marker := firstLine(raw)
			if !uuidMarkerPattern.MatchString(marker) {
				violations = append(violations, violation{
					file:    path,
					line:    line,
					name:    name,
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			ok = append(ok, marked{file: path, name: name, line: line, marker: marker})
		}
		return true
	})
	return violations, ok, nil
}

// duplicates reports every use of a marker after its first occurrence.
func duplicates(all []marked) []violation {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].file != all[j].file {
			return all[i].file < all[j].file
		}
		return all[i].line < all[j].line
	})
	first := make(map[string]marked, len(all))
	var out []violation
	for _, m := range all {
		prev, dup := first[m.marker]
		if !dup {
			first[m.marker] = m
			continue
		}
		out = append(out, violation{
			file:    m.file,
			line:    m.line,
			name:    m.name,
			message: fmt.Sprintf("marker already used by %s at %s:%d", prev.name, prev.file, prev.line),
		})
	}
	return out
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

func specName(idents []*ast.Ident, i int) string {
	if i < len(idents) && idents[i] != nil {
		return idents[i].Name
	}
	return "_"
}
