// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/loomsrc/internal/testutil"
)

// TestLayeringRules keeps the pipeline layers pointing one way: mapping
// and source text at the bottom, engines above them, the remapper beside
// the engines and the orchestrator on top.
func TestLayeringRules(t *testing.T) {
	projectRoot := testutil.MustRepoRoot(t)
	const mod = "github.com/ManuGH/loomsrc/internal/"

	var violations []string
	for _, dep := range []string{"archive", "decompiler", "remap", "pipeline", "output"} {
		violations = append(violations, checkForbiddenImport(
			t, projectRoot, "internal/mapping", mod+dep,
			"Mapping sets must not depend on the decompile pipeline",
		)...)
	}
	for _, dep := range []string{"mapping", "decompiler", "remap"} {
		violations = append(violations, checkForbiddenImport(
			t, projectRoot, "internal/javasrc", mod+dep,
			"The Java lexer works on text only",
		)...)
	}
	for _, dep := range []string{"remap", "pipeline", "output", "config"} {
		violations = append(violations, checkForbiddenImport(
			t, projectRoot, "internal/decompiler", mod+dep,
			"Engines must not know about remapping or run lifecycle",
		)...)
	}
	violations = append(violations, checkForbiddenImportExcept(
		t, projectRoot, "internal/remap", mod+"decompiler/",
		nil,
		"The remapper consumes units, not engine internals",
	)...)
	for _, dep := range []string{"archive", "pipeline", "config"} {
		violations = append(violations, checkForbiddenImport(
			t, projectRoot, "internal/remap", mod+dep,
			"The remapper consumes units, not archives or runs",
		)...)
	}
	violations = append(violations, checkForbiddenImport(
		t, projectRoot, "internal", "github.com/ManuGH/loomsrc/cmd",
		"Library packages must not import the CLI",
	)...)

	if len(violations) > 0 {
		t.Errorf("Layering violations detected:\n\n%s", strings.Join(violations, "\n"))
	}
}

// TestNoUtilsPackages prevents creation of "utils hell" packages.
func TestNoUtilsPackages(t *testing.T) {
	projectRoot := testutil.MustRepoRoot(t)

	forbiddenDirs := []string{
		"internal/utils",
		"internal/util",
		"internal/common",
		"internal/helpers",
		"internal/shared",
	}

	violations := []string{}
	for _, dir := range forbiddenDirs {
		fullPath := filepath.Join(projectRoot, dir)
		if _, err := os.Stat(fullPath); err == nil {
			violations = append(violations, fmt.Sprintf(
				"Forbidden package detected: %s",
				dir,
			))
		}
	}

	if len(violations) > 0 {
		t.Errorf("Utils package violations:\n\n%s\n\nName packages after what they do instead.",
			strings.Join(violations, "\n"))
	}
}

// --- Helper Functions ---

func checkForbiddenImport(t *testing.T, projectRoot, sourceDir, forbiddenImportPrefix, reason string) []string {
	return checkForbiddenImportExcept(t, projectRoot, sourceDir, forbiddenImportPrefix, nil, reason)
}

func checkForbiddenImportExcept(t *testing.T, projectRoot, sourceDir, forbiddenImportPrefix string, allowedImports []string, reason string) []string {
	t.Helper()

	sourcePath := filepath.Join(projectRoot, sourceDir)
	files, err := findGoFiles(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Directory doesn't exist - no violation
		}
		t.Fatalf("Failed to scan %s: %v", sourceDir, err)
	}

	// Build set of allowed imports for fast lookup
	allowedSet := make(map[string]bool)
	for _, allowed := range allowedImports {
		allowedSet[allowed] = true
	}

	violations := []string{}
	for _, file := range files {
		imports, err := extractImports(file)
		if err != nil {
			t.Logf("Warning: failed to parse %s: %v", file, err)
			continue
		}

		for _, imp := range imports {
			if strings.HasPrefix(imp, forbiddenImportPrefix) {
				// Check if this import is explicitly allowed
				if allowedSet[imp] {
					continue
				}
				relPath, _ := filepath.Rel(projectRoot, file)
				violations = append(violations, fmt.Sprintf(
					"  ❌ %s imports %s\n     Reason: %s",
					relPath, imp, reason,
				))
			}
		}
	}

	return violations
}

func findGoFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func extractImports(filePath string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	imports := []string{}
	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		imports = append(imports, importPath)
	}
	return imports, nil
}
