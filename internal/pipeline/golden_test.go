package pipeline

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type goldenCase struct {
	Name        string            `yaml:"name"`
	Program     string            `yaml:"program"`
	Definitions map[string]string `yaml:"definitions"`
	ProgramType string            `yaml:"program_type"`
	Diagnostics []string          `yaml:"diagnostics"`
}

type goldenFile struct {
	Cases []goldenCase `yaml:"cases"`
}

func TestGolden(t *testing.T) {
	raw, err := os.ReadFile("testdata/golden.yaml")
	require.NoError(t, err)

	var golden goldenFile
	require.NoError(t, yaml.Unmarshal(raw, &golden))
	require.NotEmpty(t, golden.Cases)

	for _, tc := range golden.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			result := Check(tc.Program, tc.Name+".an")
			require.Empty(t, result.ParseErrors, "parse errors: %v", result.ParseErrors)

			rendered := result.Diagnostics()

			if len(tc.Diagnostics) == 0 {
				require.Empty(t, rendered, "unexpected diagnostics: %v", rendered)
			}
			for _, expected := range tc.Diagnostics {
				found := false
				for _, diagnostic := range rendered {
					if strings.Contains(diagnostic, expected) {
						found = true
						break
					}
				}
				require.True(t, found, "expected a diagnostic containing %q, got %v", expected, rendered)
			}

			if tc.ProgramType != "" {
				require.Equal(t, tc.ProgramType, result.ProgramType())
			}

			if len(tc.Definitions) != 0 {
				got := make(map[string]string)
				for _, definition := range result.DefinitionTypes() {
					if _, wanted := tc.Definitions[definition.Name]; wanted {
						got[definition.Name] = definition.Typ
					}
				}
				if diff := cmp.Diff(tc.Definitions, got); diff != "" {
					t.Errorf("definition types mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

// Totality: after inference every node the checker visited carries a type.
func TestEveryVisitedNodeIsTyped(t *testing.T) {
	result := Check(`
let id = fn x -> x
let pick = fn c -> if c then id 1 else 2
pick true
`, "totality.an")
	require.False(t, result.HasErrors(), "diagnostics: %v", result.Diagnostics())
	require.NotNil(t, result.Program.GetType())

	for _, statement := range result.Program.Statements {
		require.NotNil(t, statement.GetType(), "untyped statement %T", statement)
	}
}
