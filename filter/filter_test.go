package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/dexbrowse/catalog"
)

func testItems() []catalog.ItemDetail {
	return []catalog.ItemDetail{
		{
			ID:         6,
			Name:       "charizard",
			Categories: []string{"fire", "flying"},
			Mass:       905,
			Size:       17,
			Stats:      []catalog.Stat{{Label: "hp", Value: 78}, {Label: "speed", Value: 100}},
			Traits:     []string{"blaze", "solar-power"},
			ImageURL:   "https://img/6.png",
		},
		{
			ID:         25,
			Name:       "pikachu",
			Categories: []string{"electric"},
			Mass:       60,
			Size:       4,
			Stats:      []catalog.Stat{{Label: "hp", Value: 35}, {Label: "speed", Value: 90}},
			Traits:     []string{"static"},
		},
		{
			ID:         143,
			Name:       "snorlax",
			Categories: []string{"normal"},
			Mass:       4600,
			Size:       21,
			Stats:      []catalog.Stat{{Label: "hp", Value: 160}, {Label: "speed", Value: 30}},
			Traits:     []string{"immunity", "thick-fat"},
		},
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasType("fire")`,
		},
		{
			name:        "empty expression",
			expression:  "   ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:        "invalid syntax",
			expression:  `hasType("unclosed`,
			wantErr:     true,
			errContains: "failed to compile",
		},
		{
			name:       "complex expression",
			expression: `(hasType("fire") or hasAbility("static")) and stat("speed") >= 90 and Weight < 100`,
		},
	}

	compiler := NewExprCompiler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.Expression())
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expression string
		want       []string
	}{
		{expression: `hasType("FIRE")`, want: []string{"charizard"}},
		{expression: `hasCategory("normal") or hasCategory("electric")`, want: []string{"pikachu", "snorlax"}},
		{expression: `Mass > 500`, want: []string{"charizard", "snorlax"}},
		{expression: `Weight < 10`, want: []string{"pikachu"}},
		{expression: `stat("hp") >= 78`, want: []string{"charizard", "snorlax"}},
		{expression: `Stats["speed"] > 95`, want: []string{"charizard"}},
		{expression: `Total >= 190`, want: []string{"snorlax"}},
		{expression: `hasAbility("thick-fat")`, want: []string{"snorlax"}},
		{expression: `startsWith(Name, "PIKA")`, want: []string{"pikachu"}},
		{expression: `"flying" in Types`, want: []string{"charizard"}},
		{expression: `HasImage`, want: []string{"charizard"}},
		{expression: `ID == 143`, want: []string{"snorlax"}},
		{expression: `len(Abilities) == 2 && !hasType("fire")`, want: []string{"snorlax"}},
		{expression: `Name > 5`, want: []string{}},
	}

	compiler := NewExprCompiler()

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			require.NoError(t, err)

			got := []string{}
			for _, item := range Apply(f, testItems()) {
				got = append(got, item.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isStarter": func(id int) bool { return id <= 9 },
	}))

	f, err := compiler.Compile(`isStarter(ID)`)
	require.NoError(t, err)

	matches := Apply(f, testItems())
	require.Len(t, matches, 1)
	assert.Equal(t, "charizard", matches[0].Name)
}

func TestApplyNilFilter(t *testing.T) {
	items := testItems()
	assert.Equal(t, items, Apply(nil, items))
}
