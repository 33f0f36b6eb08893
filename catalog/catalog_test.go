package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squishies/types"
)

func TestDefaultCatalogAbilities(t *testing.T) {
	c := Default()
	want := map[types.PieceType]types.Ability{
		types.Bloop: types.RadialBurst,
		types.Rosie: types.RowClear,
		types.Limbo: types.ColumnClear,
		types.Sunny: types.ColorDrain,
		types.Plum:  types.ShuffleBoard,
		types.Tangy: types.HappinessBurst,
		types.Mochi: types.Wildcard,
	}
	for typ, ability := range want {
		assert.Equal(t, ability, c.Ability(typ), typ.String())
	}
}

func TestDefaultCatalogGlyphs(t *testing.T) {
	c := Default()
	seen := map[rune]bool{}
	for _, typ := range types.AllPieceTypes {
		g := c.Glyph(typ)
		assert.NotEqual(t, '?', g)
		assert.False(t, seen[g], "glyph %q reused", g)
		seen[g] = true
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte("types:\n  - name: Gloop\n    ability: RowClear\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gloop")
}

func TestParseRejectsUnknownAbility(t *testing.T) {
	_, err := Parse([]byte("types:\n  - name: Bloop\n    ability: Teleport\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teleport")
}

func TestParseRejectsIncompleteCatalog(t *testing.T) {
	_, err := Parse([]byte("types:\n  - name: Bloop\n    ability: RowClear\n"))
	require.Error(t, err)
}

func TestParseRejectsDuplicate(t *testing.T) {
	_, err := Parse([]byte("types:\n  - name: Bloop\n    ability: RowClear\n  - name: bloop\n    ability: RowClear\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
