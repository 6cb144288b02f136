package maze

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

func TestDefaultRulesCount(t *testing.T) {
	// Per direction: 7 tiles open toward it, 5 do not, on both sides
	// 7*7 + 5*5 = 74 pairs, times four directions.
	assert.Equal(t, 296, DefaultRules().Len())
}

func TestDefaultRulesForTShapedUp(t *testing.T) {
	rules := DefaultRules()

	allowed := map[Tile]bool{
		TShapedUpsideDown: true,
		BottomLeftCorner:  true,
		BottomRightCorner: true,
		HorizontalLine:    true,
		Empty:             true,
	}
	for _, n := range Empty.Variants() {
		assert.Equal(t, allowed[n], rules.Allows(TShaped, n, wfc.Up), "╦ below %s", n)
	}
}

func TestDefaultRulesAreSymmetric(t *testing.T) {
	rules := DefaultRules()
	for _, r := range rules.Rules() {
		mirror := wfc.Rule[Tile]{Tile: r.Neighbor, Neighbor: r.Tile, Dir: r.Dir.Opposite()}
		assert.True(t, rules.Has(mirror), "missing mirror of %s", r)
	}
}

func TestConnects(t *testing.T) {
	assert.True(t, Connects(HorizontalLine, HorizontalLine, wfc.Right))
	assert.False(t, Connects(HorizontalLine, VerticalLine, wfc.Up))
	assert.True(t, Connects(VerticalLine, VerticalLine, wfc.Up))
	assert.True(t, Connects(HorizontalLine, Empty, wfc.Up))
	assert.False(t, Connects(HorizontalLine, VerticalLine, wfc.Right))
	assert.True(t, Connects(TopLeftCorner, TShapedLeft, wfc.Right))
	assert.False(t, Connects(Empty, CenterCross, wfc.Left))
}

func TestMazeStripsAlwaysCollapse(t *testing.T) {
	// With at most three neighbors the free side can always absorb a lone
	// opening, so grids of height 1 or 2 never contradict.
	sizes := []struct{ w, h int }{{30, 1}, {1, 30}, {25, 2}, {2, 25}}

	for _, sz := range sizes {
		for seed := int64(0); seed < 10; seed++ {
			wave, err := NewWave(sz.w, sz.h)
			require.NoError(t, err)
			require.NoError(t, wave.Collapse(rand.New(rand.NewSource(seed))))
			assertJoined(t, wave)
		}
	}
}

func TestMazeCollapseIsJoinedOnSuccess(t *testing.T) {
	successes := 0
	for seed := int64(0); seed < 30; seed++ {
		wave, err := NewWave(5, 5)
		require.NoError(t, err)

		if err := wave.Collapse(rand.New(rand.NewSource(seed))); err != nil {
			assert.ErrorIs(t, err, wfc.ErrNotFullyCollapsed)
			continue
		}
		successes++
		assertJoined(t, wave)
	}
	assert.Positive(t, successes)
}

func TestMazeRender(t *testing.T) {
	wave, err := NewWave(12, 2)
	require.NoError(t, err)
	require.NoError(t, wave.Collapse(rand.New(rand.NewSource(1))))

	lines := strings.Split(strings.TrimSuffix(wave.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Len(t, []rune(line), 12)
		assert.NotContains(t, line, string(wfc.Placeholder))
	}
}

// assertJoined checks that every passage leads into a matching passage
func assertJoined(t *testing.T, wave *wfc.Wave[Tile]) {
	t.Helper()
	for y := 0; y < wave.Height(); y++ {
		for x := 0; x < wave.Width(); x++ {
			tile, ok := wave.At(x, y)
			require.True(t, ok)
			for _, d := range wfc.AllDirections() {
				dx, dy := d.Offset()
				if n, ok := wave.At(x+dx, y+dy); ok {
					assert.True(t, Connects(tile, n, d), "(%d,%d) %s next to %s toward %s", x, y, tile, n, d)
				}
			}
		}
	}
}
