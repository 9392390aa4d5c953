package score

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNivelPorScore(t *testing.T) {
	cases := []struct {
		score int
		nivel int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{600, 4},
		{999, 4},
		{1000, 5},
		{5000, 5},
	}

	for _, tc := range cases {
		got := NivelPorScore(tc.score)
		require.Equal(t, tc.nivel, got.Nivel, "score %d", tc.score)
	}
}

func TestProximoNivel(t *testing.T) {
	next := ProximoNivel(0)
	require.NotNil(t, next)
	require.Equal(t, 2, next.Nivel)

	require.Nil(t, ProximoNivel(1000))
}

func TestRecompensaColeta(t *testing.T) {
	require.Equal(t, 0, RecompensaColeta(0))
	require.Equal(t, 30, RecompensaColeta(3))
}
