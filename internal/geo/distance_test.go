package geo

import (
	"math"
	"testing"
)

func TestDistanciaKm(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tol                    float64
	}{
		{"mesmo ponto", -22.9, -43.2, -22.9, -43.2, 0, 0.001},
		{"rio-sp", -22.9068, -43.1729, -23.5505, -46.6333, 357.7, 5},
		{"equador um grau", 0, 0, 0, 1, 111.19, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanciaKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.want) > tc.tol {
				t.Fatalf("distância %f, esperado %f ± %f", got, tc.want, tc.tol)
			}
		})
	}
}
