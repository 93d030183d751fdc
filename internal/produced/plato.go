package produced

// Horner coefficients of the Plato -> volumetric degree fit.
const (
	platoC1 = 0.0000188792
	platoC2 = 0.003646886
	platoC3 = 1.001077
	platoC4 = 0.01223565
)

// PlatoToVolumetric converts a Plato reading into the volumetric degree used to
// standardise volumes. A zero reading short-circuits to exactly zero.
func PlatoToVolumetric(plato float64) float64 {
	if plato == 0 {
		return 0
	}
	return ((platoC1*plato+platoC2)*plato+platoC3)*plato - platoC4
}
