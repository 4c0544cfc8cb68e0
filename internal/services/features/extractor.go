package features

import "StockPilot/internal/domain/models"

// Matrix selects the named columns of every row, in the given order. Names the
// table does not produce are filled with zero; table columns not named are
// dropped.
func Matrix(table *models.FeatureTable, names []string) [][]float64 {
	lookup := make(map[string]func(*models.FeatureRow) float64)
	for _, c := range table.Columns() {
		lookup[c.Name] = c.Value
	}
	getters := make([]func(*models.FeatureRow) float64, len(names))
	for i, n := range names {
		getters[i] = lookup[n]
	}

	out := make([][]float64, len(table.Rows))
	for r := range table.Rows {
		row := &table.Rows[r]
		vec := make([]float64, len(names))
		for i, get := range getters {
			if get != nil {
				vec[i] = get(row)
			}
		}
		out[r] = vec
	}
	return out
}

// Missing returns the names the table cannot supply.
func Missing(table *models.FeatureTable, names []string) []string {
	have := make(map[string]struct{})
	for _, n := range table.ColumnNames() {
		have[n] = struct{}{}
	}
	var out []string
	for _, n := range names {
		if _, ok := have[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
