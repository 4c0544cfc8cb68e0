package service

// FittedModel is a previously trained estimator. FeatureNames lists the columns
// in the order the model was fitted on; Predict returns one value per row.
type FittedModel interface {
	FeatureNames() []string
	Predict(rows [][]float64) ([]float64, error)
}
