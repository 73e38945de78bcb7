package facematch

// Quality labels, from best to worst
const (
	QualityExcellent = "Excellent"
	QualityVeryGood  = "Very Good"
	QualityGood      = "Good"
	QualityFair      = "Fair"
	QualityPoor      = "Poor"
)

// QualityLabel describes a confidence score for display. Boundaries are inclusive.
func QualityLabel(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return QualityExcellent
	case confidence >= 0.8:
		return QualityVeryGood
	case confidence >= 0.7:
		return QualityGood
	case confidence >= 0.6:
		return QualityFair
	default:
		return QualityPoor
	}
}
