package inspection

import "SlicerQC/internal/domain"

// Classify compares a measured X-bar against an inclusive [lower, upper] band.
// A missing measurement is Unknown.
func Classify(xbar *float64, lower, upper float64) domain.ResultStatus {
	switch {
	case xbar == nil:
		return domain.StatusUnknown
	case *xbar < lower:
		return domain.StatusBelowRange
	case *xbar > upper:
		return domain.StatusAboveRange
	default:
		return domain.StatusOK
	}
}
