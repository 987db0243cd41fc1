package scoring

import "buildmarket/internal/models"

const (
	maxCountedQualifications = 5
	countPoints              = 10.0
	verificationPoints       = 30.0
	recencyPoints            = 20.0
	recencyWindowYears       = 10.0
)

// QualificationScore rates a contractor's qualification records on [0, 100]:
// up to 50 for how many there are, 30 for the verified share and 20 for how
// recent they are on average. No records score 0.
func QualificationScore(records []models.QualificationRecord, currentYear int) float64 {
	if len(records) == 0 {
		return 0
	}

	verified := 0
	yearSum := 0
	for _, r := range records {
		if r.VerificationStatus == models.QualificationVerified {
			verified++
		}
		yearSum += r.Year
	}
	n := float64(len(records))

	countScore := float64(min(len(records), maxCountedQualifications)) * countPoints
	verificationScore := float64(verified) / n * verificationPoints

	avgYear := float64(yearSum) / n
	oldest := float64(currentYear) - recencyWindowYears
	recencyScore := clamp((avgYear-oldest)/recencyWindowYears*recencyPoints, 0, recencyPoints)

	return countScore + verificationScore + recencyScore
}
