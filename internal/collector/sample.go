package collector

import "github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"

// sampleCountries drive the generated resilience dataset. The position in
// this list sets each country's base score.
var sampleCountries = []string{
	"United States", "China", "Japan", "Germany", "India",
	"United Kingdom", "France", "Italy", "Brazil", "Canada",
	"South Korea", "Spain", "Australia", "Mexico", "Indonesia",
}

const (
	sampleFirstYear = 2010
	sampleLastYear  = 2023
)

// SampleResilienceData generates the deterministic infrastructure resilience
// dataset. Real infrastructure APIs require paid keys, so scores are
// simulated: each country starts at 50 plus twice its list position and
// improves by 0.5 per year, with fixed offsets per category.
func SampleResilienceData() []domain.ResilienceRecord {
	records := make([]domain.ResilienceRecord, 0, len(sampleCountries)*(sampleLastYear-sampleFirstYear+1))
	for i, country := range sampleCountries {
		base := 50.0 + float64(i)*2
		for year := sampleFirstYear; year <= sampleLastYear; year++ {
			score := base + float64(year-sampleFirstYear)*0.5
			records = append(records, domain.ResilienceRecord{
				Country:             country,
				Year:                year,
				InfrastructureScore: score,
				TransportResilience: score + 5,
				EnergyResilience:    score - 5,
				WaterResilience:     score + 2,
				DigitalResilience:   score + 10,
			})
		}
	}
	return records
}
