// Package domain models infrastructure resilience and climate indicator data.
//
// # Data Sources
//
// World Bank indicators come from the public API v2
// (https://api.worldbank.org/v2/country/all/indicator/{code}). The collector
// fetches one dataset per indicator:
//
//	EN.GHG.CO2.PC.CE.AR5  co2_emissions_per_capita
//	NY.GDP.PCAP.CD        gdp_per_capita
//	SP.POP.TOTL           population_total
//	EG.FEC.RNEW.ZS        renewable_energy_consumption
//
// Null observation values are preserved as nil pointers; the API reports
// missing country/year combinations explicitly with a JSON null.
//
// Infrastructure resilience scores have no public API; the collector
// generates a deterministic sample dataset (15 countries, 2010-2023) with
// five category scores per country-year. The generation formula is fixed so
// reprocessing always yields identical records.
//
// # Validation
//
// A resilience record is valid when the country name is non-empty, the year
// is within 2010-2024, and every score lies in [0, 100]. Records failing
// validation are skipped by the ETL transform stage, never silently patched.
//
// # Score Bands
//
// Infrastructure scores map to a four-level band for user-facing queries:
//
//	critical   < 40
//	developing < 55
//	stable     < 70
//	advanced   >= 70
//
// The band is nil when the score is 0 (unmeasured).
//
// # ID Generation
//
// Record IDs are deterministic: "<country-slug>-<year>-<sha256[:8]>" of the
// country|year key. This enables idempotent warehouse upserts (ON CONFLICT);
// reprocessing the same raw row produces the same ID.
package domain
