package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"leadfinder/models"
)

//go:embed nearby_cities.yaml
var nearbyCitiesYAML []byte

// LocationPlan is the set of search queries to run for one city. Queries
// are consumed in order until the job's remaining quota is exhausted.
type LocationPlan struct {
	City    string
	Queries []string
}

// Planner expands a SearchJob into an ordered list of search queries,
// optionally covering a small fixed set of known-nearby cities. Pure —
// no side effects, no failure modes beyond an empty nearby lookup.
type Planner struct {
	nearby map[string][]string
	expand bool
}

// NewPlanner loads the embedded nearby-city table. expand controls whether
// Plan emits nearby-location variants after the primary city.
func NewPlanner(expand bool) (*Planner, error) {
	nearby := make(map[string][]string)
	if err := yaml.Unmarshal(nearbyCitiesYAML, &nearby); err != nil {
		return nil, fmt.Errorf("planner: parse nearby cities table: %w", err)
	}

	// Canonicalize lookup keys once so Plan stays a pure map hit.
	canon := make(map[string][]string, len(nearby))
	for city, list := range nearby {
		canon[canonicalCity(city)] = list
	}

	return &Planner{nearby: canon, expand: expand}, nil
}

// Plan returns the ordered location plans for a job: the job's own city
// first, then any known-nearby cities. Unknown cities get no expansion —
// coverage-over-precision only applies where the table has data.
func (p *Planner) Plan(job models.SearchJob) []LocationPlan {
	plans := []LocationPlan{{
		City:    job.City,
		Queries: queriesFor(job.Niche, job.City, job.Region),
	}}

	if !p.expand {
		return plans
	}

	for _, city := range p.nearby[canonicalCity(job.City)] {
		plans = append(plans, LocationPlan{
			City:    city,
			Queries: queriesFor(job.Niche, city, job.Region),
		})
	}

	return plans
}

// queriesFor builds the literal query followed by the four templated
// variants. The variants diversify result sets the search surface would
// otherwise collapse to near-identical pages.
func queriesFor(niche, city, region string) []string {
	return []string{
		fmt.Sprintf("%s in %s, %s", niche, city, region),
		fmt.Sprintf("local %s in %s", niche, city),
		fmt.Sprintf("%s services in %s", niche, city),
		fmt.Sprintf("best %s in %s", niche, city),
		fmt.Sprintf("residential %s in %s", niche, city),
	}
}

func canonicalCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
