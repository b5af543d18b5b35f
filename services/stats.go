package services

import (
	"fmt"
	"sort"
	"strings"

	"leadfinder/models"
	"leadfinder/utils"
)

// StatsService computes summary analytics over harvested leads.
type StatsService struct {
	logger *utils.Logger
}

func NewStatsService(logger *utils.Logger) *StatsService {
	return &StatsService{logger: logger}
}

func (s *StatsService) Compute(leads []*models.LeadRecord) *models.LeadStats {
	stats := &models.LeadStats{
		LeadsByCity:   make(map[string]int),
		LeadsByStatus: make(map[models.DealStatus]int),
	}

	if len(leads) == 0 {
		return stats
	}

	stats.TotalLeads = len(leads)

	var ratingSum float64
	var rated int

	for _, l := range leads {
		if l.HasWebsite {
			stats.WithWebsite++
		}
		if l.Phone != "" {
			stats.WithPhone++
		}
		if l.Rating != nil {
			ratingSum += *l.Rating
			rated++
		}
		if l.City != "" {
			stats.LeadsByCity[l.City]++
		}
		stats.LeadsByStatus[l.DealStatus]++
	}

	if rated > 0 {
		stats.AverageRating = round2(ratingSum / float64(rated))
	}

	return stats
}

// Print renders the stats report to stdout after a CLI run.
func (s *StatsService) Print(r *models.LeadStats) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  LEAD HARVEST SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total leads    : \033[1m%d\033[0m\n", r.TotalLeads)
	fmt.Printf("  With website   : \033[1m%d\033[0m\n", r.WithWebsite)
	fmt.Printf("  With phone     : \033[1m%d\033[0m\n", r.WithPhone)
	if r.AverageRating > 0 {
		fmt.Printf("  Average rating : \033[1;32m%.2f ★\033[0m\n", r.AverageRating)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Leads by City\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.LeadsByCity) == 0 {
		fmt.Printf("  No city data\n")
	} else {
		type cityCount struct {
			city  string
			count int
		}
		var cities []cityCount
		for city, cnt := range r.LeadsByCity {
			cities = append(cities, cityCount{city, cnt})
		}
		sort.Slice(cities, func(i, j int) bool {
			return cities[i].count > cities[j].count
		})
		for _, cc := range cities {
			bar := strings.Repeat("█", cc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(cc.city, 28), bar, cc.count)
		}
	}

	fmt.Printf("\n\033[1;33m  Outreach Pipeline\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, status := range []models.DealStatus{
		models.DealNotContacted, models.DealContacted, models.DealWon, models.DealLost,
	} {
		if cnt := r.LeadsByStatus[status]; cnt > 0 {
			fmt.Printf("  %-15s : %d\n", status, cnt)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
