package gmaps

import (
	"leadfinder/config"
	"leadfinder/models"
	"leadfinder/services"
	"leadfinder/storage"
	"leadfinder/utils"
)

// SessionSource is what the harvester needs from the session manager:
// a scoped acquire/release so sessions cannot leak across locations.
type SessionSource interface {
	WithSession(fn func(Session) error) error
}

// Harvester orchestrates one search task: plan queries, drive a session
// per location, extract and deduplicate leads, persist, and stop the
// moment the target count is reached.
type Harvester struct {
	logger    *utils.Logger
	sessions  SessionSource
	planner   *services.Planner
	pager     *Pager
	extractor *Extractor
	store     storage.LeadStore
}

func NewHarvester(cfg *config.Config, logger *utils.Logger, sessions SessionSource,
	planner *services.Planner, store storage.LeadStore) *Harvester {
	return &Harvester{
		logger:    logger,
		sessions:  sessions,
		planner:   planner,
		pager:     NewPager(logger, cfg.ResultsTimeout, cfg.ScrollDelay, cfg.StableScrolls),
		extractor: NewExtractor(logger, cfg.SettleDelay),
		store:     store,
	}
}

// runState carries the per-job progress previously held in long-lived
// globals. One per Run call, never shared across jobs.
type runState struct {
	target int
	leads  []*models.LeadRecord
	seen   *utils.KeySet
}

func (r *runState) done() bool {
	return len(r.leads) >= r.target
}

// Run executes a full harvest for one job. Every failure mode short of
// an invalid job degrades to fewer leads, never to an aborted run: the
// return is always the collected list, even when empty.
func (h *Harvester) Run(job models.SearchJob) ([]*models.LeadRecord, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	h.logger.Info("[harvest] Starting: %q in %s, %s — target %d",
		job.Niche, job.City, job.Region, job.TargetCount)

	run := &runState{target: job.TargetCount, seen: utils.NewKeySet()}

	for _, plan := range h.planner.Plan(job) {
		if run.done() {
			break
		}
		if err := h.harvestLocation(run, plan); err != nil {
			// Session acquisition failed for this location; others may
			// still succeed.
			h.logger.Error("[harvest] Location %s skipped: %v", plan.City, err)
		}
	}

	h.logger.Info("[harvest] Done — collected %d/%d leads", len(run.leads), run.target)
	return run.leads, nil
}

// harvestLocation runs all of one location's query variants against a
// single session. The session accumulates scroll state usefully across
// variants and is always released before the next location.
func (h *Harvester) harvestLocation(run *runState, plan services.LocationPlan) error {
	return h.sessions.WithSession(func(sess Session) error {
		for _, query := range plan.Queries {
			if run.done() {
				return nil
			}
			h.pager.Collect(sess, query, func(idx int) bool {
				if run.done() {
					return false
				}
				h.collectListing(run, sess, idx, plan.City)
				return !run.done()
			})
		}
		return nil
	})
}

// collectListing extracts one card and persists the result. Extraction
// failures and storage failures each cost at most that single lead.
func (h *Harvester) collectListing(run *runState, sess Session, idx int, city string) {
	lead, err := h.extractor.Extract(sess, idx, city)
	if err != nil {
		h.logger.Debug("[harvest] Listing %d discarded: %v", idx, err)
		return
	}

	if !run.seen.Add(lead.Key()) {
		h.logger.Debug("[harvest] Duplicate skipped: %s", lead.BusinessName)
		return
	}

	// In-memory result and durable write are independent: a store error
	// never removes the lead from the run's output.
	run.leads = append(run.leads, lead)
	if err := h.store.Upsert(lead); err != nil {
		h.logger.Error("[harvest] Persist failed for %s: %v", lead.BusinessName, err)
	}

	h.logger.Info("[harvest] %d/%d %s (%s)", len(run.leads), run.target, lead.BusinessName, city)
}
