package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

const (
	defaultTimelineDays = 180
	performanceDays     = 30
	topSites            = 10
	topPerformers       = 10
)

// Service computes aggregation reports over the pendencia store. The
// embedded store has no aggregation pipeline, so every report is a single
// full scan grouped in memory; volumes here are small (thousands of
// tickets at most).
type Service struct {
	pendencias interfaces.PendenciaStorage
	logger     arbor.ILogger
}

// NewService creates a new reports service
func NewService(pendencias interfaces.PendenciaStorage, logger arbor.ILogger) *Service {
	return &Service{
		pendencias: pendencias,
		logger:     logger,
	}
}

// TimelineBucket is one month of ticket activity.
type TimelineBucket struct {
	Period   string `json:"period"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Total    int    `json:"total"`
	Pending  int    `json:"pending"`
	Finished int    `json:"finished"`
	Approved int    `json:"approved"`
}

// Timeline groups tickets created inside [start, end] into month buckets,
// oldest first. Zero times default to the last 180 days ending now.
func (s *Service) Timeline(ctx context.Context, start, end time.Time) ([]TimelineBucket, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -defaultTimelineDays)
	}

	all, err := s.pendencias.ListPendencias(ctx, models.PendenciaFilter{})
	if err != nil {
		return nil, err
	}

	type key struct{ year, month int }
	buckets := make(map[key]*TimelineBucket)

	for _, p := range all {
		created := p.CreatedAt.UTC()
		if created.Before(start) || created.After(end) {
			continue
		}
		k := key{created.Year(), int(created.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &TimelineBucket{
				Period: fmt.Sprintf("%s %d", created.Month().String(), k.year),
				Year:   k.year,
				Month:  k.month,
			}
			buckets[k] = b
		}
		b.Total++
		switch p.Status {
		case models.PendenciaStatusPendente:
			b.Pending++
		case models.PendenciaStatusFinalizado:
			b.Finished++
		}
		if p.ValidationStatus == models.ValidationApproved {
			b.Approved++
		}
	}

	result := make([]TimelineBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})

	return result, nil
}

// CountEntry is one labelled count in a distribution.
type CountEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Distribution holds ticket counts sliced three ways.
type Distribution struct {
	ByType   []CountEntry `json:"by_type"`
	BySite   []CountEntry `json:"by_site"`
	ByStatus []CountEntry `json:"by_status"`
}

// Distribution counts tickets by tipo, by site (top 10 descending) and by
// status.
func (s *Service) Distribution(ctx context.Context) (*Distribution, error) {
	all, err := s.pendencias.ListPendencias(ctx, models.PendenciaFilter{})
	if err != nil {
		return nil, err
	}

	byType := make(map[string]int)
	bySite := make(map[string]int)
	byStatus := make(map[string]int)
	for _, p := range all {
		byType[p.Tipo]++
		bySite[p.Site]++
		byStatus[p.Status]++
	}

	sites := sortedCounts(bySite)
	if len(sites) > topSites {
		sites = sites[:topSites]
	}

	return &Distribution{
		ByType:   sortedCounts(byType),
		BySite:   sites,
		ByStatus: sortedCounts(byStatus),
	}, nil
}

func sortedCounts(m map[string]int) []CountEntry {
	entries := make([]CountEntry, 0, len(m))
	for label, count := range m {
		entries = append(entries, CountEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Performer is one user's output over the performance window.
type Performer struct {
	Username     string  `json:"username"`
	Created      int     `json:"created,omitempty"`
	Finished     int     `json:"finished,omitempty"`
	Approved     int     `json:"approved"`
	ApprovalRate float64 `json:"approval_rate"`
}

// Performance holds the top creators and finalizers for the window.
type Performance struct {
	TopCreators   []Performer `json:"top_creators"`
	TopFinalizers []Performer `json:"top_finalizers"`
	Period        string      `json:"period"`
}

// Performance ranks the top 10 creators and finalizers over the last 30
// days, each with an admin approval rate.
func (s *Service) Performance(ctx context.Context) (*Performance, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -performanceDays)

	all, err := s.pendencias.ListPendencias(ctx, models.PendenciaFilter{})
	if err != nil {
		return nil, err
	}

	type tally struct{ total, approved int }
	creators := make(map[string]*tally)
	finalizers := make(map[string]*tally)

	for _, p := range all {
		approved := p.ValidationStatus == models.ValidationApproved

		created := p.CreatedAt.UTC()
		if !created.Before(start) && !created.After(end) {
			t := creators[p.UsuarioCriacao]
			if t == nil {
				t = &tally{}
				creators[p.UsuarioCriacao] = t
			}
			t.total++
			if approved {
				t.approved++
			}
		}

		if p.Status == models.PendenciaStatusFinalizado && p.DataFinalizacao != nil {
			finished := p.DataFinalizacao.UTC()
			if !finished.Before(start) && !finished.After(end) {
				t := finalizers[p.UsuarioFinalizacao]
				if t == nil {
					t = &tally{}
					finalizers[p.UsuarioFinalizacao] = t
				}
				t.total++
				if approved {
					t.approved++
				}
			}
		}
	}

	rank := func(m map[string]*tally, created bool) []Performer {
		out := make([]Performer, 0, len(m))
		for username, t := range m {
			rate := 0.0
			if t.total > 0 {
				rate = math.Round(float64(t.approved)/float64(t.total)*1000) / 10
			}
			p := Performer{Username: username, Approved: t.approved, ApprovalRate: rate}
			if created {
				p.Created = t.total
			} else {
				p.Finished = t.total
			}
			out = append(out, p)
		}
		sort.Slice(out, func(i, j int) bool {
			ti, tj := out[i].Created+out[i].Finished, out[j].Created+out[j].Finished
			if ti != tj {
				return ti > tj
			}
			return out[i].Username < out[j].Username
		})
		if len(out) > topPerformers {
			out = out[:topPerformers]
		}
		return out
	}

	return &Performance{
		TopCreators:   rank(creators, true),
		TopFinalizers: rank(finalizers, false),
		Period:        "Last 30 days",
	}, nil
}

// UserStats is one user's activity in the current calendar month.
type UserStats struct {
	Month                 string `json:"month"`
	Year                  int    `json:"year"`
	CreatedCount          int    `json:"created_count"`
	FinishedCount         int    `json:"finished_count"`
	ApprovedCreatedCount  int    `json:"approved_created_count"`
	ApprovedFinishedCount int    `json:"approved_finished_count"`
}

// UserStats counts the user's created/finished tickets in the current
// calendar month, plus how many of each the admin approved.
func (s *Service) UserStats(ctx context.Context, username string) (*UserStats, error) {
	now := time.Now().UTC()
	start, end := monthBounds(now)

	all, err := s.pendencias.ListPendencias(ctx, models.PendenciaFilter{})
	if err != nil {
		return nil, err
	}

	stats := &UserStats{Month: now.Month().String(), Year: now.Year()}
	for _, p := range all {
		approved := p.ValidationStatus == models.ValidationApproved

		if p.UsuarioCriacao == username && inMonth(p.CreatedAt, start, end) {
			stats.CreatedCount++
			if approved {
				stats.ApprovedCreatedCount++
			}
		}
		if p.UsuarioFinalizacao == username && p.Status == models.PendenciaStatusFinalizado &&
			p.DataFinalizacao != nil && inMonth(*p.DataFinalizacao, start, end) {
			stats.FinishedCount++
			if approved {
				stats.ApprovedFinishedCount++
			}
		}
	}

	return stats, nil
}

// MonthlyLeader names the user with the most validated tickets.
type MonthlyLeader struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// MonthlyStats holds the month's leaders. Only admin-approved tickets count.
type MonthlyStats struct {
	Month        string         `json:"month"`
	Year         int            `json:"year"`
	MostCreated  *MonthlyLeader `json:"most_created"`
	MostFinished *MonthlyLeader `json:"most_finished"`
}

// MonthlyStats returns the users with the most approved creations and
// finalizations in the current calendar month. Leaders are nil when nothing
// qualifies.
func (s *Service) MonthlyStats(ctx context.Context) (*MonthlyStats, error) {
	now := time.Now().UTC()
	start, end := monthBounds(now)

	all, err := s.pendencias.ListPendencias(ctx, models.PendenciaFilter{})
	if err != nil {
		return nil, err
	}

	created := make(map[string]int)
	finished := make(map[string]int)
	for _, p := range all {
		if p.ValidationStatus != models.ValidationApproved {
			continue
		}
		if inMonth(p.CreatedAt, start, end) {
			created[p.UsuarioCriacao]++
		}
		if p.Status == models.PendenciaStatusFinalizado && p.DataFinalizacao != nil &&
			inMonth(*p.DataFinalizacao, start, end) {
			finished[p.UsuarioFinalizacao]++
		}
	}

	return &MonthlyStats{
		Month:        now.Month().String(),
		Year:         now.Year(),
		MostCreated:  leader(created),
		MostFinished: leader(finished),
	}, nil
}

func leader(m map[string]int) *MonthlyLeader {
	var best *MonthlyLeader
	for username, count := range m {
		if best == nil || count > best.Count ||
			(count == best.Count && username < best.Username) {
			best = &MonthlyLeader{Username: username, Count: count}
		}
	}
	return best
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func inMonth(t, start, end time.Time) bool {
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}
