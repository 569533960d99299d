package learning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// GenerateWeeklyReport computes the §4.5 rollup for [weekStart, weekStart+7d).
func (c *Core) GenerateWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyReport, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)

	contentMetrics, err := storage.QueryJSON[models.ContentMetric](ctx, c.Store, storage.CollectionContentMetrics, userID, nil, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("loading content metrics: %w", err)
	}
	inWindow := filterContentMetrics(contentMetrics, weekStart, weekEnd)

	prospectMetrics, err := storage.QueryJSON[models.ProspectMetric](ctx, c.Store, storage.CollectionProspectMetrics, userID, nil, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("loading prospect metrics: %w", err)
	}
	prospectsInWindow := filterProspectMetrics(prospectMetrics, weekStart, weekEnd)

	report := &models.WeeklyReport{
		UserID:      userID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		TotalPosts:  len(inWindow),
		GeneratedAt: c.now(),
	}

	report.AvgEngagementRate = avgEngagementRate(inWindow)
	report.BestPillar = bestPillar(inWindow)
	report.TopHashtags = topHashtags(inWindow, 5)
	report.TopAudienceSegments = topAudienceSegments(inWindow, 5)
	report.OutreachSummary = outreachSummary(prospectsInWindow)
	report.Recommendations = recommendations(report, inWindow)

	return report, nil
}

func filterContentMetrics(metrics []models.ContentMetric, start, end time.Time) []models.ContentMetric {
	var out []models.ContentMetric
	for _, m := range metrics {
		if !m.CreatedAt.Before(start) && m.CreatedAt.Before(end) {
			out = append(out, m)
		}
	}
	return out
}

func filterProspectMetrics(metrics []models.ProspectMetric, start, end time.Time) []models.ProspectMetric {
	var out []models.ProspectMetric
	for _, m := range metrics {
		if !m.UpdatedAt.Before(start) && m.UpdatedAt.Before(end) {
			out = append(out, m)
		}
	}
	return out
}

func avgEngagementRate(metrics []models.ContentMetric) float64 {
	if len(metrics) == 0 {
		return 0
	}
	var sum float64
	for _, m := range metrics {
		sum += m.EngagementRate
	}
	return roundTo2(sum / float64(len(metrics)))
}

func bestPillar(metrics []models.ContentMetric) models.Pillar {
	sums := map[models.Pillar]float64{}
	counts := map[models.Pillar]int{}
	for _, m := range metrics {
		sums[m.Pillar] += m.EngagementRate
		counts[m.Pillar]++
	}
	var best models.Pillar
	bestAvg := -1.0
	var pillars []models.Pillar
	for p := range sums {
		pillars = append(pillars, p)
	}
	sort.Slice(pillars, func(i, j int) bool { return pillars[i] < pillars[j] })
	for _, p := range pillars {
		avg := sums[p] / float64(counts[p])
		if avg > bestAvg {
			bestAvg = avg
			best = p
		}
	}
	return best
}

func topHashtags(metrics []models.ContentMetric, n int) []string {
	totals := map[string]float64{}
	for _, m := range metrics {
		for _, h := range m.TopHashtags {
			totals[h] += m.EngagementRate
		}
	}
	return topNByValue(totals, n)
}

func topAudienceSegments(metrics []models.ContentMetric, n int) []string {
	totals := map[string]float64{}
	for _, m := range metrics {
		for _, seg := range m.AudienceSegment {
			totals[seg] += m.EngagementRate
		}
	}
	return topNByValue(totals, n)
}

func topNByValue(totals map[string]float64, n int) []string {
	type kv struct {
		key   string
		value float64
	}
	var all []kv
	for k, v := range totals {
		all = append(all, kv{k, v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].value != all[j].value {
			return all[i].value > all[j].value
		}
		return all[i].key < all[j].key
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, 0, len(all))
	for _, e := range all {
		out = append(out, e.key)
	}
	return out
}

func outreachSummary(metrics []models.ProspectMetric) models.OutreachSummary {
	var summary models.OutreachSummary
	var connectionsSent, connectionsAccepted int
	for _, m := range metrics {
		if m.ConnectionRequestSent {
			connectionsSent++
		}
		if m.ConnectionAccepted {
			connectionsAccepted++
		}
		summary.TotalDMs += len(m.DMsSent)
		summary.MeetingsBooked += len(m.MeetingsBooked)
	}
	summary.TotalConnections = connectionsSent
	if connectionsSent > 0 {
		summary.ConnectionAcceptRate = roundTo2(float64(connectionsAccepted) / float64(connectionsSent) * 100)
	}
	if summary.TotalDMs > 0 {
		var positive int
		for _, m := range metrics {
			for _, dm := range m.DMsSent {
				if dm.ResponseType == models.ResponsePositive {
					positive++
				}
			}
		}
		summary.DMReplyRate = roundTo2(float64(positive) / float64(summary.TotalDMs) * 100)
	}
	return summary
}

// recommendations applies simple deterministic rules: recommend more of
// whatever pillar/hashtag is outperforming the overall average by 20%.
func recommendations(report *models.WeeklyReport, metrics []models.ContentMetric) []string {
	var out []string
	if report.AvgEngagementRate == 0 {
		return out
	}
	pillarAvgs := map[models.Pillar]float64{}
	pillarCounts := map[models.Pillar]int{}
	for _, m := range metrics {
		pillarAvgs[m.Pillar] += m.EngagementRate
		pillarCounts[m.Pillar]++
	}
	var pillars []models.Pillar
	for p := range pillarAvgs {
		pillars = append(pillars, p)
	}
	sort.Slice(pillars, func(i, j int) bool { return pillars[i] < pillars[j] })
	for _, p := range pillars {
		avg := pillarAvgs[p] / float64(pillarCounts[p])
		if avg > 1.2*report.AvgEngagementRate {
			out = append(out, fmt.Sprintf("increase %s posts", p))
		}
	}
	if report.OutreachSummary.TotalConnections > 0 && report.OutreachSummary.ConnectionAcceptRate < 20 {
		out = append(out, "revisit connection request wording, acceptance rate is low")
	}
	return out
}
