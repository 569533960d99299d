package outreach_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/outreach"
	"github.com/outreachforge/prospector/pkg/storage"
)

func prospect(id string, score float64) models.DiscoveredProspect {
	return models.DiscoveredProspect{
		ProspectID:     id,
		Name:           "Prospect " + id,
		JobTitle:       "School Counselor",
		Organization:   "Example School",
		InfluenceScore: score,
	}
}

func TestAssignSegments_FitsTargetRatios(t *testing.T) {
	var prospects []models.DiscoveredProspect
	for i := 0; i < 100; i++ {
		prospects = append(prospects, prospect(string(rune('a'+i%26))+string(rune('0'+i/26)), float64(i)))
	}
	assignment := outreach.AssignSegments(prospects, models.DefaultSegmentRatios)
	require.Len(t, assignment, 100)

	counts := map[models.Segment]int{}
	for _, seg := range assignment {
		counts[seg]++
	}
	assert.InDelta(t, 50, counts[models.SegmentReferralNetwork], 5)
	assert.InDelta(t, 50, counts[models.SegmentThoughtLeadership], 5)
	assert.InDelta(t, 5, counts[models.SegmentStealthFounder], 5)
}

func TestAssignSegments_Deterministic(t *testing.T) {
	var prospects []models.DiscoveredProspect
	for i := 0; i < 20; i++ {
		prospects = append(prospects, prospect(string(rune('a'+i)), float64(i)))
	}
	a := outreach.AssignSegments(prospects, models.DefaultSegmentRatios)
	b := outreach.AssignSegments(prospects, models.DefaultSegmentRatios)
	assert.Equal(t, a, b)
}

func TestPrioritize_FiltersAndSortsByScore(t *testing.T) {
	prospects := []models.DiscoveredProspect{
		{ProspectID: "p1", Scores: models.ProspectScores{Fit: 1, ReferralCapacity: 1, SignalStrength: 1}},
		{ProspectID: "p2", Scores: models.ProspectScores{Fit: 0, ReferralCapacity: 0, SignalStrength: 0}},
		{ProspectID: "p3", Scores: models.ProspectScores{Fit: 0.5, ReferralCapacity: 0.5, SignalStrength: 0.5}},
	}
	out := outreach.Prioritize(prospects, 0.1)
	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].Prospect.ProspectID)
	assert.Equal(t, "p3", out[1].Prospect.ProspectID)
}

func TestGenerate_BindsPlaceholdersAndStepNames(t *testing.T) {
	p := prospect("p1", 80)
	p.Name = "Jane Smith"
	seq := outreach.Generate(clock.Real{}, p, models.Sequence5Step, models.SegmentReferralNetwork, "AI in schools")

	require.Len(t, seq.Steps, 5) // connection_request, initial_dm, followup_1..3
	assert.Equal(t, "connection_request", seq.Steps[0].Name)
	assert.Equal(t, "followup_3", seq.Steps[4].Name)
	for _, step := range seq.Steps {
		require.NotEmpty(t, step.Variants)
		for _, v := range step.Variants {
			assert.Contains(t, v.Text, "Jane")
			assert.NotContains(t, v.Text, "{name}")
		}
	}
}

func TestBuildCadence_DeterministicGivenSameInputs(t *testing.T) {
	week := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	seqs := []models.OutreachSequence{
		outreach.Generate(clock.Real{}, prospect("p1", 10), models.Sequence3Step, models.SegmentReferralNetwork, "x"),
		outreach.Generate(clock.Real{}, prospect("p2", 20), models.Sequence3Step, models.SegmentReferralNetwork, "x"),
	}
	targets := outreach.CadenceTargets{TargetConnectionRequests: 10, TargetFollowups: 10}

	a := outreach.BuildCadence("user-1", week, seqs, targets)
	b := outreach.BuildCadence("user-1", week, seqs, targets)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

type fakeLearning struct {
	calls int
	err   error
}

func (f *fakeLearning) RecordEngagement(ctx context.Context, userID string, metric models.ProspectMetric) error {
	f.calls++
	return f.err
}

func TestTrackEngagement_AdvancesStepOnSent(t *testing.T) {
	store := storage.NewMemoryStore()
	seq := outreach.Generate(clock.Real{}, prospect("p1", 10), models.Sequence3Step, models.SegmentReferralNetwork, "x")
	require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionOutreachSequences, "user-1", seq.SequenceID, &seq))

	learning := &fakeLearning{}
	tracker := &outreach.Tracker{Store: store, Learning: learning, Clock: clock.Real{}}

	_, err := tracker.TrackEngagement(context.Background(), "user-1", outreach.EngagementUpdate{
		ProspectID:   "p1",
		SequenceID:   seq.SequenceID,
		OutreachType: "connection_request",
		Status:       models.StepSent,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, learning.calls)

	var stored models.OutreachSequence
	require.NoError(t, storage.GetJSON(context.Background(), store, storage.CollectionOutreachSequences, "user-1", seq.SequenceID, &stored))
	assert.Equal(t, 1, stored.CurrentStep)
}

func TestTrackEngagement_EngagementCommitsEvenWhenLearningFails(t *testing.T) {
	store := storage.NewMemoryStore()
	learning := &fakeLearning{err: assertErr("down")}
	tracker := &outreach.Tracker{Store: store, Learning: learning, Clock: clock.Real{}}

	metric, err := tracker.TrackEngagement(context.Background(), "user-1", outreach.EngagementUpdate{
		ProspectID:   "p1",
		OutreachType: "dm",
		Status:       models.StepSent,
		MessageID:    "m1",
	})
	require.Error(t, err)
	require.NotNil(t, metric)

	var stored models.ProspectMetric
	require.NoError(t, storage.GetJSON(context.Background(), store, storage.CollectionProspectMetrics, "user-1", "p1", &stored))
	assert.Len(t, stored.DMsSent, 1)
}

func TestTrackEngagement_IdempotentPerMessageAndStatus(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := &outreach.Tracker{Store: store, Clock: clock.Real{}}

	update := outreach.EngagementUpdate{ProspectID: "p1", OutreachType: "dm", Status: models.StepSent, MessageID: "m1"}
	_, err := tracker.TrackEngagement(context.Background(), "user-1", update)
	require.NoError(t, err)
	_, err = tracker.TrackEngagement(context.Background(), "user-1", update)
	require.NoError(t, err)

	var stored models.ProspectMetric
	require.NoError(t, storage.GetJSON(context.Background(), store, storage.CollectionProspectMetrics, "user-1", "p1", &stored))
	assert.Len(t, stored.DMsSent, 1)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
