package outreach

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"time"

	"github.com/outreachforge/prospector/pkg/models"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
var timesOfDay = []string{"09:00", "11:30", "14:00", "16:00"}

// CadenceTargets bounds one week's send volume.
type CadenceTargets struct {
	TargetConnectionRequests int
	TargetFollowups          int
}

// slotSeed derives a deterministic index stream from (user_id, week_start,
// prospect_id, step_index), so slot assignment never depends on map
// iteration order or wall-clock jitter.
func slotSeed(userID string, weekStart time.Time, prospectID string, stepIndex int) uint64 {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(weekStart.Format(time.RFC3339)))
	h.Write([]byte(prospectID))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(stepIndex))
	h.Write(buf[:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// BuildCadence produces the deterministic weekly cadence entries for a set
// of (prospect, sequence) pairs: slot assignment is a pure function of
// (user_id, week_start, prospects_set), so the same inputs always produce
// the same schedule.
func BuildCadence(userID string, weekStart time.Time, sequences []models.OutreachSequence, targets CadenceTargets) []models.CadenceEntry {
	type pending struct {
		sequence  models.OutreachSequence
		stepIndex int
		step      models.SequenceStep
	}

	var connectionSlots []pending
	var followupSlots []pending
	for _, seq := range sequences {
		for i, step := range seq.Steps {
			if i < seq.CurrentStep {
				continue
			}
			item := pending{sequence: seq, stepIndex: i, step: step}
			if step.Name == "connection_request" {
				connectionSlots = append(connectionSlots, item)
			} else {
				followupSlots = append(followupSlots, item)
			}
		}
	}

	sortPending := func(items []pending) {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].sequence.ProspectID < items[j].sequence.ProspectID
		})
	}
	sortPending(connectionSlots)
	sortPending(followupSlots)

	if targets.TargetConnectionRequests > 0 && len(connectionSlots) > targets.TargetConnectionRequests {
		connectionSlots = connectionSlots[:targets.TargetConnectionRequests]
	}
	if targets.TargetFollowups > 0 && len(followupSlots) > targets.TargetFollowups {
		followupSlots = followupSlots[:targets.TargetFollowups]
	}

	entries := make([]models.CadenceEntry, 0, len(connectionSlots)+len(followupSlots))
	assign := func(items []pending, outreachType string) {
		for _, item := range items {
			seed := slotSeed(userID, weekStart, item.sequence.ProspectID, item.stepIndex)
			day := weekdays[int(seed%uint64(len(weekdays)))]
			tod := timesOfDay[int((seed/uint64(len(weekdays)))%uint64(len(timesOfDay)))]
			variant := 0
			if len(item.step.Variants) > 0 {
				variant = int(seed % uint64(len(item.step.Variants)))
			}
			entries = append(entries, models.CadenceEntry{
				Day:          day,
				TimeOfDay:    tod,
				ProspectID:   item.sequence.ProspectID,
				OutreachType: outreachType,
				StepIndex:    item.stepIndex,
				VariantIndex: variant,
			})
		}
	}
	assign(connectionSlots, "connection_request")
	assign(followupSlots, "followup")

	return entries
}
