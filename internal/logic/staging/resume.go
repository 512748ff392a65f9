package staging

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/cjeanneret/FlyGo/internal/mission"
)

// ErrWaypointIndexOutOfRange is returned when a resume point lies outside
// the mission.
var ErrWaypointIndexOutOfRange = errors.New("waypoint index out of range")

// Reasons reported by ValidateResumeToken.
const (
	ReasonMissionMismatch = "Mission ID mismatch"
	ReasonPlanChanged     = "Mission plan has changed"
	ReasonInvalidIndex    = "Invalid waypoint index"
)

var now = time.Now

// Validation is the outcome of checking a resume token.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// PlanFingerprint hashes the mission id, waypoint count, altitude and speed.
// It is coarse on purpose and is not an integrity check: edits that keep
// those four values, such as reordering waypoints, go unnoticed.
func PlanFingerprint(m mission.Mission) string {
	data := fmt.Sprintf("%s-%d-%s-%s",
		m.ID,
		len(m.Waypoints),
		strconv.FormatFloat(m.Config.AltitudeMeters, 'f', -1, 64),
		strconv.FormatFloat(m.Config.SpeedMetersPerSec, 'f', -1, 64),
	)
	// 31-multiplier string hash over UTF-16 code units, wrapping at 32 bits.
	var h int32
	for _, c := range utf16.Encode([]rune(data)) {
		h = h<<5 - h + int32(c)
	}
	return strconv.FormatInt(int64(h), 16)
}

// GenerateResumeToken captures a resume point for m.
func GenerateResumeToken(m mission.Mission, waypointIndex, stageIndex int) mission.ResumeToken {
	return mission.ResumeToken{
		MissionID:       m.ID,
		WaypointIndex:   waypointIndex,
		StageIndex:      stageIndex,
		Timestamp:       now().UTC(),
		PlanFingerprint: PlanFingerprint(m),
	}
}

// ValidateResumeToken checks token against the current state of m. The
// timestamp is informational and does not take part.
func ValidateResumeToken(token mission.ResumeToken, m mission.Mission) Validation {
	if token.MissionID != m.ID {
		return Validation{Reason: ReasonMissionMismatch}
	}
	if token.PlanFingerprint != PlanFingerprint(m) {
		return Validation{Reason: ReasonPlanChanged}
	}
	if token.WaypointIndex < 0 || token.WaypointIndex >= len(m.Waypoints) {
		return Validation{Reason: ReasonInvalidIndex}
	}
	return Validation{Valid: true}
}

// ResumeMission returns a copy of original starting at the token's waypoint,
// re-indexed from 0, with a derived id and name.
func ResumeMission(original mission.Mission, token mission.ResumeToken) (mission.Mission, error) {
	if token.WaypointIndex < 0 || token.WaypointIndex >= len(original.Waypoints) {
		return mission.Mission{}, fmt.Errorf("%w: %d not in [0, %d)",
			ErrWaypointIndexOutOfRange, token.WaypointIndex, len(original.Waypoints))
	}
	resumed := original
	resumed.ID = fmt.Sprintf("%s-resume-%d", original.ID, now().UnixMilli())
	resumed.Name = original.Name + " (Resume)"
	resumed.Waypoints = mission.Reindex(original.Waypoints[token.WaypointIndex:])
	resumed.Zones = slices.Clone(original.Zones)
	resumed.Stages = slices.Clone(original.Stages)
	resumed.POIs = slices.Clone(original.POIs)
	return resumed, nil
}
