package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// MaxDocumentBytes caps the size of a decoded document.
const MaxDocumentBytes = 16 << 20

// ErrUnknownVersion is returned for a schemaVersion other than 1.0 or 2.0.
var ErrUnknownVersion = errors.New("unknown schema version")

// Decode reads a mission document. A missing schemaVersion means 1.0.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxDocumentBytes {
		return Document{}, fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}

	var head struct {
		SchemaVersion Version `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}

	switch head.SchemaVersion {
	case "", V1:
		var m MissionV1
		if err := json.Unmarshal(data, &m); err != nil {
			return Document{}, fmt.Errorf("decode schema %s document: %w", V1, err)
		}
		return Document{Version: V1, V1: &m}, nil
	case V2:
		var m MissionV2
		if err := json.Unmarshal(data, &m); err != nil {
			return Document{}, fmt.Errorf("decode schema %s document: %w", V2, err)
		}
		for _, wp := range m.Waypoints {
			for _, a := range wp.Actions {
				if !a.Type.Valid() {
					return Document{}, fmt.Errorf("waypoint %s: unknown action type %q", wp.ID, a.Type)
				}
			}
		}
		return Document{Version: V2, V2: &m}, nil
	default:
		return Document{}, fmt.Errorf("%w %q", ErrUnknownVersion, head.SchemaVersion)
	}
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d Document) error {
	var v any
	switch {
	case d.Version == V2 && d.V2 != nil:
		v = d.V2
	case d.Version == V1 && d.V1 != nil:
		v = d.V1
	default:
		return fmt.Errorf("document has no %q body", d.Version)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// AsV2 returns the document as schema 2.0, migrating if needed.
func (d Document) AsV2() MissionV2 {
	if d.V2 != nil {
		return *d.V2
	}
	if d.V1 != nil {
		return MigrateV1ToV2(*d.V1)
	}
	return MissionV2{SchemaVersion: V2}
}

// ToMission converts the document into the engine's mission model.
func (d Document) ToMission() mission.Mission {
	if d.V2 != nil {
		m := d.V2
		wps := make([]mission.Waypoint, len(m.Waypoints))
		for i, wp := range m.Waypoints {
			action := mission.ActionNone
			if HasPhoto(wp.Actions) {
				action = mission.ActionPhoto
			}
			wps[i] = engineWaypoint(wp.ID, wp.Lat, wp.Lng, wp.Altitude, wp.Index, action)
		}
		out := baseMission(m.ID, m.Name, wps, m.Config.Config, m.Stats)
		out.Stages = make([]mission.Stage, len(m.Stages))
		for i, s := range m.Stages {
			out.Stages[i] = mission.Stage{
				ID:                     s.ID,
				Name:                   s.Name,
				StartIndex:             s.StartWaypointIndex,
				EndIndex:               s.EndWaypointIndex,
				EstimatedTimeSeconds:   s.EstimatedTimeSec,
				BatteryRequiredPercent: s.BatteryRequiredPercent,
			}
		}
		out.POIs = make([]mission.POI, len(m.POIs))
		for i, p := range m.POIs {
			out.POIs[i] = mission.POI{
				ID:           p.ID,
				Position:     geometry.GeoPoint{Lat: p.Lat, Lng: p.Lng},
				Altitude:     p.Altitude,
				Name:         p.Name,
				Category:     mission.POICategory(p.Category),
				RadiusMeters: p.RadiusMeters,
			}
		}
		out.CreatedAt, out.UpdatedAt = m.CreatedAt, m.UpdatedAt
		return out
	}
	if d.V1 != nil {
		m := d.V1
		wps := make([]mission.Waypoint, len(m.Waypoints))
		for i, wp := range m.Waypoints {
			wps[i] = engineWaypoint(wp.ID, wp.Lat, wp.Lng, wp.Altitude, wp.Index, ActionFromV1(wp.Action))
		}
		out := baseMission(m.ID, m.Name, wps, m.Config, m.Stats)
		out.Zones = make([]mission.Zone, len(m.Zones))
		for i, z := range m.Zones {
			out.Zones[i] = mission.Zone{ID: z.ID, Points: append([]geometry.GeoPoint(nil), z.Points...), Kind: z.Type}
		}
		out.CreatedAt, out.UpdatedAt = m.CreatedAt, m.UpdatedAt
		return out
	}
	return mission.Mission{}
}

func engineWaypoint(id string, lat, lng, alt float64, index int, action mission.Action) mission.Waypoint {
	return mission.Waypoint{
		ID:       id,
		Position: geometry.GeoPoint{Lat: lat, Lng: lng},
		Altitude: alt,
		Index:    index,
		Action:   action,
	}
}

func baseMission(id, name string, wps []mission.Waypoint, c Config, s Stats) mission.Mission {
	return mission.Mission{
		ID:        id,
		Name:      name,
		Waypoints: wps,
		Config: mission.FlightConfig{
			AltitudeMeters:       c.Altitude,
			SpeedMetersPerSec:    c.Speed,
			OverlapPercent:       c.Overlap,
			GridDirectionDegrees: c.Direction,
			TravelAxis:           mission.TravelAxis(c.TravelAxis),
			CapturePhotos:        c.PhotoCapture,
			DroneModel:           c.DroneModel,
		},
		Stats: mission.Stats{
			WaypointCount:        s.WaypointCount,
			AreaSquareMeters:     s.AreaSqm,
			EstimatedTimeSeconds: s.EstimatedTimeSec,
			TotalDistanceMeters:  s.TotalDistanceM,
		},
	}
}

// FromMission builds a schema 1.0 document from an engine mission.
func FromMission(m mission.Mission) Document {
	wps := make([]WaypointV1, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		wps[i] = WaypointV1{
			ID:       wp.ID,
			Lat:      wp.Position.Lat,
			Lng:      wp.Position.Lng,
			Altitude: wp.Altitude,
			Index:    wp.Index,
			Action:   string(wp.Action),
		}
	}
	zones := make([]Zone, len(m.Zones))
	for i, z := range m.Zones {
		zones[i] = Zone{ID: z.ID, Points: append([]geometry.GeoPoint(nil), z.Points...), Type: z.Kind}
	}
	return Document{
		Version: V1,
		V1: &MissionV1{
			ID:        m.ID,
			Name:      m.Name,
			Zones:     zones,
			Waypoints: wps,
			Config: Config{
				Altitude:     m.Config.AltitudeMeters,
				Speed:        m.Config.SpeedMetersPerSec,
				Overlap:      m.Config.OverlapPercent,
				Direction:    m.Config.GridDirectionDegrees,
				TravelAxis:   string(m.Config.TravelAxis),
				PhotoCapture: m.Config.CapturePhotos,
				DroneModel:   m.Config.DroneModel,
			},
			Stats: Stats{
				WaypointCount:    m.Stats.WaypointCount,
				AreaSqm:          m.Stats.AreaSquareMeters,
				EstimatedTimeSec: m.Stats.EstimatedTimeSeconds,
				TotalDistanceM:   m.Stats.TotalDistanceMeters,
			},
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}
