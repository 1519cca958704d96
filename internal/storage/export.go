package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/sim"
)

type ExportBody struct {
	ID     uint64  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Mass   float64 `json:"mass"`
	Radius float64 `json:"radius"`
}

type ExportData struct {
	Run    RunMetadata  `json:"run"`
	Stats  []sim.Stats  `json:"stats"`
	Bodies []ExportBody `json:"bodies"`
}

// ExportJSON writes a stored run as one indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	stats, err := s.LoadStats(runID)
	if err != nil {
		return err
	}
	bodies, err := s.LoadBodies(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:    *meta,
		Stats:  stats,
		Bodies: make([]ExportBody, len(bodies)),
	}
	for i := range bodies {
		data.Bodies[i] = exportBody(&bodies[i])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func exportBody(b *dynamo.Body) ExportBody {
	return ExportBody{
		ID:     b.ID,
		X:      b.Pos.X,
		Y:      b.Pos.Y,
		VX:     b.V.X,
		VY:     b.V.Y,
		Mass:   b.Mass,
		Radius: b.Radius(),
	}
}
