// Package router turns board connections into drawable connector curves.
package router

import (
	log "github.com/sirupsen/logrus"

	"boardr/internal/board"
	"boardr/internal/geom"
)

// Path is one routed connector in world coordinates.
type Path struct {
	ConnectionID string
	FromID       string
	ToID         string
	Color        string
	Curve        geom.Cubic
}

// Route computes a curve for every connection whose endpoints both exist.
// Connections with a missing endpoint are skipped.
func Route(doc *board.Document) []Path {
	paths := make([]Path, 0, len(doc.Connections))
	for _, c := range doc.Connections {
		from, to := doc.Item(c.FromID), doc.Item(c.ToID)
		if from == nil || to == nil {
			log.WithField("connection", c.ID).Debug("skipping connection with missing endpoint")
			continue
		}
		paths = append(paths, Path{
			ConnectionID: c.ID,
			FromID:       c.FromID,
			ToID:         c.ToID,
			Color:        c.Color,
			Curve:        geom.ConnectorCurve(from.Rect(), to.Rect()),
		})
	}
	return paths
}

// Preview is the provisional curve drawn while a connect drag is active.
func Preview(doc *board.Document, fromID string, cursor geom.Point) (geom.Cubic, bool) {
	from := doc.Item(fromID)
	if from == nil {
		return geom.Cubic{}, false
	}
	return geom.PreviewCurve(from.Rect(), cursor), true
}

// Screen maps a world-space curve through the viewport.
func Screen(vp geom.Viewport, c geom.Cubic) geom.Cubic {
	return geom.Cubic{
		P0: vp.WorldToScreen(c.P0),
		C1: vp.WorldToScreen(c.C1),
		C2: vp.WorldToScreen(c.C2),
		P3: vp.WorldToScreen(c.P3),
	}
}
