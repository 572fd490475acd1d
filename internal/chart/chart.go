// Package chart renders a simulation's balance trajectory to PNG with
// gonum/plot's WriterTo.
package chart

import (
	"bytes"
	"fmt"

	"finsim/internal/engine"
	"finsim/internal/money"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// BalanceTrajectoryPNG renders the day-by-day balance of a completed
// simulation to an in-memory PNG. width and height are gonum/plot
// lengths in points (1/72 inch), not pixels.
func BalanceTrajectoryPNG(out engine.SimulationOutput, width, height int) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("balance trajectory (seed %d)", out.Seed)
	p.X.Label.Text = "day"
	p.Y.Label.Text = out.BaseCurrency

	points := make(plotter.XYs, len(out.Snapshots))
	for i, snap := range out.Snapshots {
		points[i].X = float64(snap.Day)
		points[i].Y = money.ToFloat64(snap.Balance)
	}

	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, fmt.Errorf("chart: building line: %w", err)
	}
	p.Add(line)

	if out.CollapseDay != nil {
		marker := plotter.XYs{{X: float64(*out.CollapseDay), Y: 0}}
		scatter, err := plotter.NewScatter(marker)
		if err == nil {
			p.Add(scatter)
			p.Legend.Add("collapse day", scatter)
		}
	}

	wt, err := p.WriterTo(vg.Length(width), vg.Length(height), "png")
	if err != nil {
		return nil, fmt.Errorf("chart: writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	return buf.Bytes(), nil
}
