// Command simulate runs the deterministic financial trajectory engine
// against a JSON SimulationInput file (or stdin) and prints the
// resulting SimulationOutput, optionally alongside a rendered balance
// trajectory PNG.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"finsim/internal/chart"
	"finsim/internal/engine"
	"finsim/internal/httpserver"
)

func main() {
	inputPath := flag.String("input", "", "path to a SimulationInput JSON file (defaults to stdin)")
	chartPath := flag.String("chart", "", "optional path to write a balance trajectory PNG")
	chartWidth := flag.Int("chart-width", 800, "chart width in points (1/72 inch)")
	chartHeight := flag.Int("chart-height", 400, "chart height in points (1/72 inch)")
	flag.Parse()

	raw, err := readInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}

	input, err := httpserver.DecodeSimulationInput(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}

	out, err := engine.Simulate(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: engine error: %v\n", err)
		os.Exit(1)
	}

	encoded, err := httpserver.EncodeSimulationOutput(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))

	if *chartPath != "" {
		if err := writeChart(out, *chartPath, *chartWidth, *chartHeight); err != nil {
			fmt.Fprintf(os.Stderr, "simulate: chart: %v\n", err)
			os.Exit(1)
		}
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeChart(out engine.SimulationOutput, path string, width, height int) error {
	png, err := chart.BalanceTrajectoryPNG(out, width, height)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0644)
}
