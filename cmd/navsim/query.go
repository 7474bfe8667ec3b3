package main

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/pathfinding"
	"github.com/udisondev/navcore/internal/sim"
)

const maxSettleTicks = 1000

var (
	queryFrom   []float64
	queryTo     []float64
	queryGlobal bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find one path on the demo world and print its waypoints",
	Long: `query builds the demo world, waits until its navigation graph is complete
and runs a single search between two world positions. Without --from and --to
it walks from the hills onto the deck.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := vecFlag("from", queryFrom)
		if err != nil {
			return err
		}
		to, err := vecFlag("to", queryTo)
		if err != nil {
			return err
		}

		pf := pathfinding.New(cfg.Pathfinding.Facade(), nil)
		defer pf.UnloadAll()
		demo := sim.BuildDemo(pf, demoSize, cfg.Pathfinding.Voxel.VoxelSize, cfg.Pathfinding.Grid.CellSize)
		if err := settle(pf); err != nil {
			return err
		}
		if from == nil {
			p := demo.TerrainPoint(2, 2)
			from = &p
		}
		if to == nil {
			p := demo.DeckPoint(3, 3)
			to = &p
		}

		var path *nav.Path
		if queryGlobal {
			path, err = findGlobal(pf, *from, *to)
		} else {
			path, err = findLowLevel(pf, *from, *to)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cost %.2f, %d waypoints\n", path.Cost, path.Len())
		for i, p := range path.Primitives {
			pos := p.Position()
			fmt.Fprintf(out, "%3d  %-5s #%-6d (%.2f, %.2f, %.2f)\n", i, p.Domain(), p.ID(), pos.X(), pos.Y(), pos.Z())
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().Float64SliceVar(&queryFrom, "from", nil, "start position x,y,z")
	queryCmd.Flags().Float64SliceVar(&queryTo, "to", nil, "goal position x,y,z")
	queryCmd.Flags().BoolVar(&queryGlobal, "global", false, "plan with a smart path instead of a flat search")
}

func vecFlag(name string, v []float64) (*mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 3:
		return &mgl64.Vec3{v[0], v[1], v[2]}, nil
	default:
		return nil, fmt.Errorf("--%s needs 3 components, got %d", name, len(v))
	}
}

// settle updates pf until no chunk or link work is pending.
func settle(pf *pathfinding.Pathfinding) error {
	for range maxSettleTicks {
		pf.Update()
		if pf.Grid().Pending() == 0 && pf.Voxel().Pending() == 0 && pf.Links().Pending() == 0 {
			return nil
		}
	}
	return errors.New("navigation graph did not settle")
}

func findLowLevel(pf *pathfinding.Pathfinding, from, to mgl64.Vec3) (*nav.Path, error) {
	path, ok := pf.FindPathLowLevel(from, to)
	if !ok {
		return nil, fmt.Errorf("no path from %v to %v", from, to)
	}
	return path, nil
}

func findGlobal(pf *pathfinding.Pathfinding, from, to mgl64.Vec3) (*nav.Path, error) {
	sp, ok := pf.FindPathGlobal(from, pathfinding.Point{At: to}, pathfinding.NoOwner())
	if !ok {
		return nil, errors.New("smart path not created")
	}
	for sp.Advance() == pathfinding.StateSearching {
	}
	path, ok := sp.Path()
	if !ok {
		return nil, fmt.Errorf("smart path %s: %w", sp.State(), sp.Err())
	}
	return path, nil
}
