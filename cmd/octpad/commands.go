package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/octpad/internal/backend/cpu"
	"github.com/born-ml/octpad/internal/backend/webgpu"
	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/op"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/tensor"
)

type cloudFlags struct {
	depth  int
	points int
	seed   int64
}

func (f *cloudFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.depth, "depth", 5, "Octree depth")
	cmd.Flags().IntVar(&f.points, "points", 2000, "Number of random points")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Random seed")
}

// build fills a unit cube with uniformly random points and builds the octree.
func (f *cloudFlags) build() (*octree.Octree, error) {
	b, err := octree.NewBuilder(f.depth, r3.Vector{}, 1)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(f.seed)) //nolint:gosec // G404: sample data only
	for i := 0; i < f.points; i++ {
		p := r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		if err := b.Add(p); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func newShapeCmd(root *rootFlags) *cobra.Command {
	flags := &cloudFlags{}
	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Print node and non-empty node counts per depth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(root.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			tree, err := flags.build()
			if err != nil {
				return err
			}
			logger.Debug("octree built", zap.Int("depth", tree.Depth()), zap.Int("points", flags.points))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s %10s %10s\n", "depth", "nodes", "non-empty")
			for d := 0; d <= tree.Depth(); d++ {
				n, err := tree.NodeCount(d)
				if err != nil {
					return err
				}
				m, err := tree.NonEmptyNodeCount(d)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-6d %10d %10d\n", d, n, m)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

type roundtripFlags struct {
	cloudFlags
	channels int
	engine   string
}

func newRoundtripCmd(root *rootFlags) *cobra.Command {
	flags := &roundtripFlags{}
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Pad then depad random features and verify the result",
		Long: `roundtrip builds an octree from random points, fills the compact feature
tensor of the deepest level with random values, pads it, checks that every
empty node is zero, depads it and checks that the original features come back.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(root.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runRoundtrip(cmd.Context(), cmd, flags, logger)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&flags.channels, "channels", 4, "Feature channels")
	cmd.Flags().StringVar(&flags.engine, "engine", "cpu", "Execution engine (cpu, webgpu)")
	return cmd
}

func newEngine(name string) (pad.Engine, func(), error) {
	switch name {
	case "cpu":
		return cpu.New(), func() {}, nil
	case "webgpu":
		b, err := webgpu.New()
		if err != nil {
			return nil, nil, err
		}
		return b, b.Release, nil
	default:
		return nil, nil, errors.Errorf("unknown engine %q", name)
	}
}

func runRoundtrip(ctx context.Context, cmd *cobra.Command, flags *roundtripFlags, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	engine, release, err := newEngine(flags.engine)
	if err != nil {
		return err
	}
	defer release()

	tree, err := flags.build()
	if err != nil {
		return err
	}
	depth := tree.Depth()
	children, err := tree.Children(depth)
	if err != nil {
		return err
	}

	registry := op.NewRegistry()
	attrs := map[string]any{"depth": depth}
	padK, err := registry.New(op.OctreePad, attrs, op.WithEngine(engine), op.WithLogger(logger))
	if err != nil {
		return err
	}
	depadK, err := registry.New(op.OctreeDepad, attrs, op.WithEngine(engine), op.WithLogger(logger))
	if err != nil {
		return err
	}

	compact, err := tensor.Zeros(flags.channels, children.NonEmpty(), tensor.CPU)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(flags.seed + 1)) //nolint:gosec // G404: sample data only
	for i := range compact.Data() {
		compact.Data()[i] = rng.Float32() + 1
	}

	start := time.Now()
	dense, err := padK.Compute(ctx, tree, compact)
	if err != nil {
		return err
	}
	padTime := time.Since(start)

	for i := range children {
		if _, ok := children.Rank(i); ok {
			continue
		}
		for c := 0; c < dense.Channels(); c++ {
			if v := dense.At(c, i); v != 0 {
				return errors.Errorf("empty node %d channel %d holds %v after pad", i, c, v)
			}
		}
	}

	start = time.Now()
	back, err := depadK.Compute(ctx, tree, dense)
	if err != nil {
		return err
	}
	depadTime := time.Since(start)

	for i, v := range compact.Data() {
		if back.Data()[i] != v {
			return errors.Errorf("depad(pad(x)) differs from x at element %d: %v != %v", i, back.Data()[i], v)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "engine:    %s\n", engine.Name())
	fmt.Fprintf(out, "depth:     %d\n", depth)
	fmt.Fprintf(out, "nodes:     %d\n", dense.Nodes())
	fmt.Fprintf(out, "non-empty: %d\n", compact.Nodes())
	fmt.Fprintf(out, "channels:  %d\n", flags.channels)
	fmt.Fprintf(out, "pad:       %v\n", padTime)
	fmt.Fprintf(out, "depad:     %v\n", depadTime)
	fmt.Fprintln(out, "ok")
	return nil
}
