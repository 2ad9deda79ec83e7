// Command voronoi-png builds a diagram from random points, optionally a
// few segments, and writes the result as a PNG.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/ffurano/opencamlib/render"
	"github.com/ffurano/opencamlib/vector"
	"github.com/ffurano/opencamlib/voronoi"
)

func main() {
	var (
		n        = flag.Int("n", 24, "number of random point generators")
		segments = flag.Int("segments", 0, "number of random segment generators")
		seed     = flag.Int64("seed", 1, "random seed")
		out      = flag.String("out", "voronoi.png", "output file")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer log.Sync()
	}

	rng := rand.New(rand.NewSource(*seed))
	d := voronoi.New(
		voronoi.WithLogger(log),
		voronoi.WithCapacity(*n+*segments),
	)

	inserted := 0
	for inserted < *n {
		p := vector.Vector{X: 5 + rng.Float64()*90, Y: 5 + rng.Float64()*90}
		if _, err := d.Insert(voronoi.PointSite(p)); err != nil {
			log.Warn("skipping point", zap.Error(err))
			if _, fatal := err.(*voronoi.TopologyViolationError); fatal {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			continue
		}
		inserted++
	}
	for s := 0; s < *segments; s++ {
		a := vector.Vector{X: 10 + rng.Float64()*80, Y: 10 + rng.Float64()*80}
		b := vector.Add(a, vector.Vector{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10})
		if _, err := d.Insert(voronoi.SegmentSite(a, b)); err != nil {
			log.Warn("skipping segment", zap.Error(err))
			if _, fatal := err.(*voronoi.TopologyViolationError); fatal {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	}

	if err := d.Check(); err != nil {
		fmt.Fprintln(os.Stderr, "diagram inconsistent:", err)
		os.Exit(1)
	}

	if err := render.WritePNG(d, *out, render.DefaultOptions()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	g := d.Graph()
	fmt.Printf("%d generators, %d vertices, %d half-edges -> %s\n",
		d.NumSites(), g.NumVertices(), g.NumEdges(), *out)
}
