/*
Package strata is an adaptive audio engine: it models game music as a graph
of audio states with guarded transitions, runs that graph in real time, and
compiles it into native assets for the major audio middlewares.

It separates the graph (structure), the runtime (parameter-driven state
selection) and the audio collaborator (the mixer that actually fades
layers), so the same graph drives a live engine, an offline simulation and
six compilation targets.

# Concept

A StateGraph holds audio states (each a mix of named layers), transitions
guarded by parameter conditions, and typed parameters. The engine evaluates
the guards on a fixed tick; when one fires it emits transition and state
events to the host's mixer. Nothing in the core does I/O: persistence, HTTP
and CLI surfaces are adapters around it.

# Key Features

  - Deterministic evaluation: same snapshot, same transition, every time.
  - Hexagonal layout: the core never imports an adapter.
  - Offline simulation: replay a parameter trajectory and get a timeline.
  - Multi-target compilation: Wwise, FMOD, Unity, Unreal, Pure Data, Web Audio.

# Usage

Build a graph with the mutation API (or load one from YAML), then hand it
to the engine:

	package main

	import (
		"log"
		"time"

		"github.com/strataudio/strata"
		"github.com/strataudio/strata/pkg/graph"
	)

	func main() {
		g, err := graph.FromPreset("combat")
		if err != nil {
			log.Fatal(err)
		}

		eng, err := strata.New(g)
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Dispose()

		eng.Start()
		eng.SetParameter("threat", 80.0)
		time.Sleep(100 * time.Millisecond)

		if s, ok := eng.CurrentState(); ok {
			log.Printf("now playing: %s", s.Name)
		}
	}

The pkg/sim package runs the same graph offline, and pkg/compiler lowers it
into per-target artifacts.
*/
package strata
