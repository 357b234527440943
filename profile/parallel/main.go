// Profiling:
// go build ./profile/parallel
// go tool pprof -http=":8000" -nodefraction=0.001 ./parallel cpu.pprof

package main

import (
	"os"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/srinathupadhyayula/athivegam/ecs"
	"github.com/srinathupadhyayula/athivegam/jobs"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rounds := 50
	iters := 2000
	entities := 100000

	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(logger, rounds, iters, entities)
	p.Stop()
}

func run(logger zerolog.Logger, rounds, iters, numEntities int) {
	sched := jobs.NewScheduler(jobs.WithLogger(logger))
	defer sched.Shutdown()

	for range rounds {
		world := ecs.NewWorld()
		for i := 0; i < numEntities; i++ {
			e, err := world.CreateEntity()
			if err != nil {
				logger.Fatal().Err(err).Msg("create entity")
			}
			if err := ecs.Add(world, e, comp1{V: int64(i)}); err != nil {
				logger.Fatal().Err(err).Msg("add comp1")
			}
			if err := ecs.Add(world, e, comp2{V: 1, W: 1}); err != nil {
				logger.Fatal().Err(err).Msg("add comp2")
			}
		}

		view := ecs.MakeParallel2(ecs.Query2[comp1, comp2](world), sched)
		for range iters {
			view.ExecuteChunks(func(_ int, as []comp1, bs []comp2) {
				for i := range as {
					as[i].V += bs[i].V
					as[i].W += bs[i].W
				}
			})
		}
	}
}
