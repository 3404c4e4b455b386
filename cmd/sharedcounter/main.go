// Package main implements the sharedcounter program.
//
// It starts an incrementer and a decrementer goroutine over one mutex-guarded
// counter, waits for both and prints the final value, which is always 0:
//
//	$ sharedcounter
//	0
//
// The program takes no arguments. Diagnostics, if any, go to stderr.
package main

import (
	"fmt"

	"github.com/kolkov/sharedcounter/internal/coordinator"
	"github.com/kolkov/sharedcounter/internal/logger"
)

func main() {
	log := logger.Get(logger.ParseLevel(false))

	res, err := coordinator.New(coordinator.WithLogger(*log)).Run()
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
	fmt.Println(res.Value)
}
