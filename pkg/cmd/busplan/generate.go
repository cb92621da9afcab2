package main

import (
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gilchrisn/busplan/pkg/generator"
	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/parser"
)

var generateFlags = []cli.Flag{
	&cli.IntFlag{Name: "buses", Value: 2, Usage: "Number of buses"},
	&cli.IntFlag{Name: "bus-size", Value: 10, Usage: "Seats per bus"},
	&cli.IntFlag{Name: "kids", Value: 20, Usage: "Number of kids"},
	&cli.IntFlag{Name: "friends", Value: 40, Usage: "Random friendship attempts"},
	&cli.IntFlag{Name: "rowdy", Value: 3, Usage: "Number of rowdy groups"},
	&cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Value:   "./inputs",
		Usage:   "Directory receiving the <name> instance folder",
	},
	&cli.BoolFlag{
		Name:  "planted",
		Usage: "Concentrate friendships inside one planted group per bus",
	},
	&cli.Float64Flag{Name: "p-intra", Value: 0.5, Usage: "Friendship probability inside a planted group"},
	&cli.Float64Flag{Name: "p-inter", Value: 0.05, Usage: "Friendship probability across planted groups"},
}

func generate(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.Exit("usage: busplan generate <name>", 1)
	}

	params := generator.Params{
		Name:       cCtx.Args().First(),
		NumBuses:   cCtx.Int("buses"),
		BusSize:    cCtx.Int("bus-size"),
		NumKids:    cCtx.Int("kids"),
		NumFriends: cCtx.Int("friends"),
		NumRowdy:   cCtx.Int("rowdy"),
	}

	seed := time.Now().UnixNano()
	if cCtx.IsSet(SeedFlag) {
		seed = cCtx.Int64(SeedFlag)
	}
	rng := rand.New(rand.NewSource(seed))

	var inst *models.Instance
	var err error
	if cCtx.Bool("planted") {
		inst, err = generator.GeneratePlanted(params, cCtx.Float64("p-intra"), cCtx.Float64("p-inter"), rng)
	} else {
		inst, err = generator.Generate(params, rng)
	}
	if err != nil {
		return err
	}

	dir := filepath.Join(cCtx.String("out"), params.Name)
	if err := parser.WriteInstance(dir, inst); err != nil {
		return err
	}

	log.Info().
		Str("dir", dir).
		Int64("seed", seed).
		Int("kids", inst.Graph.NumNodes).
		Int("friendships", inst.Graph.NumEdges).
		Int("rowdy_groups", len(inst.RowdyGroups)).
		Msg("Instance generated")
	return nil
}
