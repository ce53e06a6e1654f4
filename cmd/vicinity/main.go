// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/vicinity"
	"github.com/poiesic/vicinity/ai"
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/profile"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "vicinity",
		Usage: "Hybrid geospatial and semantic people matching",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "set-location",
				Usage:  "Store a user's location from coordinates or a place name",
				Action: setLocationCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "lat",
						Usage: "Latitude in degrees",
					},
					&cli.Float64Flag{
						Name:  "lng",
						Usage: "Longitude in degrees",
					},
					&cli.StringFlag{
						Name:  "place",
						Usage: "Place name to geocode (used when lat/lng are not given)",
					},
					&cli.StringFlag{
						Name:  "privacy",
						Usage: "Privacy level (exact, city, region, country, private)",
						Value: "exact",
					},
					&cli.StringFlag{
						Name:  "timezone",
						Usage: "IANA timezone name",
					},
				),
			},
			{
				Name:   "set-profile",
				Usage:  "Embed and store a user's profile text",
				Action: setProfileCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "Profile text to embed",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "meta",
						Usage: "Metadata entry as key=value (repeatable)",
					},
				),
			},
			{
				Name:   "query",
				Usage:  "Find users near a point, similar to a text, or both",
				Action: queryCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "requester",
						Aliases:  []string{"u"},
						Usage:    "Requesting user identifier (excluded from results)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Query mode (location_only, semantic_only, hybrid)",
						Value: "hybrid",
					},
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "Query text to embed (required unless mode is location_only)",
					},
					&cli.Float64Flag{
						Name:  "lat",
						Usage: "Query latitude (defaults to the requester's stored location)",
					},
					&cli.Float64Flag{
						Name:  "lng",
						Usage: "Query longitude (defaults to the requester's stored location)",
					},
					&cli.Float64Flag{
						Name:  "radius",
						Usage: "Search radius in kilometers (0 uses the default)",
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum similarity threshold in [0, 1]",
					},
					&cli.Float64Flag{
						Name:  "location-weight",
						Usage: "Hybrid location weight in [0, 1] (default 0.3)",
					},
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum number of results (0 uses the default)",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storeFlags are shared by every command that opens the store.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension enforced by the store",
			Value: 1536,
		},
	}
}

func openEngine(c *cli.Context) (*vicinity.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDimension(c.Int("dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := vicinity.NewEngine(c.String("db"), vicinity.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func setLocationCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewProfilePipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	privacy, err := core.ParsePrivacyLevel(c.String("privacy"))
	if err != nil {
		return fmt.Errorf("invalid privacy level %q", c.String("privacy"))
	}

	update := &profile.LocationUpdate{
		UserID:   c.String("user"),
		Place:    c.String("place"),
		Privacy:  privacy,
		Timezone: c.String("timezone"),
	}
	if c.IsSet("lat") || c.IsSet("lng") {
		update.Coordinates = &core.Coordinates{
			Longitude: c.Float64("lng"),
			Latitude:  c.Float64("lat"),
		}
	}

	outcome, err := pipeline.UpdateLocation(ctx, update)
	if err != nil {
		return err
	}

	switch {
	case outcome.RetainedPrior:
		fmt.Fprintf(os.Stderr, "geocoding failed (%v), prior coordinates retained\n", outcome.Warning)
	case outcome.Geocoded:
		fmt.Fprintf(os.Stderr, "resolved %q to %s\n", c.String("place"), outcome.DisplayName)
	}
	if outcome.Location.Resolved() {
		fmt.Printf("%s: lat=%.5f lng=%.5f privacy=%s\n",
			outcome.Location.UserID,
			outcome.Location.Coordinates.Latitude,
			outcome.Location.Coordinates.Longitude,
			outcome.Location.Privacy)
	} else {
		fmt.Printf("%s: unresolved privacy=%s\n", outcome.Location.UserID, outcome.Location.Privacy)
	}
	return nil
}

func setProfileCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewProfilePipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	metadata, err := parseMetadata(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	opts := &profile.ProfileOptions{Metadata: metadata}
	if err := pipeline.SetProfileSync(ctx, c.String("user"), c.String("text"), opts); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}

	fmt.Printf("profile stored for %s\n", c.String("user"))
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	mode, err := core.ParseQueryMode(c.String("mode"))
	if err != nil {
		return fmt.Errorf("invalid query mode %q", c.String("mode"))
	}

	req := &core.QueryRequest{
		RequesterID:   c.String("requester"),
		Mode:          mode,
		RadiusKm:      c.Float64("radius"),
		MinSimilarity: c.Float64("min-similarity"),
		MaxResults:    c.Int("max"),
	}

	if mode != core.ModeLocationOnly {
		text := c.String("text")
		if text == "" {
			return fmt.Errorf("query text is required for mode %s", mode)
		}
		vector, err := engine.Embedder().EmbedText(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to embed query text: %w", err)
		}
		req.QueryVector = vector
	}
	if c.IsSet("lat") || c.IsSet("lng") {
		req.QueryLocation = &core.Coordinates{
			Longitude: c.Float64("lng"),
			Latitude:  c.Float64("lat"),
		}
	}
	if c.IsSet("location-weight") {
		w := c.Float64("location-weight")
		req.LocationWeight = &w
	}

	results, err := searcher.Query(ctx, req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, r := range results {
		line := fmt.Sprintf("%2d. %-24s score=%.4f", i+1, r.UserID, r.CombinedScore)
		if r.DistanceKm != nil {
			line += fmt.Sprintf(" distance=%.2fkm", *r.DistanceKm)
		}
		if mode != core.ModeLocationOnly {
			line += fmt.Sprintf(" similarity=%.4f", r.Similarity)
		}
		fmt.Println(line)
	}
	return nil
}

// parseMetadata splits repeated key=value flags into a map.
func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q: want key=value", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
