package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/vicinity"
	"github.com/poiesic/vicinity/ai"
	"github.com/poiesic/vicinity/ai/mock"
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/geocode"
	"github.com/poiesic/vicinity/profile"
)

// seedUsers are built-in fixtures: user|place|privacy|timezone|profile text.
var seedUsers = []string{
	"ada|london|exact|Europe/London|Compiler engineer into analytical engines, symbolic math and long walks.",
	"grace|new york|exact|America/New_York|Navy veteran building compilers and chasing literal bugs out of relays.",
	"linus|helsinki|city|Europe/Helsinki|Kernel hacker, scuba diver, strong opinions about version control.",
	"barbara|boston|exact|America/New_York|Systems researcher into modular programming and secure operating systems.",
	"edsger|austin|region|America/Chicago|Structured programming purist who writes everything longhand first.",
	"donald|palo alto|exact|America/Los_Angeles|Typesetting perfectionist, organist, collector of algorithm analyses.",
	"margaret|boston|exact|America/New_York|Flight software lead who takes error handling very seriously.",
	"ken|murray hill|exact|America/New_York|Likes small tools, chess endgames and flying vintage planes.",
	"dennis|murray hill|exact|America/New_York|Language designer, quiet, fond of terse prose and terser code.",
	"radia|boston|city|America/New_York|Network protocol designer and occasional poet about spanning trees.",
	"hedy|vienna|country|Europe/Vienna|Inventor interested in frequency hopping and film.",
	"alan|manchester|private|Europe/London|Mathematician into morphogenesis, long-distance running and puzzles.",
}

// seedPlaces backs the seeder's geocoder so no network calls are made.
var seedPlaces = map[string]core.Coordinates{
	"london":      {Longitude: -0.1276, Latitude: 51.5072},
	"new york":    {Longitude: -74.0060, Latitude: 40.7128},
	"helsinki":    {Longitude: 24.9384, Latitude: 60.1699},
	"boston":      {Longitude: -71.0589, Latitude: 42.3601},
	"austin":      {Longitude: -97.7431, Latitude: 30.2672},
	"palo alto":   {Longitude: -122.1430, Latitude: 37.4419},
	"murray hill": {Longitude: -74.4021, Latitude: 40.6843},
	"vienna":      {Longitude: 16.3738, Latitude: 48.2082},
	"manchester":  {Longitude: -2.2426, Latitude: 53.4808},
}

var (
	seedFileName = flag.String("src", "", "file of seed data")
	dbPath       = flag.String("db", "./vicinity_db", "database directory")
	dimension    = flag.Int("dimension", 1536, "embedding dimension")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// seedUser parses one pipe-separated fixture line and stores both halves of
// the user record.
func seedUser(ctx context.Context, pipeline *profile.Pipeline, line string) error {
	fields := strings.SplitN(line, "|", 5)
	if len(fields) != 5 {
		slog.Warn("skipping malformed seed line", "line", line)
		return nil
	}
	userID, place, privacyName, timezone, profileText := fields[0], fields[1], fields[2], fields[3], fields[4]

	privacy, err := core.ParsePrivacyLevel(privacyName)
	if err != nil {
		slog.Warn("skipping seed line with bad privacy level", "user_id", userID, "privacy", privacyName)
		return nil
	}

	outcome, err := pipeline.UpdateLocation(ctx, &profile.LocationUpdate{
		UserID:   userID,
		Place:    place,
		Privacy:  privacy,
		Timezone: timezone,
	})
	if err != nil {
		return err
	}
	if outcome.RetainedPrior {
		slog.Warn("seed place did not resolve", "user_id", userID, "place", place)
	}

	return pipeline.SetProfileSync(ctx, userID, profileText, nil)
}

func main() {
	engine, err := vicinity.NewEngine(*dbPath,
		vicinity.WithAIConfig(ai.NewConfig(ai.WithDimension(*dimension))),
		vicinity.WithEmbedder(mock.NewMockEmbedder(*dimension)),
		vicinity.WithGeocoder(geocode.NewStaticResolver(seedPlaces)))
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	pipeline, err := engine.NewProfilePipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(seedUsers)
	}

	count := 0
	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := seedUser(ctx, pipeline, line); err != nil {
			panic(err)
		}
		count++
	}
	slog.Info("seeding complete", "users", count, "db", *dbPath)
}
