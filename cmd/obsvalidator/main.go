// Package main implements the obsvalidator CLI tool. It validates
// observation JSON files against a concept dictionary and can also serve
// the validation API over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	ov "github.com/openobs/validator"
	"github.com/openobs/validator/api"
	"github.com/openobs/validator/engine"
	"github.com/openobs/validator/model"
	"github.com/openobs/validator/registry"
	"github.com/openobs/validator/service"
	"github.com/openobs/validator/worker"
)

const (
	version = "0.1.0"
	usage   = `obsvalidator - Clinical Observation Validator

Usage:
  obsvalidator [options] <file>...
  obsvalidator [options] -serve :8080

Examples:
  obsvalidator -concepts concepts.json obs.json
  obsvalidator -concepts concepts.json -output json obs1.json obs2.json
  obsvalidator -db -registry https://dictionary.example.org obs.json
  obsvalidator -concepts concepts.json -serve :8080

Options:
`
)

// Config holds CLI configuration.
type Config struct {
	ConceptsFile string
	RegistryURL  string
	UseDB        bool
	Output       string
	Serve        string
	Workers      int
	Verbose      bool
	ShowVersion  bool
	Files        []string
}

// fileOutput is the JSON output structure for one validated file.
type fileOutput struct {
	File     string     `json:"file"`
	Valid    bool       `json:"valid"`
	Issues   []ov.Issue `json:"issues,omitempty"`
	Error    string     `json:"error,omitempty"`
	Duration string     `json:"duration"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("obsvalidator v%s\n", version)
		os.Exit(0)
	}

	log := newLogger(config.Verbose)

	if config.Serve == "" && len(config.Files) == 0 {
		flag.Usage()
		os.Exit(0)
	}

	os.Exit(run(config, log))
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ConceptsFile, "concepts", "", "Concept dictionary JSON file with numeric ranges")
	flag.StringVar(&config.RegistryURL, "registry", "", "Remote concept dictionary base URL (fallback after local sources)")
	flag.BoolVar(&config.UseDB, "db", false, "Resolve numeric ranges from Postgres (DATABASE_URL, .env honored)")
	flag.StringVar(&config.Output, "output", "text", "Output format: text, json")
	flag.StringVar(&config.Serve, "serve", "", "Serve the validation API on this address instead of validating files")
	flag.IntVar(&config.Workers, "workers", 0, "Worker count for multi-file validation (0 = NumCPU)")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&config.ShowVersion, "v", false, "Show version")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	flag.Parse()
	config.Files = flag.Args()
	return config
}

func newLogger(verbose bool) zerolog.Logger {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })).
		With().Timestamp().Logger()
	if !verbose {
		log = log.Level(zerolog.InfoLevel)
	}
	return log
}

func run(config *Config, log zerolog.Logger) int {
	v, cleanup, err := buildValidator(config, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure validator")
		return 2
	}
	defer cleanup()

	if config.Serve != "" {
		return serve(config.Serve, v, log)
	}

	return validateFiles(config, v, log)
}

// buildValidator assembles the resolver stack from the configured sources:
// local dictionary file, then database, then remote registry. The engine
// puts its range cache in front of the chain.
func buildValidator(config *Config, log zerolog.Logger) (*engine.Validator, func(), error) {
	cleanup := func() {}
	chain := service.NewRangeChain()

	concepts := service.NewInMemoryConceptService()
	// The default handler treats the complex payload itself as the value.
	concepts.RegisterHandler("text", service.HandlerFunc(
		func(_ context.Context, obs *model.Observation) (any, error) {
			if obs.ValueComplex == nil || *obs.ValueComplex == "" {
				return nil, nil
			}
			return *obs.ValueComplex, nil
		}))

	if config.ConceptsFile != "" {
		if err := loadDictionary(config.ConceptsFile, concepts); err != nil {
			return nil, cleanup, fmt.Errorf("load concept dictionary: %w", err)
		}
		log.Debug().Str("file", config.ConceptsFile).Msg("Loaded concept dictionary")
	}
	chain.Add(concepts)

	if config.UseDB {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found")
		}
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, cleanup, fmt.Errorf("-db requires DATABASE_URL")
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect to dictionary database: %w", err)
		}
		cleanup = func() { db.Close() }
		chain.Add(service.NewSQLRangeResolver(db, log))
	}

	if config.RegistryURL != "" {
		chain.Add(registry.NewClient(strings.TrimRight(config.RegistryURL, "/")))
	}

	opts := []ov.Option{}
	if config.Workers > 0 {
		opts = append(opts, ov.WithWorkerCount(config.Workers))
	}

	return engine.New(chain, concepts, opts...), cleanup, nil
}

// dictionaryFile is the on-disk dictionary format: numeric ranges keyed by
// concept id.
type dictionaryFile struct {
	Ranges []struct {
		ConceptID   int      `json:"conceptId"`
		Precise     bool     `json:"precise"`
		LowAbsolute *float64 `json:"lowAbsolute"`
		HiAbsolute  *float64 `json:"hiAbsolute"`
	} `json:"ranges"`
}

func loadDictionary(path string, concepts *service.InMemoryConceptService) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var dict dictionaryFile
	if err := json.Unmarshal(data, &dict); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, r := range dict.Ranges {
		nr := service.NumericRange{Precise: r.Precise}
		if r.LowAbsolute != nil {
			d := decimal.NewFromFloat(*r.LowAbsolute)
			nr.LowAbsolute = &d
		}
		if r.HiAbsolute != nil {
			d := decimal.NewFromFloat(*r.HiAbsolute)
			nr.HiAbsolute = &d
		}
		concepts.SetNumericRange(r.ConceptID, nr)
	}

	return nil
}

func serve(addr string, v *engine.Validator, log zerolog.Logger) int {
	server := api.NewServer(v, log)
	log.Info().Str("addr", addr).Msg("Serving validation API")
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		return 1
	}
	return 0
}

func validateFiles(config *Config, v *engine.Validator, log zerolog.Logger) int {
	pool := worker.NewPool(v, config.Workers)

	for _, file := range config.Files {
		obs, err := loadObservation(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to load observation")
			pool.Close()
			return 2
		}
		pool.Submit(worker.Job{ID: file, Observation: obs})
	}

	batch := pool.CloseAndWait()

	outputs := make(map[string]fileOutput, len(batch.Results))
	for _, r := range batch.Results {
		out := fileOutput{
			File:     r.ID,
			Duration: time.Duration(r.Duration).String(),
		}
		switch {
		case r.Error != nil:
			out.Error = r.Error.Error()
		default:
			out.Valid = !r.Result.HasErrors()
			out.Issues = append([]ov.Issue(nil), r.Result.Issues...)
			r.Result.Release()
		}
		outputs[r.ID] = out
	}

	exitCode := 0
	for _, file := range config.Files {
		out := outputs[file]
		if out.Error != "" {
			exitCode = 2
		} else if !out.Valid {
			exitCode = 1
		}
		printOutput(config.Output, out)
	}

	return exitCode
}

func loadObservation(path string) (*model.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var obs model.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &obs, nil
}

func printOutput(format string, out fileOutput) {
	if format == "json" {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	switch {
	case out.Error != "":
		fmt.Printf("%s: FATAL %s\n", out.File, out.Error)
	case out.Valid:
		fmt.Printf("%s: valid (%s)\n", out.File, out.Duration)
	default:
		fmt.Printf("%s: %d issue(s)\n", out.File, len(out.Issues))
		for _, issue := range out.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
}
