package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full configuration surface of the lead scraper: the run
// definition (query template, start location, count), rate-limit bounds,
// search tuning, output locations and the storage backend selection.
//
// All values come from the environment (prefix LEADGEN_, database settings
// under DB_), optionally seeded from a .env file.
type Config struct {
	Env         string          // Env is the current environment: local, dev, prod.
	HealthPort  int             // HealthPort is the monitoring server port.
	APIKey      string          // APIKey for the Google Places and Geocoding APIs.
	GeoProvider string          // GeoProvider is the primary geocoding provider (google, nominatim).
	Run         RunConfig       // Run describes what to scrape.
	RateLimit   RateLimitConfig // RateLimit bounds outbound places API calls.
	Search      SearchConfig    // Search tunes per-location searches.
	Output      OutputConfig    // Output holds file locations.
	Storage     string          // Storage backend: csv or postgres.
	Database    PostgresConfig  // Database holds the postgres configuration when Storage is postgres.
}

// RunConfig describes a scraping run.
type RunConfig struct {
	QueryTemplate string // QueryTemplate contains a {} placeholder replaced by each location.
	StartLocation string // StartLocation is the starting postal code or area name.
	Count         int    // Count is the number of locations to generate and search.
	Detailed      bool   // Detailed enables per-place detail enrichment.
	Parallel      bool   // Parallel processes locations with a worker pool instead of sequentially.
	Workers       int    // Workers is the pool size when Parallel is set.
	FlushEvery    int    // FlushEvery is the number of locations between storage flushes.
}

// RateLimitConfig bounds the shared outbound request budget.
type RateLimitConfig struct {
	MaxPerMinute int           // Calls allowed per rolling minute.
	MinDelay     time.Duration // Lower bound of the per-request jitter.
	MaxDelay     time.Duration // Upper bound of the per-request jitter.
}

// SearchConfig tunes the multi-point search strategy.
type SearchConfig struct {
	DefaultRadius      int      // Bias radius in meters for a single-point search.
	MaxResultsPerPoint int      // Result cap requested from the provider per point.
	ResultCap          int      // Accepted-result cap for a normal location.
	LargeAreaCap       int      // Accepted-result cap for a large-area location.
	ForceLargeArea     bool     // ForceLargeArea treats every location as a large area.
	LargeAreaKeywords  []string // Non-authoritative keyword hints for large-area detection.
}

// OutputConfig holds output file locations.
type OutputConfig struct {
	Dir      string // Directory for tabular output files.
	CSVName  string // CSV file name inside Dir.
	XLSXName string // XLSX file name inside Dir.
	LogFile  string // Rotating log file path, empty disables the file sink.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// defaultLargeAreaKeywords mirrors the major-city list the scraper historically
// matched against. It is a convenience hint only; callers decide large-area mode.
var defaultLargeAreaKeywords = []string{
	"toronto", "vancouver", "montreal", "calgary", "ottawa", "edmonton", "winnipeg",
	"new york", "los angeles", "chicago", "london", "manchester", "birmingham",
}

// MustLoad loads the configuration from the environment and panics on
// malformed values. Semantic validation is done separately by Validate so
// that callers can surface those errors without a stack trace.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.SetEnvPrefix("LEADGEN")
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	setDefaults(vpr)

	minDelay, err := time.ParseDuration(vpr.GetString("delay_min"))
	if err != nil {
		panic("failed to parse minimum request delay from configuration")
	}
	maxDelay, err := time.ParseDuration(vpr.GetString("delay_max"))
	if err != nil {
		panic("failed to parse maximum request delay from configuration")
	}

	return &Config{
		Env:         vpr.GetString("env"),
		HealthPort:  vpr.GetInt("health_port"),
		APIKey:      vpr.GetString("api_key"),
		GeoProvider: vpr.GetString("geo_provider"),
		Run: RunConfig{
			QueryTemplate: vpr.GetString("query"),
			StartLocation: vpr.GetString("start_location"),
			Count:         vpr.GetInt("count"),
			Detailed:      vpr.GetBool("detailed"),
			Parallel:      vpr.GetBool("parallel"),
			Workers:       vpr.GetInt("workers"),
			FlushEvery:    vpr.GetInt("flush_every"),
		},
		RateLimit: RateLimitConfig{
			MaxPerMinute: vpr.GetInt("max_per_minute"),
			MinDelay:     minDelay,
			MaxDelay:     maxDelay,
		},
		Search: SearchConfig{
			DefaultRadius:      vpr.GetInt("radius"),
			MaxResultsPerPoint: vpr.GetInt("max_results_per_point"),
			ResultCap:          vpr.GetInt("result_cap"),
			LargeAreaCap:       vpr.GetInt("large_area_cap"),
			ForceLargeArea:     vpr.GetBool("large_area"),
			LargeAreaKeywords:  vpr.GetStringSlice("large_area_keywords"),
		},
		Output: OutputConfig{
			Dir:      vpr.GetString("output_dir"),
			CSVName:  vpr.GetString("csv_name"),
			XLSXName: vpr.GetString("xlsx_name"),
			LogFile:  vpr.GetString("log_file"),
		},
		Storage: vpr.GetString("storage"),
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func setDefaults(vpr *viper.Viper) {
	vpr.SetDefault("env", "production")
	vpr.SetDefault("health_port", 8080)
	vpr.SetDefault("geo_provider", "google")
	vpr.SetDefault("count", 50)
	vpr.SetDefault("detailed", true)
	vpr.SetDefault("parallel", false)
	vpr.SetDefault("workers", 3)
	vpr.SetDefault("flush_every", 10)
	vpr.SetDefault("max_per_minute", 100)
	vpr.SetDefault("delay_min", "500ms")
	vpr.SetDefault("delay_max", "1500ms")
	vpr.SetDefault("radius", 5000)
	vpr.SetDefault("max_results_per_point", 60)
	vpr.SetDefault("result_cap", 60)
	vpr.SetDefault("large_area_cap", 180)
	vpr.SetDefault("large_area", false)
	vpr.SetDefault("large_area_keywords", defaultLargeAreaKeywords)
	vpr.SetDefault("output_dir", "output")
	vpr.SetDefault("csv_name", "leads.csv")
	vpr.SetDefault("xlsx_name", "leads.xlsx")
	vpr.SetDefault("log_file", "scraper.log")
	vpr.SetDefault("storage", "csv")
}

// Validate checks the semantic preconditions of a run. It is called once at
// startup; any error here is fatal before any work begins.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("places API key is required (LEADGEN_API_KEY)")
	}
	if c.Run.QueryTemplate == "" {
		return errors.New("query template is required (LEADGEN_QUERY)")
	}
	if !strings.Contains(c.Run.QueryTemplate, "{}") {
		return fmt.Errorf("query template %q must contain the {} placeholder", c.Run.QueryTemplate)
	}
	if c.Run.StartLocation == "" {
		return errors.New("start location is required (LEADGEN_START_LOCATION)")
	}
	if c.Run.Count <= 0 {
		return fmt.Errorf("location count must be positive, got %d", c.Run.Count)
	}
	if c.Run.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Run.Workers)
	}
	if c.Run.FlushEvery <= 0 {
		return fmt.Errorf("flush interval must be positive, got %d", c.Run.FlushEvery)
	}
	if c.RateLimit.MaxPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit.MaxPerMinute)
	}
	if c.RateLimit.MinDelay < 0 || c.RateLimit.MaxDelay < c.RateLimit.MinDelay {
		return fmt.Errorf("invalid request delay bounds [%s, %s]", c.RateLimit.MinDelay, c.RateLimit.MaxDelay)
	}
	if c.Search.DefaultRadius <= 0 {
		return fmt.Errorf("search radius must be positive, got %d", c.Search.DefaultRadius)
	}
	if c.Storage != "csv" && c.Storage != "postgres" {
		return fmt.Errorf("unsupported storage backend: %s", c.Storage)
	}
	return nil
}
