package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	Countries  []domain.CountryCode
	Resolution domain.Resolution

	// World Bank Climate Data API.
	APIBaseURL string
	APITimeout time.Duration

	// Response caching. CacheDir enables the flat-file cache when non-empty.
	CacheSize int
	CacheDir  string
	CacheTTL  time.Duration

	// Figure output.
	OutputDir    string
	OutputFormat string
	FigureWidth  float64 // inches
	FigureHeight float64 // inches

	BasemapShapefile string
	BasemapCodeField string

	StyleFile string
	Style     domain.Style

	MetricsTextfile string
	LogLevel        string
	LogFormat       string

	// serve mode.
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

var outputFormats = map[string]bool{
	"pdf": true, "svg": true, "eps": true,
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	resolution, err := domain.ParseResolution(sharedcfg.EnvOrDefault("TIME_RESOLUTION", string(domain.Yearly)))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_RESOLUTION: %w", err)
	}

	apiTimeout, err := parseDuration("CLIMATE_API_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CLIMATE_CACHE_TTL", "720h")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("CLIMATE_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	width, err := parsePositiveFloat("FIGURE_WIDTH", 10)
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveFloat("FIGURE_HEIGHT", 8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Countries:        parseCountries(sharedcfg.EnvOrDefault("COUNTRIES", "USA,MEX,CAN,BLZ")),
		Resolution:       resolution,
		APIBaseURL:       sharedcfg.EnvOrDefault("CLIMATE_API_BASE_URL", "http://climatedataapi.worldbank.org/climateweb/rest/v1/country"),
		APITimeout:       apiTimeout,
		CacheSize:        cacheSize,
		CacheDir:         os.Getenv("CLIMATE_CACHE_DIR"),
		CacheTTL:         cacheTTL,
		OutputDir:        sharedcfg.EnvOrDefault("OUTPUT_DIR", "figures"),
		OutputFormat:     strings.ToLower(sharedcfg.EnvOrDefault("OUTPUT_FORMAT", "pdf")),
		FigureWidth:      width,
		FigureHeight:     height,
		BasemapShapefile: os.Getenv("BASEMAP_SHAPEFILE"),
		BasemapCodeField: sharedcfg.EnvOrDefault("BASEMAP_CODE_FIELD", "ISO_A3"),
		StyleFile:        os.Getenv("STYLE_FILE"),
		MetricsTextfile:  os.Getenv("METRICS_TEXTFILE"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if len(cfg.Countries) == 0 {
		return nil, errors.New("COUNTRIES is required")
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("CLIMATE_API_BASE_URL is required")
	}
	if !outputFormats[cfg.OutputFormat] {
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT %q", cfg.OutputFormat)
	}

	style := domain.DefaultStyle()
	if cfg.StyleFile != "" {
		style, err = LoadStyle(cfg.StyleFile, style)
		if err != nil {
			return nil, fmt.Errorf("STYLE_FILE: %w", err)
		}
	}
	style.Palette, err = orderPalette(style.Palette, cfg.Countries)
	if err != nil {
		return nil, fmt.Errorf("COUNTRIES: %w", err)
	}
	if err := style.Validate(); err != nil {
		return nil, err
	}
	cfg.Style = style

	return cfg, nil
}

func parseCountries(s string) []domain.CountryCode {
	var out []domain.CountryCode
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, domain.CountryCode(part))
		}
	}
	return out
}

// orderPalette returns the palette entries for countries, in countries order.
func orderPalette(p domain.Palette, countries []domain.CountryCode) (domain.Palette, error) {
	out := make(domain.Palette, 0, len(countries))
	for _, c := range countries {
		e, ok := p.Lookup(c)
		if !ok {
			return nil, fmt.Errorf("no palette entry for %s", c)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
