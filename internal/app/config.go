package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/gs1"
	"github.com/xenking/gtin-catalog/internal/render"
)

const (
	envPrefix   = "GS1CAT"
	defaultAddr = "127.0.0.1:8090"
)

var configFiles = []string{"config.yaml", "/etc/gs1cat/config.yaml"}

// Config holds the catalog-server configuration, loadable from environment
// variables (GS1CAT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"127.0.0.1:8090" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL URL of the run journal; empty disables it" flag:"database-url"`
	Registry    RegistryConfig
	CORS        CORSConfig
	HTTP        HTTPConfig
	Graceful    GracefulConfig
}

// BatchConfig holds the barcode-batch configuration.
type BatchConfig struct {
	Input       string `usage:"Input spreadsheet with one product per row" flag:"input"`
	Output      string `usage:"Result spreadsheet path; empty discards the results" flag:"output"`
	DryRun      bool   `default:"false" usage:"Check rows locally without contacting the registry" flag:"dry-run"`
	Reveal      bool   `default:"false" usage:"Open the output folder when done" flag:"reveal"`
	DatabaseURL string `usage:"PostgreSQL URL of the run journal; empty disables it" flag:"database-url"`
	Registry    RegistryConfig
}

// CatalogConfig holds the catalog-html configuration.
type CatalogConfig struct {
	Input    string `usage:"Catalog spreadsheet" flag:"catalog-input"`
	Images   string `usage:"Image folder; defaults to the spreadsheet folder" flag:"images"`
	Template string `default:"spotlight" usage:"Catalog template" flag:"template"`
	Output   string `usage:"Output path" flag:"catalog-output"`
	Bundle   bool   `default:"false" usage:"Write a tar.gz with the page and its images" flag:"bundle"`
	Reveal   bool   `default:"false" usage:"Open the output folder when done" flag:"reveal"`
}

// RegistryConfig configures the GS1 registry client.
type RegistryConfig struct {
	BaseURL           string        `default:"https://api.gs1br.org" usage:"Registry base URL" flag:"registry-url"`
	ClientID          string        `usage:"OAuth client ID" flag:"client-id"`
	ClientSecret      string        `usage:"OAuth client secret" flag:"client-secret"`
	Username          string        `usage:"Registry user" flag:"username"`
	Password          string        `usage:"Registry password" flag:"password"`
	CompanyPrefix     string        `usage:"GS1 company prefix (CAD)" flag:"company-prefix"`
	Timeout           time.Duration `default:"30s" usage:"Registry call timeout" flag:"registry-timeout"`
	RequestsPerSecond int           `default:"5" usage:"Registry calls per second; 0 disables throttling" flag:"registry-rps"`
}

// Credentials returns the registry credentials.
func (c RegistryConfig) Credentials() barcode.Credentials {
	return barcode.Credentials{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Username:     c.Username,
		Password:     c.Password,
	}
}

func (c RegistryConfig) client() gs1.Config {
	return gs1.Config{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Product:           gs1.Product{CompanyPrefix: c.CompanyPrefix},
	}
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// HTTPConfig controls server timeouts. WriteTimeout is zero by default so
// progress streams of long batches are not cut.
type HTTPConfig struct {
	ReadTimeout  time.Duration `default:"15s" usage:"Request read timeout" flag:"read-timeout"`
	WriteTimeout time.Duration `default:"0s" usage:"Response write timeout; 0 disables it" flag:"write-timeout"`
	IdleTimeout  time.Duration `default:"120s" usage:"Keep-alive idle timeout" flag:"idle-timeout"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

func loaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: envPrefix,
		Files:     configFiles,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}
}

func load(dst any, cfg aconfig.Config) error {
	if err := aconfig.LoaderFor(dst, cfg).Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	return nil
}

// LoadConfig loads the server configuration and applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(loaderConfig())
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := load(&cfg, ac); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = databaseURL(cfg.DatabaseURL)
	cfg.Registry.applyPlatformDefaults()
	if port := os.Getenv("PORT"); port != "" && cfg.Addr == defaultAddr {
		cfg.Addr = "127.0.0.1:" + port
	}
	return &cfg, nil
}

// LoadBatchConfig loads the barcode-batch configuration.
func LoadBatchConfig() (*BatchConfig, error) {
	return loadBatchConfig(loaderConfig())
}

func loadBatchConfig(ac aconfig.Config) (*BatchConfig, error) {
	var cfg BatchConfig
	if err := load(&cfg, ac); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = databaseURL(cfg.DatabaseURL)
	cfg.Registry.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks the settings a batch cannot start without. The company
// prefix is only needed by the live registry.
func (c *BatchConfig) validate() error {
	if c.Input == "" {
		return errors.New("input spreadsheet is required: set -input")
	}
	if !c.DryRun && c.Registry.CompanyPrefix == "" {
		return errors.New("company prefix is required for registration: set GS1_COMPANY_PREFIX or use -dry-run")
	}
	return nil
}

// LoadCatalogConfig loads the catalog-html configuration.
func LoadCatalogConfig() (*CatalogConfig, error) {
	return loadCatalogConfig(loaderConfig())
}

func loadCatalogConfig(ac aconfig.Config) (*CatalogConfig, error) {
	var cfg CatalogConfig
	if err := load(&cfg, ac); err != nil {
		return nil, err
	}
	if cfg.Input == "" {
		return nil, errors.New("catalog spreadsheet is required: set -catalog-input")
	}
	if cfg.Template == "" {
		cfg.Template = render.DefaultTemplate
	}
	return &cfg, nil
}

func databaseURL(v string) string {
	if v != "" {
		return v
	}
	return os.Getenv("DATABASE_URL")
}

// applyPlatformDefaults maps the unprefixed GS1_ variables used by existing
// deployments onto unset registry fields.
func (c *RegistryConfig) applyPlatformDefaults() {
	for _, f := range []struct {
		env string
		dst *string
	}{
		{"GS1_CLIENT_ID", &c.ClientID},
		{"GS1_CLIENT_SECRET", &c.ClientSecret},
		{"GS1_USERNAME", &c.Username},
		{"GS1_PASSWORD", &c.Password},
		{"GS1_COMPANY_PREFIX", &c.CompanyPrefix},
	} {
		if *f.dst != "" {
			continue
		}
		if v := os.Getenv(f.env); v != "" {
			*f.dst = v
		}
	}
	if v := os.Getenv("GS1_BASE_URL"); v != "" && (c.BaseURL == "" || c.BaseURL == gs1.DefaultBaseURL) {
		c.BaseURL = v
	}
}
