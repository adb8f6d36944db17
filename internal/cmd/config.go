package cmd

import (
	"fmt"
	"os"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/c2h5oh/datasize"
	"github.com/hashicorp/cronexpr"
	"gopkg.in/yaml.v3"
)

// configuration is the configuration of the command.
type configuration struct {
	// Filters are the filter lists.
	Filters []filterlist.Source `yaml:"filters"`

	// ListenAddr is the address of the HTTP API.
	ListenAddr string `yaml:"listen"`

	// ProxyAddr is the address of the filtering HTTP proxy.
	ProxyAddr string `yaml:"proxy"`

	// Refresh is the cron expression of the filter list refreshes.  If it is
	// empty, the lists are only refreshed on SIGHUP.
	Refresh string `yaml:"refresh"`

	// MaxListSize is the maximum size of a filter list.
	MaxListSize datasize.ByteSize `yaml:"max_list_size"`

	// CacheSize is the number of cached decisions.
	CacheSize int `yaml:"cache_size"`

	// Verbose enables the debug logging.
	Verbose bool `yaml:"verbose"`
}

// newDefaultConfig returns the configuration used when there is no file.
func newDefaultConfig() (c *configuration) {
	return &configuration{
		MaxListSize: filterlist.DefaultMaxListSize,
		CacheSize:   adblock.DefaultCacheSize,
	}
}

// readConfig reads the configuration from the YAML file at path.  If path is
// empty, it returns the default configuration.
func readConfig(path string) (c *configuration, err error) {
	c = newDefaultConfig()
	if path == "" {
		return c, nil
	}

	// #nosec G304 -- Trust the path given by the user.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	err = dec.Decode(c)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return c, nil
}

// applyOptions overrides the values of c with the non-empty options.  The
// filter lists from the options are added after the ones from the file.
func (c *configuration) applyOptions(opts *options) {
	nextID := 1
	for _, src := range c.Filters {
		nextID = max(nextID, src.ID+1)
	}

	for i, path := range opts.Filters {
		c.Filters = append(c.Filters, filterlist.Source{
			Path: path,
			ID:   nextID + i,
		})
	}

	if opts.ListenAddr != "" {
		c.ListenAddr = opts.ListenAddr
	}

	if opts.ProxyAddr != "" {
		c.ProxyAddr = opts.ProxyAddr
	}

	if opts.Refresh != "" {
		c.Refresh = opts.Refresh
	}

	c.Verbose = c.Verbose || opts.Verbose
}

// validate returns an error if the configuration is invalid.
func (c *configuration) validate() (err error) {
	var errs []error
	if len(c.Filters) == 0 {
		errs = append(errs, errors.Error("no filter lists"))
	}

	ids := make(map[int]struct{}, len(c.Filters))
	for i, src := range c.Filters {
		if _, ok := ids[src.ID]; ok {
			errs = append(errs, fmt.Errorf("filters: at index %d: duplicate id %d", i, src.ID))
		}

		ids[src.ID] = struct{}{}
	}

	if c.Refresh != "" {
		_, err = cronexpr.Parse(c.Refresh)
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh: %w", err))
		}
	}

	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size: negative value %d", c.CacheSize))
	}

	return errors.Join(errs...)
}
