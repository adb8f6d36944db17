package cmd

import (
	goFlags "github.com/jessevdk/go-flags"
)

// options are the command-line arguments.  The non-empty ones override the
// values from the configuration file.
type options struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string `short:"c" long:"config" description:"Path to the YAML configuration file."`

	// Filters are the paths to the filter lists.
	Filters []string `short:"f" long:"filter" description:"Path to the filter list. Can be specified multiple times."`

	// ListenAddr is the address of the HTTP API.  If both it and ProxyAddr
	// are empty, the requests are read from stdin.
	ListenAddr string `short:"l" long:"listen" description:"Address to serve the /check and /metrics endpoints on. If neither it nor --proxy is set, requests are read from stdin."`

	// ProxyAddr is the address of the filtering HTTP proxy.
	ProxyAddr string `short:"p" long:"proxy" description:"Address to serve the filtering HTTP proxy on (optional)."`

	// Refresh is the cron expression of the filter list refreshes.
	Refresh string `long:"refresh" description:"Cron expression of the filter list refreshes, e.g. \"0 */6 * * *\"."`

	// Verbose enables the debug logging.
	Verbose bool `short:"v" long:"verbose" description:"Verbose output (optional)." optional:"yes" optional-value:"true"`
}

// parseOptions parses the command-line arguments.  If the help has been
// requested, it returns nil and no error.
func parseOptions(args []string) (opts *options, err error) {
	opts = &options{}
	parser := goFlags.NewParser(opts, goFlags.Default)

	_, err = parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*goFlags.Error); ok && flagsErr.Type == goFlags.ErrHelp {
			return nil, nil
		}

		return nil, err
	}

	return opts, nil
}
