package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mfujita47/pmidcite/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set values in the global config file
($XDG_CONFIG_HOME/pmidcite/config.yml).

Without arguments the effective configuration is shown: defaults, then the
config file, then NCBI_API_KEY / NCBI_EMAIL from the environment or .env.

Usage:
  pmidcite config                              # Show all config
  pmidcite config api_delay                    # Get specific value
  pmidcite config api_delay 0.2                # Set value
  pmidcite config cache.backend sqlite         # Switch cache backend
  pmidcite config citation_format "[{number}]" # In-text citation style

Keys:
  ncbi_api_key, email, pmid_regex, separators, citation_format,
  ref_item_format, author_threshold, api_delay, references_header,
  cache.backend, cache.path, cache.redis_addr, cache.ttl`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for the config command without arguments.
type ConfigResponse struct {
	Path   string        `json:"path"`
	Config config.Config `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		cfg, err := config.Load()
		if err != nil {
			exitWithErr(err, "loading config")
		}
		cfg = cfg.Redacted()
		if humanOutput {
			outputHuman("# %s\n", config.GlobalConfigPath())
			for _, kv := range configEntries(cfg) {
				outputHuman("%-18s %s\n", kv[0]+":", kv[1])
			}
			return nil
		}
		return outputJSON(ConfigResponse{Path: config.GlobalConfigPath(), Config: cfg})

	case 1:
		cfg, err := config.Load()
		if err != nil {
			exitWithErr(err, "loading config")
		}
		value, ok := configValue(cfg.Redacted(), args[0])
		if !ok {
			exitWithErr(config.ErrUnknownKey, args[0])
		}
		if humanOutput {
			outputHuman("%s\n", value)
		} else {
			outputJSON(map[string]string{args[0]: value})
		}
		return nil
	}

	key, value := args[0], args[1]
	f, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithErr(err, "loading config")
	}
	if err := f.Set(key, value); err != nil {
		exitWithErr(err, "setting "+key)
	}
	cfg, err := config.Resolve(f)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		exitWithErr(err, "setting "+key)
	}
	if err := config.SaveGlobalConfig(f); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if key == "ncbi_api_key" {
		value = config.MaskSecret(value)
	}
	if humanOutput {
		outputHuman("Set %s = %s\n", key, value)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
}

// configEntries lists the effective value of every key in config.Keys order.
func configEntries(cfg config.Config) [][2]string {
	entries := make([][2]string, 0, len(config.Keys))
	for _, key := range config.Keys {
		v, _ := configValue(cfg, key)
		entries = append(entries, [2]string{key, v})
	}
	return entries
}

func configValue(cfg config.Config, key string) (string, bool) {
	switch key {
	case "ncbi_api_key":
		return cfg.APIKey, true
	case "email":
		return cfg.Email, true
	case "pmid_regex":
		return cfg.PMIDRegex, true
	case "separators":
		return cfg.Separators, true
	case "citation_format":
		return cfg.CitationFormat, true
	case "ref_item_format":
		return cfg.RefItemFormat, true
	case "author_threshold":
		return strconv.Itoa(cfg.AuthorThreshold), true
	case "api_delay":
		return strconv.FormatFloat(cfg.APIDelay.Seconds(), 'f', -1, 64), true
	case "references_header":
		return cfg.ReferencesHeader, true
	case "cache.backend":
		return cfg.Cache.Backend, true
	case "cache.path":
		return cfg.Cache.Path, true
	case "cache.redis_addr":
		return cfg.Cache.RedisAddr, true
	case "cache.ttl":
		if cfg.Cache.TTL == 0 {
			return "", true
		}
		return cfg.Cache.TTL.String(), true
	}
	return "", false
}
