package config

const (
	defaultConfigPath      = "~/.config/seqlink/config.toml"
	projectConfigName      = "seqlink.toml"
	defaultSearchRoot      = "."
	defaultRate            = 24.0
	defaultSelection       = SelectionFirst
	defaultMetadataBackend = "native"
	defaultFFprobeBinary   = "ffprobe"
	defaultMetadataTimeout = 30
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Search: Search{
			Root:          defaultSearchRoot,
			Rate:          defaultRate,
			Selection:     defaultSelection,
			MatchClipName: true,
		},
		Metadata: Metadata{
			Backend:        defaultMetadataBackend,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultMetadataTimeout,
		},
		Index: Index{
			StorePath: defaultStorePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
