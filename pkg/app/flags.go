package app

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/config"
)

// ClientFlags are the registry keys of the flags shared by the commands
// that stream completions and record them.
var ClientFlags = []string{
	config.FlagTarget,
	config.FlagPath,
	config.FlagModel,
	config.FlagTimeout,
	config.FlagChunkSize,
	config.FlagDoneSentinel,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEvents,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

// AddClientFlags registers ClientFlags on cmd. Their values are read back
// through viper by LoadConfig, so the flag targets are not kept.
func AddClientFlags(cmd *cobra.Command) {
	for _, key := range ClientFlags {
		switch key {
		case config.FlagChunkSize:
			config.AddUintFlag(cmd, config.Flags, key, new(uint))
		case config.FlagDoneSentinel:
			config.AddBoolFlag(cmd, config.Flags, key, new(bool))
		default:
			config.AddStringFlag(cmd, config.Flags, key, new(string))
		}
	}
}
