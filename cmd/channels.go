package cmd

import (
	"fmt"
	"sort"

	"github.com/audiolibrelab/focusd/internal/focus"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channels that would be registered",
	Long: `List the channels the current configuration registers, ordered by
rank. A lower priority value outranks a higher one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		channels := cfg.ChannelConfigs()
		if len(channels) == 0 {
			fmt.Println("No channels configured.")
			return nil
		}

		sorted := make([]focus.ChannelConfig, len(channels))
		copy(sorted, channels)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

		fmt.Printf("Channels (%s preset):\n", cfg.Preset)
		for i, ch := range sorted {
			fmt.Printf("  %d. %-16s priority %d\n", i+1, ch.Name, ch.Priority)
		}
		return nil
	},
}
