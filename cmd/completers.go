package cmd

import (
	"log"
	"sort"

	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
)

func HostNameCompleter(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.New()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	all, err := hosts.GetAll(cfg)
	if err != nil {
		// Log to stderr, which is appropriate for completion scripts
		log.Println("Error getting host list for completion:", err)
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, cobra.ShellCompDirectiveNoFileComp
}
