package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/policyledger/fedledger/internal/core/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Configuration is read from defaults, the config file, a .env file in the
working directory, FEDLEDGER_* environment variables and command flags, in
increasing precedence.`,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective settings as TOML",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsAnnotation: needsSettings},
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a setting to the config file",
	Long: `Persists a setting to the config file.

Keys: ` + strings.Join(sortedKeys(services.SettingsValues(settings)), ", "),
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{needsAnnotation: needsConfigStore},
	RunE:        runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService != nil {
		cmd.Printf("# %s\n", settingsService.Path())
	}

	out, err := toml.Marshal(nest(services.SettingsValues(settings)))
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	cmd.Print(string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("Set %s = %s in %s\n", key, value, settingsService.Path())
	return nil
}

// nest turns dotted keys into TOML tables.
func nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		head, rest, ok := strings.Cut(k, ".")
		if !ok {
			out[k] = v
			continue
		}
		table, _ := out[head].(map[string]any)
		if table == nil {
			table = make(map[string]any)
			out[head] = table
		}
		table[rest] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
