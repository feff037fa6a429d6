package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/spiceai/plasmagym/pkg/config"
)

var RootCmd = &cobra.Command{
	Use:   "plasmagym",
	Short: "Plasma Gym CLI",
}

// Execute adds all child commands to the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func initConfig() {
	// Variables already in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("failed to load .env: %s\n", err.Error())
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(strings.TrimSuffix(config.EnvVarPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// setChangedFlags copies explicitly set flags onto their configuration keys,
// leaving defaults to the config file and environment.
func setChangedFlags(flags *pflag.FlagSet, v *viper.Viper, keys map[string]string) {
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := keys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

func init() {
	cobra.OnInitialize(initConfig)
}
