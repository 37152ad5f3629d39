package cmd

import (
	"fmt"
	"strings"

	"github.com/conneroisu/mdserve/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// themeValue is a pflag.Value constrained to the supported color themes,
// so an unknown theme is rejected at flag parse time instead of after the
// server is half-started.
type themeValue string

var _ pflag.Value = (*themeValue)(nil)

func newThemeValue(def string) *themeValue {
	v := themeValue(def)
	return &v
}

func (v *themeValue) String() string {
	return string(*v)
}

func (v *themeValue) Set(val string) error {
	lower := strings.ToLower(val)
	for _, theme := range config.Themes {
		if lower == theme {
			*v = themeValue(lower)
			return nil
		}
	}
	return fmt.Errorf("theme %q is not one of %s", val, strings.Join(config.Themes, ", "))
}

func (v *themeValue) Type() string {
	return "theme"
}

// addServeFlags registers the serving flags on cmd and binds them to their
// viper keys, so flag > env > file > default resolution happens in one
// place at config load time.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	cmd.Flags().String("host", "localhost", "Host to bind to")
	cmd.Flags().BoolP("open", "o", false, "Open the browser after starting")
	cmd.Flags().Var(newThemeValue("auto"), "theme", "Color theme (auto, light, dark)")

	if err := viper.BindPFlag("server.port", cmd.Flags().Lookup("port")); err != nil {
		fmt.Printf("Error binding port flag: %v\n", err)
	}
	if err := viper.BindPFlag("server.host", cmd.Flags().Lookup("host")); err != nil {
		fmt.Printf("Error binding host flag: %v\n", err)
	}
	if err := viper.BindPFlag("server.open", cmd.Flags().Lookup("open")); err != nil {
		fmt.Printf("Error binding open flag: %v\n", err)
	}
	if err := viper.BindPFlag("server.theme", cmd.Flags().Lookup("theme")); err != nil {
		fmt.Printf("Error binding theme flag: %v\n", err)
	}
}
