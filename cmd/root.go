// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/racketlab/swingsense/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "swingsense",
	Short: "Swing detection and biomechanics from a racket-mounted sensor",
	Long: `swingsense turns a racket-mounted sensor stream (accelerometer,
gyroscope and microphone RMS) into validated swing events with physical
metrics such as racket-tip speed and impact force.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().StringP("broker", "b", "tcp://localhost:1883", "MQTT broker URL")
	rootCmd.PersistentFlags().String("db", "swingsense.db", "path to the swing database")
	rootCmd.PersistentFlags().StringP("listen", "l", ":8787", "HTTP API listen address")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "log engine diagnostics")

	// Bind flags to viper
	viper.BindPFlag("mqtt.broker", rootCmd.PersistentFlags().Lookup("broker"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("api.listen", rootCmd.PersistentFlags().Lookup("listen"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
