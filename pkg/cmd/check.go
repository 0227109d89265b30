package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/regspec/ddc/pkg/driver"
)

// checkCmd represents the check command: runs the same pipeline as
// compile but discards the generated source, for use as a CI lint step.
var checkCmd = &cobra.Command{
	Use:   "check [flags] manifest_file",
	Short: "check a device manifest for diagnostics without emitting code.",
	Long:  `Check a given manifest against every compiler pass and report its diagnostics, without writing any output file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		filename := args[0]

		m, src, sink := loadManifest(cmd, filename)

		log.Info("lowering and running checks")

		driver.CompileManifest(m, "device", sink)

		renderDiagnostics(sink, filename, src)

		if sink.HasError() {
			os.Exit(1)
		}

		fmt.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
