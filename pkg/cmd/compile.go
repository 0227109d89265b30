package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/regspec/ddc/pkg/driver"
)

// compileCmd represents the compile command.
var compileCmd = &cobra.Command{
	Use:   "compile [flags] manifest_file",
	Short: "compile a device manifest into a Go register access layer.",
	Long: `Compile a given manifest (JSON, TOML or YAML) into a single Go source
file exposing register, command and buffer accessors for every device it
declares.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		filename := args[0]
		pkgName := GetString(cmd, "package")
		output := GetString(cmd, "output")

		m, src, sink := loadManifest(cmd, filename)

		log.Info("lowering and running checks")

		source := driver.CompileManifest(m, pkgName, sink)

		renderDiagnostics(sink, filename, src)

		log.Infof("writing %s", output)

		if err := os.WriteFile(output, []byte(source), 0644); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if sink.HasError() {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "out.go", "specify output file.")
	compileCmd.Flags().String("package", "device", "Go package name for the generated file.")
}
