// Package cmd implements ddc's command-line surface, following the
// teacher's cobra layout: a package-level rootCmd plus one file per
// subcommand, flags read back through the Get* helpers in util.go.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/manifest/jsonmanifest"
	"github.com/regspec/ddc/pkg/manifest/tomlmanifest"
	"github.com/regspec/ddc/pkg/manifest/yamlmanifest"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ddc",
	Short: "A code generator for device register/command/buffer manifests.",
	Long:  "ddc compiles a device manifest (JSON, TOML or YAML) into a Go register access layer.",
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("config", ".ddc.toml", "project config file supplying device-config fallbacks")
}

// parserFor dispatches a manifest parser by file extension.
func parserFor(filename string) (func(string, []byte) (ast.Manifest, []diag.Diagnostic), error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return jsonmanifest.Parse, nil
	case ".toml":
		return tomlmanifest.Parse, nil
	case ".yaml", ".yml":
		return yamlmanifest.Parse, nil
	default:
		return nil, fmt.Errorf("unrecognised manifest format: %s", filename)
	}
}

// loadManifest reads filename, parses it with the format implied by its
// extension, and applies any .ddc.toml fallbacks named by the --config
// flag. Parse diagnostics are merged into sink ahead of anything the
// pipeline adds later, so a rendered report reads in source order.
func loadManifest(cmd *cobra.Command, filename string) (*ast.Manifest, []byte, *diag.Sink) {
	sink := diag.NewSink()

	parse, err := parserFor(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	log.Infof("parsing %s", filename)

	m, parseDiags := parse(filename, src)
	for _, d := range parseDiags {
		sink.Add(d)
	}

	configPath := GetString(cmd, "config")

	projectCfg, err := LoadProjectConfig(configPath)
	if err != nil {
		log.Warnf("ignoring %s: %s", configPath, err)
	} else {
		projectCfg.ApplyDefaults(&m)
	}

	return &m, src, sink
}

// renderDiagnostics prints sink's diagnostics to stderr against src, and
// logs each at the level matching its severity, mirroring the teacher's
// habit of narrating every compiler stage.
func renderDiagnostics(sink *diag.Sink, filename string, src []byte) {
	for _, d := range sink.All() {
		if d.Severity == diag.Warning {
			log.Warn(d.Message)
		} else {
			log.Error(d.Message)
		}
	}

	sink.Render(os.Stderr, diag.RenderConfig{Source: string(src), Path: filename})
}
