package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/naskel/hdds/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate hdds configuration",
}

func init() {
	configCmd.AddCommand(configSchemaCmd)
	configCmd.AddCommand(configValidateCmd)
}

var configSchemaOutput string

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate a JSON Schema for the configuration file",
	Long: `Generate a JSON Schema describing the hdds configuration file.

The schema can be used for IDE autocompletion, editor validation, or
documentation generation.

Examples:
  # Print schema to stdout
  hdds config schema

  # Save schema to file
  hdds config schema --output config.schema.json`,
	RunE: runConfigSchema,
}

func init() {
	configSchemaCmd.Flags().StringVarP(&configSchemaOutput, "output", "o", "", "output file (default: stdout)")
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "hdds Configuration"
	schema.Description = "Configuration schema for an HDDS domain participant"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if configSchemaOutput != "" {
		if err := os.WriteFile(configSchemaOutput, schemaJSON, 0o644); err != nil {
			return fmt.Errorf("failed to write schema file: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", configSchemaOutput)
		return nil
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(schemaJSON))
	return nil
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate loads the configuration file, applies defaults, and runs
every struct validation rule, surfacing the first error without starting a
participant.

Examples:
  hdds config validate
  hdds config validate --config /etc/hdds/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Admin.Enabled && cfg.Admin.JWTAuth && os.Getenv(cfg.Admin.JWTSecretEnv) == "" {
		warnings = append(warnings, fmt.Sprintf("admin.jwt_auth is set but %s is empty; admin API routes will be served without authentication", cfg.Admin.JWTSecretEnv))
	}
	if cfg.CloudDiscovery.Enabled && cfg.CloudDiscovery.Bucket == "" {
		warnings = append(warnings, "cloud_discovery.enabled is set but no bucket is configured")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n", displayPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Validation: OK")

	if len(warnings) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", w)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration summary:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Domain:        %d\n", cfg.Domain)
	fmt.Fprintf(cmd.OutOrStdout(), "  Participant:   %s\n", cfg.Participant.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "  Transport:     %s\n", cfg.Transport.Kind)
	fmt.Fprintf(cmd.OutOrStdout(), "  Log level:     %s\n", cfg.Logging.Level)

	return nil
}
