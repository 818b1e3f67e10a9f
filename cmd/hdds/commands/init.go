package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naskel/hdds/internal/cli/prompt"
	"github.com/naskel/hdds/pkg/config"
)

var (
	initForce         bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a participant configuration file",
	Long: `Scaffold an hdds configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/hdds/config.yaml. Use --config to specify a custom path.
Without --non-interactive, a short wizard prompts for the domain ID,
participant name, and transport before writing the file.

Examples:
  # Interactive wizard at the default location
  hdds init

  # Non-interactive, all defaults, custom path
  hdds init --non-interactive --config /etc/hdds/config.yaml

  # Force overwrite an existing config file
  hdds init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip the wizard and write defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	cfg := config.GetDefaultConfig()

	if !initNonInteractive {
		if err := runInitWizard(cfg); err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("aborted")
				return nil
			}
			return err
		}
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("generated configuration is invalid: %w", err)
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Review and edit the configuration file as needed")
	fmt.Println("  2. Start the participant with: hdds start")
	fmt.Printf("  3. Or specify a custom config: hdds start --config %s\n", configPath)
	if cfg.Admin.JWTAuth {
		fmt.Println("\nSecurity note:")
		fmt.Println("  The admin snapshot API requires a bearer token signed with the secret")
		fmt.Printf("  read from the %s environment variable.\n", cfg.Admin.JWTSecretEnv)
	}

	return nil
}

func runInitWizard(cfg *config.Config) error {
	domain, err := prompt.InputInt("Domain ID", int(cfg.Domain))
	if err != nil {
		return err
	}
	cfg.Domain = uint32(domain)

	name, err := prompt.Input("Participant name", hostnameOrDefault())
	if err != nil {
		return err
	}
	cfg.Participant.Name = name

	transportKind, err := prompt.SelectString("Transport", []string{"udp", "tcp", "quic"})
	if err != nil {
		return err
	}
	cfg.Transport.Kind = transportKind

	enableSHM, err := prompt.Confirm("Enable shared-memory transport for same-host peers?", true)
	if err != nil {
		return err
	}
	cfg.Transport.EnableSHM = enableSHM

	enableAdmin, err := prompt.Confirm("Enable the read-only admin snapshot API?", true)
	if err != nil {
		return err
	}
	cfg.Admin.Enabled = enableAdmin

	if enableAdmin {
		port, err := prompt.InputPort("Admin API port", cfg.Admin.Port)
		if err != nil {
			return err
		}
		cfg.Admin.Port = port

		requireAuth, err := prompt.Confirm("Require a JWT bearer token on admin API requests?", false)
		if err != nil {
			return err
		}
		cfg.Admin.JWTAuth = requireAuth
		if requireAuth {
			cfg.Admin.JWTSecretEnv = "HDDS_ADMIN_JWT_SECRET"
		}
	}

	return nil
}

func hostnameOrDefault() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "hdds-participant"
	}
	return h
}
