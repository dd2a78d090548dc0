package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wg-engarde/pkg/config"
	"wg-engarde/pkg/console"
	"wg-engarde/pkg/logging"
	"wg-engarde/pkg/model"
	"wg-engarde/pkg/precheck"
	"wg-engarde/pkg/provision"
	"wg-engarde/pkg/state"
	"wg-engarde/pkg/version"
)

var manageOnly bool

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "wg-engarde",
		Short:         "Provision and manage a WireGuard + engarde relay pair",
		Version:       version.Build,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	root.Flags().BoolVar(&manageOnly, "manage", false, "enter management mode directly (requires a provisioned node)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "wg-engarde: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := precheck.Run(cfg.Platforms); err != nil {
		return err
	}

	p := provision.New(cfg)
	defer p.Journal.Close()

	installState := detect(ctx, p, cfg)
	if installState == model.Provisioned {
		logging.L().Infof("node already provisioned, entering management mode")
		return manage(ctx, p)
	}
	if manageOnly {
		return fmt.Errorf("%w: node is not provisioned; run without --manage first", model.ErrMissingConfig)
	}
	return provisionFlow(ctx, p, cfg)
}

// detect recomputes the installation state; without saved inputs the
// relay unit name is unknown and the node cannot be provisioned.
func detect(ctx context.Context, p *provision.Provisioner, cfg config.Config) model.InstallState {
	in, err := state.LoadInputs(cfg.InputsPath())
	if err != nil {
		return model.NotProvisioned
	}
	d := state.Detector{
		Ctl:        p.Ctl,
		TunnelUnit: cfg.TunnelUnit(),
		RelayUnit:  in.Role.RelayUnit(),
		MarkerPath: cfg.MarkerPath,
	}
	return d.State(ctx)
}

func manage(ctx context.Context, p *provision.Provisioner) error {
	m, err := provision.NewManager(p)
	if err != nil {
		return err
	}
	rd := bufio.NewReader(os.Stdin)
	if m.Inputs.Role == model.RoleServer {
		// An encrypted bundle on disk means the operator wants regenerated
		// ones encrypted too.
		if _, err := os.Stat(p.Cfg.ConfigDir + "/client-bundle.yml.age"); err == nil {
			m.BundlePassphrase = prompt(rd, "bundle passphrase for regenerated bundles", "")
		}
	}
	return console.Loop(ctx, rd, os.Stdout, m)
}
