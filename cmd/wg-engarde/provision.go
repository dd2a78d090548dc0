package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"wg-engarde/pkg/config"
	"wg-engarde/pkg/logging"
	"wg-engarde/pkg/model"
	"wg-engarde/pkg/provision"
)

// provisionFlow drives the interactive first-run: role and engine
// choice, network parameters, then the full provisioning pass.
func provisionFlow(ctx context.Context, p *provision.Provisioner, cfg config.Config) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("%w: provisioning needs an interactive terminal", model.ErrInvalidInput)
	}
	rd := bufio.NewReader(os.Stdin)

	role, err := model.ParseRole(prompt(rd, "role (server/client)", "server"))
	if err != nil {
		return err
	}
	engineName := prompt(rd, "relay build (go/rust)", "go")

	if role == model.RoleServer {
		return provisionServer(ctx, p, cfg, rd, engineName)
	}
	return provisionClient(ctx, p, rd, engineName)
}

func provisionServer(ctx context.Context, p *provision.Provisioner, cfg config.Config, rd *bufio.Reader, engineName string) error {
	basePort, err := promptPort(rd, "base port", cfg.BasePort)
	if err != nil {
		return err
	}
	// Reject bad bases before asking for anything else.
	if _, err := p.Allocator().Assign(basePort); err != nil {
		return err
	}

	endpoint := prompt(rd, "public endpoint host", provision.DetectEndpointHost())
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint host", model.ErrInvalidInput)
	}
	mtu, err := promptInt(rd, "tunnel MTU", cfg.MTU)
	if err != nil {
		return err
	}
	adminUser := prompt(rd, "admin-ui username", "engarde")
	adminPass := prompt(rd, "admin-ui password", randomPassword())

	in := model.Inputs{
		Role:     model.RoleServer,
		Engine:   engineName,
		Endpoint: endpoint,
		BasePort: basePort,
		Network: model.Network{
			ServerIP: cfg.ServerIP,
			ClientIP: cfg.ClientIP,
			CIDRBits: cfg.CIDRBits,
			MTU:      mtu,
		},
		WebManager:       model.WebManager{Username: adminUser, Password: adminPass},
		ClientTimeoutSec: cfg.ClientTimeoutSec,
		WriteTimeoutMS:   cfg.WriteTimeoutMS,
	}
	in, err = p.RunServer(ctx, in)
	if err != nil {
		return err
	}

	// Bundle for the client side, optionally passphrase-protected.
	passphrase := prompt(rd, "bundle passphrase (empty for cleartext)", "")
	bundle, err := p.NewBundle(in)
	if err != nil {
		return err
	}
	path := cfg.ConfigDir + "/client-bundle.yml"
	if passphrase != "" {
		path += ".age"
	}
	if err := provision.WriteBundle(path, bundle, passphrase); err != nil {
		return err
	}
	logging.L().Infof("client bundle written to %s, copy it to the client node", path)
	return nil
}

func provisionClient(ctx context.Context, p *provision.Provisioner, rd *bufio.Reader, engineName string) error {
	path := prompt(rd, "path to client bundle", "")
	if path == "" {
		return fmt.Errorf("%w: bundle path", model.ErrInvalidInput)
	}
	passphrase := ""
	if strings.HasSuffix(path, ".age") {
		passphrase = prompt(rd, "bundle passphrase", "")
	}
	bundle, err := provision.ReadBundle(path, passphrase)
	if err != nil {
		return err
	}
	_, err = p.RunClient(ctx, bundle, engineName)
	return err
}

func prompt(rd *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := rd.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// promptPort re-prompts on malformed input; range and collision checks
// happen in the allocator.
func promptPort(rd *bufio.Reader, label string, def int) (int, error) {
	for attempt := 0; attempt < 3; attempt++ {
		raw := prompt(rd, label, strconv.Itoa(def))
		n, err := strconv.Atoi(raw)
		if err == nil {
			return n, nil
		}
		fmt.Printf("not a number: %s\n", raw)
	}
	return 0, fmt.Errorf("%w: %s", model.ErrInvalidInput, label)
}

func promptInt(rd *bufio.Reader, label string, def int) (int, error) {
	return promptPort(rd, label, def)
}

func randomPassword() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "engarde"
	}
	return hex.EncodeToString(buf[:])
}
