package artifact

import (
	"fmt"
	"strings"

	"wg-engarde/pkg/model"
)

// renderUnit produces the systemd service descriptor for the relay
// process: binary + config path, always-restart, root identity.
func renderUnit(role model.Role, execPath, relayConfPath, tunnelUnit string) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=engarde %s relay for WireGuard\n", role)
	fmt.Fprintf(&b, "After=network-online.target %s.service\n", tunnelUnit)
	b.WriteString("Wants=network-online.target\n")
	b.WriteString("\n[Service]\n")
	b.WriteString("Type=simple\n")
	b.WriteString("User=root\n")
	fmt.Fprintf(&b, "ExecStart=%s %s\n", execPath, relayConfPath)
	b.WriteString("Restart=always\n")
	b.WriteString("RestartSec=3\n")
	b.WriteString("\n[Install]\n")
	b.WriteString("WantedBy=multi-user.target\n")
	return b.String()
}
