package artifact

import (
	"fmt"
	"strings"

	"wg-engarde/pkg/model"
)

// ForwardMarker is the comment line that tags the forwarding clause in
// the tunnel config. Its presence is the one signal the policy toggle
// trusts when deciding whether the clause is already applied.
const ForwardMarker = "# wg-engarde:forward"

// renderTunnel produces the wg-quick document for a role. Iteration
// order is fixed so equal inputs yield byte-identical output.
func renderTunnel(in model.Inputs, ids model.Identities) string {
	var b strings.Builder
	b.WriteString("[Interface]\n")
	switch in.Role {
	case model.RoleServer:
		fmt.Fprintf(&b, "Address = %s/%d\n", in.Network.ServerIP, in.Network.CIDRBits)
		fmt.Fprintf(&b, "ListenPort = %d\n", in.Ports.Tunnel)
	default:
		fmt.Fprintf(&b, "Address = %s/%d\n", in.Network.ClientIP, in.Network.CIDRBits)
	}
	fmt.Fprintf(&b, "PrivateKey = %s\n", ids.Local.PrivateKey)
	if in.Network.MTU > 0 {
		fmt.Fprintf(&b, "MTU = %d\n", in.Network.MTU)
	}
	if in.Role == model.RoleServer && in.Policy.ForwardingEnabled {
		b.WriteString(ForwardMarker + "\n")
		fmt.Fprintf(&b, "PostUp = %s\n", forwardScript(in, "-A"))
		fmt.Fprintf(&b, "PostDown = %s\n", forwardScript(in, "-D"))
	}
	b.WriteString("\n")

	b.WriteString("[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", ids.PeerPublicKey)
	switch in.Role {
	case model.RoleServer:
		fmt.Fprintf(&b, "AllowedIPs = %s/32\n", in.Network.ClientIP)
	default:
		// The tunnel rides the local relay, which fans it out across paths.
		fmt.Fprintf(&b, "Endpoint = 127.0.0.1:%d\n", in.Ports.Relay)
		b.WriteString("AllowedIPs = 0.0.0.0/0\n")
		b.WriteString("PersistentKeepalive = 25\n")
	}
	return b.String()
}

// forwardScript builds the DNAT clause forwarding inbound server
// traffic to the client's tunnel address, sparing the ports the pair
// itself needs. op is the iptables action (-A or -D).
func forwardScript(in model.Inputs, op string) string {
	p := in.Ports
	dst := in.Policy.ClientTunnelIP
	tcpSpare := fmt.Sprintf("%d,%d,%d", p.Management, p.Relay, p.AdminUI)
	udpSpare := fmt.Sprintf("%d,%d", p.Tunnel, p.Relay)
	parts := []string{
		"sysctl -w net.ipv4.ip_forward=1",
		fmt.Sprintf("iptables -t nat %s PREROUTING -p tcp -m multiport ! --dports %s -j DNAT --to-destination %s", op, tcpSpare, dst),
		fmt.Sprintf("iptables -t nat %s PREROUTING -p udp -m multiport ! --dports %s -j DNAT --to-destination %s", op, udpSpare, dst),
		fmt.Sprintf("iptables -t nat %s POSTROUTING -d %s -j MASQUERADE", op, dst),
	}
	if op == "-D" {
		parts = parts[1:]
	}
	return strings.Join(parts, "; ")
}
