package adapter

// NmapArgv builds nmap arguments for the supported scan modes, emitting XML
// on stdout for the normalizer.
func NmapArgv(target, mode string) []string {
	switch mode {
	case "aggressive":
		return []string{"-A", "-T4", target, "-oX", "-"}
	case "stealth":
		return []string{"-sS", "-sV", target, "-oX", "-"}
	case "vuln":
		return []string{"-sV", "--script=vuln", target, "-oX", "-"}
	default: // basic
		return []string{"-sV", "-O", target, "-oX", "-"}
	}
}

// TrivyArgv scans a container image and writes the JSON report to stdout.
func TrivyArgv(target, mode string) []string {
	return []string{"image", "--exit-code", "0", "--no-progress", "--format", "json", target}
}

// TSharkArgv captures on the target interface for a fixed window and emits
// tab-separated fields for the traffic analyzer: SYN probes without ACK for
// port-scan counting, plus HTTP authorization headers and FTP commands for
// cleartext credential detection. Mode holds an optional BPF capture filter.
func TSharkArgv(target, mode string) []string {
	args := []string{"-i", target, "-a", "duration:60"}
	if mode != "" {
		args = append(args, "-f", mode)
	}
	return append(args,
		"-Y", "tcp.flags.syn==1 and tcp.flags.ack==0 or http.authorization or ftp.request.command",
		"-T", "fields",
		"-e", "ip.src",
		"-e", "tcp.dstport",
		"-e", "http.authorization",
		"-e", "ftp.request.command",
	)
}
