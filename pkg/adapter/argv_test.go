package adapter_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
)

func TestNmapArgv(t *testing.T) {
	t.Run("every mode emits XML on stdout", func(t *testing.T) {
		for _, mode := range []string{"basic", "aggressive", "stealth", "vuln", ""} {
			args := strings.Join(adapter.NmapArgv("10.0.0.1", mode), " ")
			gt.S(t, args).Contains("-oX -")
			gt.S(t, args).Contains("10.0.0.1")
		}
	})
}

func TestTSharkArgv(t *testing.T) {
	t.Run("emits the fields the analyzer parses", func(t *testing.T) {
		args := strings.Join(adapter.TSharkArgv("eth0", ""), " ")

		gt.S(t, args).Contains("-i eth0")
		gt.S(t, args).Contains("-T fields")
		gt.S(t, args).Contains("tcp.flags.syn==1 and tcp.flags.ack==0")
		gt.S(t, args).Contains("-e ip.src")
		gt.S(t, args).Contains("-e tcp.dstport")
		gt.S(t, args).Contains("-e http.authorization")
		gt.S(t, args).Contains("-e ftp.request.command")
	})

	t.Run("mode becomes the capture filter", func(t *testing.T) {
		args := strings.Join(adapter.TSharkArgv("eth0", "port 80"), " ")
		gt.S(t, args).Contains("-f port 80")
	})
}
