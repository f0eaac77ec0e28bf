// Command nastyclient streams a directory of files to a nastyserver peer
// over an adversarial UDP channel, running the end-to-end check on each
// before moving to the next (§6.2).
package main

import (
	"math/rand"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nastygram/internal/client"
	"nastygram/internal/config"
	"nastygram/internal/logging"
	"nastygram/internal/metrics"
	"nastygram/internal/nasty"
	"nastygram/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(config.ExitWrongArity)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nastyclient <serverHost> <networkNastiness> <fileNastiness> <sourceDir>",
		Short:         "Send a directory of files to a nastyserver peer under simulated adversity",
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run(args[0], args[1], args[2], args[3])
			return nil
		},
	}
	return cmd
}

func run(host, networkNastinessArg, fileNastinessArg, sourceDir string) {
	diag := logging.NewLogger(os.Stderr, logrus.InfoLevel, "client")
	grading := logging.NewGrading(os.Stdout)

	networkNastiness, err := config.ValidateNastiness("networkNastiness", networkNastinessArg)
	if err != nil {
		diag.Fatal(config.ExitBadNastiness, "%v", err)
	}
	fileNastiness, err := config.ValidateNastiness("fileNastiness", fileNastinessArg)
	if err != nil {
		diag.Fatal(config.ExitBadNastiness, "%v", err)
	}

	if err := config.ValidateHost(host); err != nil {
		diag.Fatal(config.ExitTerminationFailure, "%v", err)
	}
	if err := config.ValidateDirectory("sourceDir", sourceDir); err != nil {
		diag.Fatal(config.ExitBadSourceDir, "%v", err)
	}

	names, err := listFiles(sourceDir)
	if err != nil {
		diag.Fatal(config.ExitBadSourceDir, "reading source dir %s: %v", sourceDir, err)
	}

	cfg := config.DefaultClientConfig()
	cfg.Host = host
	cfg.NetworkNastiness = networkNastiness
	cfg.FileNastiness = fileNastiness
	cfg.SourceDir = sourceDir

	addr := net.JoinHostPort(host, strconv.Itoa(config.DefaultPort))
	rawConn, err := net.Dial("udp", addr)
	if err != nil {
		diag.Fatal(config.ExitTerminationFailure, "dialing %s: %v", addr, err)
	}
	defer rawConn.Close()

	var conn transport.PacketConn = transport.NewClientConn(rawConn, cfg.ReadTimeout)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	if networkNastiness > 0 {
		conn = nasty.NewConn(conn, networkNastiness, rnd)
	}

	opener := &nasty.Factory{Level: fileNastiness, Rnd: rnd}
	m := metrics.New()

	sess := client.NewSession(conn, cfg, diag, grading, m, opener)

	diag.Info("transferring %d file(s) from %s to %s", len(names), sourceDir, addr)
	if err := sess.Run(names); err != nil {
		diag.Fatal(config.ExitTerminationFailure, "termination handshake failed: %v", err)
	}

	diag.Info("session complete: %s", m.Summary())
	os.Exit(config.ExitOK)
}

// listFiles returns the sorted leaf names of the regular files directly
// inside dir. Directory enumeration is the caller's responsibility per the
// protocol core's scope (§1 Out-of-scope): Session only streams names it is
// given.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
