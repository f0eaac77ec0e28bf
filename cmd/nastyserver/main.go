// Command nastyserver listens on the fixed protocol port and receives
// whatever files a nastyclient peer streams to it, running the receiver
// event loop until an unrecoverable socket error (§6.2, §4.4).
package main

import (
	"math/rand"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nastygram/internal/config"
	"nastygram/internal/logging"
	"nastygram/internal/metrics"
	"nastygram/internal/nasty"
	"nastygram/internal/server"
	"nastygram/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(config.ExitWrongArity)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nastyserver <networkNastiness> <fileNastiness> <targetDir>",
		Short:         "Receive a directory of files from a nastyclient peer under simulated adversity",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run(args[0], args[1], args[2])
			return nil
		},
	}
	return cmd
}

func run(networkNastinessArg, fileNastinessArg, targetDir string) {
	diag := logging.NewLogger(os.Stderr, logrus.InfoLevel, "server")
	grading := logging.NewGrading(os.Stdout)

	networkNastiness, err := config.ValidateNastiness("networkNastiness", networkNastinessArg)
	if err != nil {
		diag.Fatal(config.ExitBadNastiness, "%v", err)
	}
	fileNastiness, err := config.ValidateNastiness("fileNastiness", fileNastinessArg)
	if err != nil {
		diag.Fatal(config.ExitBadNastiness, "%v", err)
	}
	if err := config.ValidateDirectory("targetDir", targetDir); err != nil {
		diag.Fatal(config.ExitBadSourceDir, "%v", err)
	}

	cfg := config.DefaultServerConfig()
	cfg.NetworkNastiness = networkNastiness
	cfg.FileNastiness = fileNastiness
	cfg.TargetDir = targetDir

	addr := net.JoinHostPort("", strconv.Itoa(config.DefaultPort))
	rawConn, err := net.ListenPacket("udp", addr)
	if err != nil {
		diag.Fatal(config.ExitTerminationFailure, "listening on %s: %v", addr, err)
	}
	defer rawConn.Close()

	var conn transport.PacketConn = transport.NewServerConn(rawConn, cfg.ReadTimeout)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	if networkNastiness > 0 {
		conn = nasty.NewConn(conn, networkNastiness, rnd)
	}

	factory := &nasty.Factory{Level: fileNastiness, Rnd: rnd}
	m := metrics.New()

	recv := server.NewReceiver(conn, cfg, diag, grading, m, factory)

	diag.Info("listening on %s, writing into %s", addr, targetDir)
	if err := recv.Run(); err != nil {
		diag.Fatal(config.ExitTerminationFailure, "receive loop terminated: %v", err)
	}
}
