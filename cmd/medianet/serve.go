package main

import (
	"fmt"
	ipv4 "media-net/network/ip/v4"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	serveAddress string
	serveUDPPort uint16
	serveTCPPort uint16
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a packet echo server on UDP and TCP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("address") {
			cfg.Address = serveAddress
		}
		if cmd.Flags().Changed("udp-port") {
			cfg.UDPPort = serveUDPPort
		}
		if cmd.Flags().Changed("tcp-port") {
			cfg.TCPPort = serveTCPPort
		}

		address := ipv4.Any
		if cfg.Address != "" {
			var err error
			if address, err = ipv4.ParseAddr(cfg.Address); err != nil {
				return errors.Wrapf(err, "invalid listen address %q", cfg.Address)
			}
		}

		server := newEchoServer(logger, cfg.PollInterval)
		if err := server.listen(address, cfg.UDPPort, cfg.TCPPort); err != nil {
			return err
		}

		udpPort, tcpPort := server.ports()
		fmt.Fprintf(cmd.OutOrStdout(), "echoing on %s udp/%d tcp/%d\n", address, udpPort, tcpPort)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "address to listen on (default all)")
	serveCmd.Flags().Uint16Var(&serveUDPPort, "udp-port", 0, "UDP port (default 5400)")
	serveCmd.Flags().Uint16Var(&serveTCPPort, "tcp-port", 0, "TCP port (default 5401)")
	rootCmd.AddCommand(serveCmd)
}
