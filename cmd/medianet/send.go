package main

import (
	"fmt"
	"media-net/transport"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var sendProtocol string

var sendCmd = &cobra.Command{
	Use:   "send <host:port> <message>...",
	Short: "Send a message to an echo server and print the reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := resolveEndpoint(cmd.Context(), newResolver(), args[0])
		if err != nil {
			return err
		}
		msg := strings.Join(args[1:], " ")

		var reply string
		switch transport.Protocol(sendProtocol) {
		case transport.UDP:
			reply, err = exchangeUDP(logger, remote, msg, cfg.Timeout)
		case transport.TCP:
			reply, err = exchangeTCP(logger, remote, msg, cfg.Timeout)
		default:
			return errors.Errorf("unknown protocol %q", sendProtocol)
		}
		if err != nil {
			return errors.WithMessagef(err, "%s exchange with %s", sendProtocol, remote)
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendProtocol, "protocol", "p", string(transport.UDP), "udp or tcp")
	rootCmd.AddCommand(sendCmd)
}
