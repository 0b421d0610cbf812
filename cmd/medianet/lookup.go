package main

import (
	"context"
	"fmt"
	"media-net/network/resolve"

	"github.com/spf13/cobra"
)

func newResolver() *resolve.Resolver {
	return &resolve.Resolver{
		Servers: cfg.DNSServers,
		Timeout: cfg.Timeout,
		Logger:  logger,
	}
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <host>",
	Short: "Resolve a host name to an IPv4 address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := newResolver().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr)
		return nil
	},
}

var addrPublic bool

var addrCmd = &cobra.Command{
	Use:   "addr",
	Short: "Print the local address, or the public one with --public",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addrPublic {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			addr, err := newResolver().PublicAddress(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		}

		addr, err := resolve.LocalAddress()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr)
		return nil
	},
}

func init() {
	addrCmd.Flags().BoolVar(&addrPublic, "public", false, "ask OpenDNS for the public address")
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(addrCmd)
}
