/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command mcservernap is an on-demand activator and lifecycle supervisor for
// a Minecraft Java-edition game server (spec.md §1).
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nabbar/mcservernap/internal/dispatcher"
	"github.com/nabbar/mcservernap/internal/handshake"
	"github.com/nabbar/mcservernap/internal/lifecycle"
	"github.com/nabbar/mcservernap/internal/mccfg"
	"github.com/nabbar/mcservernap/internal/mclog"
	"github.com/nabbar/mcservernap/internal/rcon"
	"github.com/nabbar/mcservernap/internal/shutdown"
	"github.com/nabbar/mcservernap/internal/watchdog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "mcservernap",
		Short:         "On-demand activator and lifecycle supervisor for a Minecraft Java server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides "+mclog.EnvLevel+")")

	root.AddCommand(newListenCmd(&logLevel))
	root.AddCommand(newStopCmd(&logLevel))

	return root
}

func newListenCmd(logLevel *string) *cobra.Command {
	var serverPort int
	var rconPort int
	var rconPass string

	cmd := &cobra.Command{
		Use:   "listen <host> <port> <cmd> [args...]",
		Short: "Bind the given host:port and supervise the game server on demand",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := mclog.New(*logLevel)

			host, port, launchPath, launchArgs := args[0], args[1], args[2], args[3:]

			ip, err := resolveIP(host)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", host, err)
			}

			bindPort, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("parse port %q: %w", port, err)
			}

			ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: ip, Port: bindPort})
			if err != nil {
				return fmt.Errorf("bind %s:%s: %w", host, port, err)
			}
			log.Infof("listening on %s", ln.Addr())

			cfg, err := mccfg.Load(log)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			pkts, err := handshake.Precompute(cfg)
			if err != nil {
				return fmt.Errorf("precompute response packets: %w", err)
			}
			resp := handshake.NewResponder(pkts, log)

			machine := lifecycle.New(log)

			d := dispatcher.New(ln, machine, resp, dispatcher.Config{
				ServerPort:   serverPort,
				LaunchPath:   launchPath,
				LaunchArgs:   launchArgs,
				RconPort:     rconPort,
				RconPass:     rconPass,
				PollInterval: time.Duration(cfg.RconPollInterval) * time.Second,
				IdleTimeout:  time.Duration(cfg.RconIdleTimeout) * time.Second,
			}, log)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			coordinator := shutdown.New(machine, func() (shutdown.Admin, error) {
				return rcon.Dial(net.JoinHostPort("127.0.0.1", strconv.Itoa(rconPort)), rconPass, 5*time.Second)
			}, log)

			done := make(chan error, 1)
			go func() { done <- d.Run(ctx) }()

			<-ctx.Done()
			log.Infof("received shutdown signal")
			coordinator.Shutdown()
			_ = ln.Close()
			<-done

			return nil
		},
	}

	cmd.Flags().IntVar(&serverPort, "server-port", 0, "TCP port the game server listens on once running")
	cmd.Flags().IntVar(&rconPort, "rcon-port", 0, "administration (RCON) port of the game server")
	cmd.Flags().StringVar(&rconPass, "rcon-pass", "", "administration (RCON) password")
	_ = cmd.MarkFlagRequired("server-port")
	_ = cmd.MarkFlagRequired("rcon-port")
	_ = cmd.MarkFlagRequired("rcon-pass")

	return cmd
}

func newStopCmd(logLevel *string) *cobra.Command {
	var rconPort int
	var rconPass string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Send a one-shot stop command to a running game server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := mclog.New(*logLevel)

			client, err := rcon.Dial(net.JoinHostPort("127.0.0.1", strconv.Itoa(rconPort)), rconPass, 5*time.Second)
			if err != nil {
				return fmt.Errorf("connect to administration channel: %w", err)
			}
			defer client.Close()

			if _, err := client.Execute("stop", 5*time.Second); err != nil {
				return fmt.Errorf("send stop command: %w", err)
			}

			log.Infof("stop command sent")
			return nil
		},
	}

	cmd.Flags().IntVar(&rconPort, "rcon-port", 0, "administration (RCON) port of the game server")
	cmd.Flags().StringVar(&rconPass, "rcon-pass", "", "administration (RCON) password")
	_ = cmd.MarkFlagRequired("rcon-port")
	_ = cmd.MarkFlagRequired("rcon-pass")

	return cmd
}

func resolveIP(host string) (net.IP, error) {
	if host == "" || host == "*" {
		return net.IPv4zero, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	addr, err := net.ResolveIPAddr("ip", host)
	if err != nil {
		return nil, err
	}
	return addr.IP, nil
}

