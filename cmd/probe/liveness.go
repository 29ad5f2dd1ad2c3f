package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/util/command"
)

const livenessTimeout = 5 * time.Second

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Checks that the local HTTP server answers its health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool(verboseFlag)

			url, err := healthURL(cfg.Server.ListenAddress)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), livenessTimeout)
			defer cancel()

			if err := checkHealthy(ctx, url); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: healthy\n", url)
			}
			return nil
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "print the probe result")

	return cmd
}

// healthURL turns a listen address such as ":8080" into the local health endpoint.
func healthURL(listenAddress string) (string, error) {
	host, port, err := net.SplitHostPort(listenAddress)
	if err != nil {
		return "", errors.Wrapf(err, "invalid listen address %q", listenAddress)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/-/healthy", nil
}

func checkHealthy(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "health endpoint unreachable")
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("health endpoint returned %d", res.StatusCode)
	}
	return nil
}
