package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/gantry/pkg/access"
	"mercator-hq/gantry/pkg/cli"
	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/target"
)

var resolveFlags struct {
	output string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show where a request path would be proxied",
	Long: `Resolve an inbound request path to its upstream target and access decision
without contacting any upstream.

Examples:
  # Docker Hub shorthand
  gantry resolve /v2/nginx/manifests/latest

  # Embedded URL
  gantry resolve /https://github.com/owner/repo/archive/main.zip

  # JSON output
  gantry resolve /ghcr.io/owner/app --output json`,
	Args: cobra.ExactArgs(1),
	RunE: resolvePath,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveFlags.output, "output", "o", "text", "output format: text, json")
}

// resolution is the printable result of resolve.
type resolution struct {
	Path      string `json:"path"`
	URL       string `json:"url,omitempty"`
	Host      string `json:"host,omitempty"`
	Registry  bool   `json:"registry"`
	Kind      string `json:"kind"`
	Reference string `json:"reference,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Allowed   bool   `json:"allowed"`
	Status    int    `json:"status,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (r resolution) Header() []string { return []string{"FIELD", "VALUE"} }

func (r resolution) Rows() [][]string {
	rows := [][]string{{"path", r.Path}}
	if r.Error != "" {
		return append(rows, []string{"error", r.Error})
	}
	rows = append(rows,
		[]string{"url", r.URL},
		[]string{"host", r.Host},
		[]string{"registry", strconv.FormatBool(r.Registry)},
		[]string{"kind", r.Kind},
	)
	if r.Reference != "" {
		rows = append(rows, []string{"reference", r.Reference})
	}
	if r.Digest != "" {
		rows = append(rows, []string{"digest", r.Digest})
	}
	rows = append(rows, []string{"allowed", strconv.FormatBool(r.Allowed)})
	if !r.Allowed {
		rows = append(rows, []string{"status", strconv.Itoa(r.Status)}, []string{"reason", r.Reason})
	}
	return rows
}

// resolveRequest runs the resolver and policy on a request target such
// as "/v2/nginx/manifests/latest?n=1".
func resolveRequest(cfg *config.Config, raw string) resolution {
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	path, rawQuery, _ := strings.Cut(raw, "?")
	res := resolution{Path: path}

	t, err := target.NewResolverFromConfig(cfg).Resolve(path, rawQuery)
	if err != nil {
		res.Error = err.Error()
		res.Status = 400
		return res
	}

	u := t.URL()
	res.URL = redactQuery(u)
	res.Host = t.Host
	res.Registry = t.Registry
	res.Kind = t.Kind.String()
	res.Reference = t.Reference
	res.Digest = t.Digest.String()

	d := access.NewPolicyFromConfig(&cfg.Access).Check(t, path)
	res.Allowed = d.Allowed
	if !d.Allowed {
		res.Status = d.Status
		res.Reason = d.Reason
	}
	return res
}

// redactQuery hides query values, which may be pre-signed credentials.
func redactQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return u.String()
	}
	c := *u
	q := c.Query()
	for k := range q {
		q[k] = []string{"REDACTED"}
	}
	c.RawQuery = q.Encode()
	return c.String()
}

func resolvePath(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(resolveFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res := resolveRequest(cfg, args[0])
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), res); err != nil {
		return cli.NewCommandError("resolve", err)
	}
	if res.Error != "" {
		return cli.NewCommandError("resolve", fmt.Errorf("path does not resolve: %s", res.Error))
	}
	return nil
}
