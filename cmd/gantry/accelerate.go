package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/distribution/reference"
	"github.com/spf13/cobra"

	"mercator-hq/gantry/pkg/cli"
)

var accelerateFlags struct {
	proxyHost string
	output    string
}

var accelerateCmd = &cobra.Command{
	Use:   "accelerate <image-or-url>",
	Short: "Print the accelerated form of an image reference or URL",
	Long: `Rewrite an image reference or download URL so it is fetched through the proxy.

URLs become https://<proxy-host>/<url>; repository URLs ending in .git also get
a git clone command. Image references are normalised and printed as a
docker pull command.

Examples:
  gantry accelerate nginx --proxy-host mirror.example.com
  gantry accelerate ghcr.io/owner/app:1.0 --proxy-host mirror.example.com
  gantry accelerate https://github.com/owner/repo/archive/main.zip --proxy-host mirror.example.com
  gantry accelerate https://github.com/owner/repo.git --proxy-host mirror.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: accelerateInput,
}

func init() {
	rootCmd.AddCommand(accelerateCmd)

	accelerateCmd.Flags().StringVar(&accelerateFlags.proxyHost, "proxy-host", "", "public host name of the proxy (required)")
	accelerateCmd.Flags().StringVarP(&accelerateFlags.output, "output", "o", "text", "output format: text, json")
	_ = accelerateCmd.MarkFlagRequired("proxy-host")
}

// dockerHubDomain is the domain reference.ParseNormalizedNamed assigns to
// shorthand names.
const dockerHubDomain = "docker.io"

// accelerated is the printable result of accelerate.
type accelerated struct {
	Input   string `json:"input"`
	Kind    string `json:"kind"` // "url" or "image"
	URL     string `json:"url,omitempty"`
	Command string `json:"command,omitempty"`
	Clone   string `json:"clone,omitempty"`
}

func (a accelerated) String() string {
	var lines []string
	if a.URL != "" {
		lines = append(lines, a.URL)
	}
	if a.Command != "" {
		lines = append(lines, a.Command)
	}
	if a.Clone != "" {
		lines = append(lines, a.Clone)
	}
	return strings.Join(lines, "\n")
}

// accelerate rewrites input for proxyHost.
func accelerate(input, proxyHost string) (accelerated, error) {
	input = strings.TrimSpace(input)
	proxyHost = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(proxyHost, "https://"), "http://"), "/")
	if input == "" {
		return accelerated{}, errors.New("input must not be empty")
	}
	if proxyHost == "" {
		return accelerated{}, errors.New("proxy host must not be empty")
	}

	if strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://") {
		return accelerateURL(input, proxyHost)
	}
	return accelerateImage(input, proxyHost)
}

func accelerateURL(input, proxyHost string) (accelerated, error) {
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return accelerated{}, fmt.Errorf("invalid URL %q", input)
	}

	out := accelerated{
		Input: input,
		Kind:  "url",
		URL:   "https://" + proxyHost + "/" + input,
	}
	if strings.HasSuffix(u.Path, ".git") {
		out.Clone = "git clone https://" + proxyHost + "/" + u.Host + u.Path
	}
	return out, nil
}

func accelerateImage(input, proxyHost string) (accelerated, error) {
	named, err := reference.ParseNormalizedNamed(input)
	if err != nil {
		return accelerated{}, fmt.Errorf("invalid image reference %q: %w", input, err)
	}

	repo := reference.Path(named)
	if domain := reference.Domain(named); domain != dockerHubDomain {
		repo = domain + "/" + repo
	}

	var suffix string
	switch r := named.(type) {
	case reference.Digested:
		suffix = "@" + r.Digest().String()
		if tagged, ok := named.(reference.Tagged); ok {
			suffix = ":" + tagged.Tag() + suffix
		}
	case reference.Tagged:
		suffix = ":" + r.Tag()
	default:
		suffix = ":" + reference.TagNameOnly(named).(reference.Tagged).Tag()
	}

	return accelerated{
		Input:   input,
		Kind:    "image",
		Command: "docker pull " + proxyHost + "/" + repo + suffix,
	}, nil
}

func accelerateInput(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(accelerateFlags.output)
	if err != nil {
		return err
	}

	out, err := accelerate(args[0], accelerateFlags.proxyHost)
	if err != nil {
		return cli.NewCommandError("accelerate", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out)
}
