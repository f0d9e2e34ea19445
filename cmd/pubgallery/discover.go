package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eringen/pubgallery/discovery"
)

var (
	discoverRoot    string
	discoverBaseURL string
	discoverPairs   bool
	discoverCount   int
	discoverPolicy  string
	discoverJSON    bool
)

// discoverResult is what the discover command prints.
type discoverResult struct {
	Folder string               `json:"folder" yaml:"folder"`
	Policy string               `json:"policy" yaml:"policy"`
	Limit  int                  `json:"limit" yaml:"limit"`
	Probes int                  `json:"probes" yaml:"probes"`
	Assets []discovery.AssetRef `json:"assets,omitempty" yaml:"assets,omitempty"`
	Pairs  []discovery.Pair     `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

var discoverCmd = &cobra.Command{
	Use:   "discover <folder>",
	Short: "Probe a gallery folder and print what was found",
	Long: `Runs the same sequential discovery the server uses against a local
asset directory (--root) or a remote origin (--base-url).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := discovery.ParseGapPolicy(discoverPolicy)
		if err != nil {
			return err
		}

		var base discovery.Prober
		if discoverBaseURL != "" {
			base = discovery.NewHTTPProber(discoverBaseURL)
		} else {
			base = &discovery.FSProber{FS: os.DirFS(discoverRoot), Prefix: "imgs"}
		}

		bar := newProbeBar(cmd.ErrOrStderr())
		res := discoverResult{Folder: args[0], Policy: policy.Name}
		prober := &discovery.CountingProber{
			Prober: base,
			Observe: func(path string, ok bool) {
				res.Probes++
				bar.Describe(path)
				_ = bar.Add(1)
			},
		}

		d := discovery.NewDiscoverer(prober, "imgs")
		d.Policy = policy
		if verbose {
			d.Log = discovery.NewLogger("discover")
		}
		res.Limit = d.Limit(discoverCount)

		ctx := cmd.Context()
		if discoverPairs {
			res.Pairs = d.DiscoverPairs(ctx, res.Folder, discoverCount)
		} else {
			res.Assets = d.Discover(ctx, res.Folder, discoverCount)
		}
		_ = bar.Finish()

		return printResult(cmd.OutOrStdout(), res, discoverJSON)
	},
}

func newProbeBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("probing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func printResult(w io.Writer, res discoverResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return enc.Close()
}

func init() {
	discoverCmd.Flags().StringVar(&discoverRoot, "root", "imgs", "local directory holding gallery folders")
	discoverCmd.Flags().StringVar(&discoverBaseURL, "base-url", "", "probe a remote origin instead of --root")
	discoverCmd.Flags().BoolVar(&discoverPairs, "pairs", false, "resolve low/high quality pairs")
	discoverCmd.Flags().IntVar(&discoverCount, "count", 0, "upper bound hint for the number of images")
	discoverCmd.Flags().StringVar(&discoverPolicy, "policy", "strict", "gap policy: strict or tolerant")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "print JSON instead of YAML")
	rootCmd.AddCommand(discoverCmd)
}
