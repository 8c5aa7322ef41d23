package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sentinelops/incidentdesk/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		asYAML     bool
		outputFile string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document",
		Long:  "Generate the OpenAPI 3.1 document describing every incidentdesk endpoint.",
		Example: `  incidentdesk openapi                    # JSON to stdout
  incidentdesk openapi --yaml -o api.yaml  # YAML to a file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = viper.GetString("server.base_url")
			}
			if baseURL == "" {
				baseURL = fmt.Sprintf("http://localhost:%d", viper.GetInt("server.port"))
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create %s: %w", outputFile, err)
				}
				defer f.Close()
				out = f
			}
			return runOpenAPI(out, baseURL, asYAML)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Emit YAML instead of JSON")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL recorded in the document")

	return cmd
}

func runOpenAPI(out io.Writer, baseURL string, asYAML bool) error {
	doc := openapi.Generate(baseURL)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal openapi document: %w", err)
	}

	if !asYAML {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	// JSON is valid YAML; decoding into a node keeps the key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("convert openapi document: %w", err)
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode openapi yaml: %w", err)
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles the JSON input left on the
// tree. Quoting is still applied where a plain scalar would change type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
