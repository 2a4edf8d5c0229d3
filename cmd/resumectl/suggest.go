package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HammerMeetNail/resumebuilder/internal/config"
	"github.com/HammerMeetNail/resumebuilder/internal/services/ai"
	"github.com/HammerMeetNail/resumebuilder/internal/suggestclient"
)

// requestFlags maps flag names to request fields.
func requestFlags(req *ai.SuggestionRequest) map[string]*string {
	return map[string]*string{
		"context":         &req.Context,
		"company":         &req.Company,
		"position":        &req.Position,
		"duration":        &req.Duration,
		"description":     &req.Description,
		"institution":     &req.Institution,
		"degree":          &req.Degree,
		"field-of-study":  &req.FieldOfStudy,
		"industry":        &req.Industry,
		"existing-skills": &req.ExistingSkills,
		"project-name":    &req.ProjectName,
		"technologies":    &req.Technologies,
		"experience":      &req.Experience,
		"skills":          &req.Skills,
	}
}

func newSuggestCmd(root *rootOptions, clientCfg config.ClientConfig) *cobra.Command {
	var (
		file       string
		asJSON     bool
		maxRetries int
		flagValues ai.SuggestionRequest
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask the API for resume suggestions",
		Long: "Sends one suggestion request and prints one suggestion per line.\n" +
			"The request is read from --file (YAML) and/or flags; flags win.\n" +
			"Rate-limited and overloaded responses are retried after 2s, 4s and 6s.",
		Example: "  resumectl suggest --context skills_suggestion --position \"Backend Engineer\" --industry Fintech\n" +
			"  resumectl suggest -f request.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req ai.SuggestionRequest
			if file != "" {
				loaded, err := loadRequestFile(file)
				if err != nil {
					return err
				}
				req = loaded
			}

			fields := requestFlags(&req)
			values := requestFlags(&flagValues)
			for name, dst := range fields {
				if cmd.Flags().Changed(name) {
					*dst = *values[name]
				}
			}

			client := suggestclient.New(root.apiURL, root.token,
				suggestclient.WithHTTPClient(&http.Client{Timeout: clientCfg.Timeout}),
				suggestclient.WithMaxRetries(maxRetries),
			)
			suggestions, err := client.Suggest(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ai.SuggestionResponse{Suggestions: suggestions})
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	for name, dst := range requestFlags(&flagValues) {
		cmd.Flags().StringVar(dst, name, "", "request field "+name)
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file holding the request")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "retries for rate-limited or overloaded responses")
	return cmd
}

func loadRequestFile(path string) (ai.SuggestionRequest, error) {
	var req ai.SuggestionRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading request file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parsing request file: %w", err)
	}
	return req, nil
}
