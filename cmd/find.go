package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/waterfall"
)

var findFlags struct {
	first    string
	last     string
	domain   string
	company  string
	linkedin string
	skip     []string
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Look up one person's email through the waterfall",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := initEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		req := model.LookupRequest{
			FirstName:   findFlags.first,
			LastName:    findFlags.last,
			Domain:      findFlags.domain,
			Company:     findFlags.company,
			LinkedInURL: findFlags.linkedin,
		}
		for _, s := range findFlags.skip {
			req.Skip = append(req.Skip, model.Source(s))
		}

		result, err := engine.FindEmail(cmd.Context(), req)
		if err != nil {
			var verr *waterfall.ValidationError
			if errors.As(err, &verr) {
				cmd.SilenceUsage = true
			}
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	findCmd.Flags().StringVar(&findFlags.first, "first", "", "first name (required)")
	findCmd.Flags().StringVar(&findFlags.last, "last", "", "last name (required)")
	findCmd.Flags().StringVar(&findFlags.domain, "domain", "", "company domain")
	findCmd.Flags().StringVar(&findFlags.company, "company", "", "company name")
	findCmd.Flags().StringVar(&findFlags.linkedin, "linkedin", "", "LinkedIn profile URL")
	findCmd.Flags().StringSliceVar(&findFlags.skip, "skip", nil, "providers to skip for this lookup")
	rootCmd.AddCommand(findCmd)
}
