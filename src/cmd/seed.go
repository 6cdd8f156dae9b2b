package cmd

import (
	"feedback-api/src/seeder"

	"github.com/spf13/cobra"
)

func seedCommand(ctx *Context) *cobra.Command {
	var packageName string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample forms for a demo package",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := bootstrap(cmd.Context(), ctx.Config)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := seeder.SeedSampleForms(cmd.Context(), svc.Forms, packageName)
			if err != nil {
				return err
			}
			logger.Infof("seeded %d form(s)", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&packageName, "package", "p", seeder.DemoPackage, "package name to seed")
	return cmd
}
