package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/statement-atlas/pkg/export"
	"github.com/de-tools/statement-atlas/pkg/services/config"
	"github.com/de-tools/statement-atlas/pkg/store/snowflake"
)

type LoadCmd struct {
	csvPath     string
	profilePath string
	profileName string
	table       string
}

func NewLoadCmd() *cobra.Command {
	lc := &LoadCmd{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an extracted CSV into Snowflake",
		RunE:  lc.run,
	}

	cmd.Flags().StringVar(&lc.csvPath, "csv", "", "Path to the CSV produced by extract")
	cmd.Flags().StringVar(&lc.profilePath, "profile", "", "Path to the Snowflake profile file")
	cmd.Flags().StringVar(&lc.profileName, "profile-name", "", "Profile section to use (default: the only one)")
	cmd.Flags().StringVar(&lc.table, "table", "", "Target table (default: balance_sheet_line_items)")

	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (lc *LoadCmd) run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	records, err := export.ReadRecords(lc.csvPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", lc.csvPath, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no records", lc.csvPath)
	}

	registry, err := config.NewRegistry(lc.profilePath)
	if err != nil {
		return fmt.Errorf("failed to create config registry: %w", err)
	}

	name := lc.profileName
	if name == "" {
		profiles, err := registry.GetProfiles(ctx)
		if err != nil {
			return err
		}
		if len(profiles) != 1 {
			return fmt.Errorf("profile file has %d profiles, pick one with --profile-name", len(profiles))
		}
		name = profiles[0]
	}

	cfg, err := registry.GetConfig(ctx, name)
	if err != nil {
		return err
	}

	db, err := snowflake.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to snowflake: %w", err)
	}
	defer db.Close()

	loader, err := snowflake.NewLoader(db, snowflake.Settings{Table: lc.table})
	if err != nil {
		return err
	}
	if err := loader.EnsureTable(ctx); err != nil {
		return err
	}

	inserted, err := loader.Load(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d rows\n", inserted)
	return nil
}
