package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/pkg/objectstore"
	"github.com/systmms/containerkit/pkg/secrets"
	"github.com/systmms/containerkit/pkg/warehouse"
)

func NewWarehouseCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Query and load the analytics warehouse",
	}

	cmd.AddCommand(
		newWarehouseQueryCommand(app),
		newWarehouseLoadCommand(app),
	)
	return cmd
}

func newWarehouseQueryCommand(app *App) *cobra.Command {
	var sqlText string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a SQL statement and print the rows as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sqlText == "" {
				return dserrors.UserError{
					Message:    "SQL statement is required",
					Suggestion: "Use --sql '<statement>'",
				}
			}

			wh, err := openWarehouse(cmd, app)
			if err != nil {
				return err
			}
			defer wh.Close()

			rows, err := wh.Query(cmd.Context(), sqlText)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			app.Logger.Debug("Query returned %d rows", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlText, "sql", "", "SQL statement to run")
	return cmd
}

func newWarehouseLoadCommand(app *App) *cobra.Command {
	var (
		table     string
		localFile string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk load a local file into a warehouse table",
		Long: `Decode a local csv, json or parquet file into rows and load them into
the given table inside one transaction. Postgres targets use COPY.

Example:
  containerkit warehouse load --table analytics.orders --file /tmp/orders.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if table == "" || localFile == "" {
				return dserrors.UserError{
					Message:    "Both a table and a file are required",
					Suggestion: "Use --table <schema.table> --file <path>",
				}
			}

			data, err := os.ReadFile(localFile)
			if err != nil {
				return dserrors.UserError{
					Message:    fmt.Sprintf("failed to read %s", localFile),
					Suggestion: "Check the path and file permissions",
					Err:        err,
				}
			}

			format := objectstore.InferFormat(localFile, objectstore.FormatCSV)
			rows, err := objectstore.Decode(format, data)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				app.Logger.Warn("No rows found in %s, nothing to load", localFile)
				return nil
			}

			columns, records := tabulate(rows)

			wh, err := openWarehouse(cmd, app)
			if err != nil {
				return err
			}
			defer wh.Close()

			jobID := warehouse.NewJobID("load")
			app.Logger.Debug("Starting load job %s", jobID)
			if err := wh.Load(cmd.Context(), table, columns, records); err != nil {
				return err
			}
			app.Logger.Info("Load job %s finished: %d rows into %s", jobID, len(records), table)
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Target table")
	cmd.Flags().StringVar(&localFile, "file", "", "Local file to load (csv, json or parquet)")
	return cmd
}

// openWarehouse connects using the configured driver and DSN, falling
// back to the mounted warehouse credential file for the DSN.
func openWarehouse(cmd *cobra.Command, app *App) (*warehouse.Warehouse, error) {
	cfg := warehouse.Config{
		Driver: app.Config.Warehouse.Driver,
		DSN:    app.Config.Warehouse.DSN,
	}

	if cfg.DSN == "" {
		locations := secrets.DefaultLocations()
		if creds, ok := secrets.ParseSecretWithFallback(
			locations[secrets.KeyWarehouse], secrets.KeyWarehouse, locations, ""); ok {
			cfg.DSN = creds.Field("dsn")
			if cfg.Driver == "" {
				cfg.Driver = creds.Field("driver")
			}
			app.Vocab.Add(creds.Words()...)
		}
	}
	if cfg.Driver == "" {
		cfg.Driver = warehouse.DriverPostgres
	}

	return warehouse.Open(cmd.Context(), cfg, app.Logger)
}

// tabulate flattens map rows into a column list plus positional records.
func tabulate(rows []map[string]any) ([]string, [][]any) {
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	records := make([][]any, len(rows))
	for i, row := range rows {
		record := make([]any, len(columns))
		for j, col := range columns {
			record[j] = row[col]
		}
		records[i] = record
	}
	return columns, records
}
