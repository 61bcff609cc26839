package history

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pixelfirm/pkg/db"
)

func GetCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently downloaded images",
		RunE: func(c *cobra.Command, args []string) error {
			database, err := db.Open()
			if err != nil {
				return err
			}
			defer database.Close()

			records, err := database.ListDownloads(c.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to fetch history: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("no downloads recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tCODENAME\tVERSION\tBYTES\tPATH")
			for _, rec := range records {
				when := time.Unix(rec.FinishedAt, 0).Format("2006-01-02 15:04:05")
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", when, rec.Codename, rec.Version, rec.Bytes, rec.Path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")
	return cmd
}
