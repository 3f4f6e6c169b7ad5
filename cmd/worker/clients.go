package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	oauthrepo "github.com/folio-studio/folio-backend/internal/oauth/repository"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List registered OAuth clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.db.Close()

		clients, err := oauthrepo.NewClientRepository(e.db).List(cmd.Context())
		if err != nil {
			return err
		}
		if len(clients) == 0 {
			fmt.Println("no OAuth clients registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CLIENT ID\tNAME\tAUTH\tREDIRECTS\tCREATED\tLAST USED")
		for _, c := range clients {
			lastUsed := color.YellowString("never")
			if c.LastUsedAt != nil {
				lastUsed = color.GreenString(c.LastUsedAt.Format(time.DateTime))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.ClientID, c.ClientName, c.TokenEndpointAuthMethod,
				strings.Join(c.RedirectURIs, ","), c.CreatedAt.Format(time.DateTime), lastUsed)
		}
		return w.Flush()
	},
}
