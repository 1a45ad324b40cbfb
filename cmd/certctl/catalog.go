package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certportal/certportal/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [category]",
	Short: "List categories, letter types, subtypes and their fields",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		infos := cat.Describe()
		if len(args) == 1 {
			if !cat.Has(args[0]) {
				return fmt.Errorf("unknown category %q (have %s)", args[0], strings.Join(cat.Categories(), ", "))
			}
			infos = []catalog.CategoryInfo{cat.DescribeCategory(args[0])}
		}
		return render(cmd.OutOrStdout(), viper.GetString(keyOutput), infos, func(w io.Writer) {
			printCatalog(w, infos)
		})
	},
}

func printCatalog(w io.Writer, infos []catalog.CategoryInfo) {
	for _, c := range infos {
		fmt.Fprintf(w, "%s (%s)\n", c.Name, c.Channel)
		for _, lt := range c.LetterTypes {
			fmt.Fprintf(w, "  %s\n", lt.Name)
			for _, st := range lt.Subtypes {
				if st.Name != lt.Name {
					fmt.Fprintf(w, "    %s\n", st.Name)
				}
				for _, f := range st.Fields {
					if !f.Required {
						continue
					}
					fmt.Fprintf(w, "      --field %s=<%s>  %s\n", f.Name, f.Kind, f.Label)
				}
			}
		}
	}
}
