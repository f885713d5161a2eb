package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/util"
)

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "List and delete song styles",
}

var styleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List styles with the number of songs using them",
	Args:  cobra.NoArgs,
	RunE:  runStyleList,
}

var styleDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a style; its songs move to Uncategorized",
	Args:  cobra.ExactArgs(1),
	RunE:  runStyleDelete,
}

func init() {
	rootCmd.AddCommand(styleCmd)
	styleCmd.AddCommand(styleListCmd, styleDeleteCmd)
}

func runStyleList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range a.ctrl.Styles() {
		fmt.Printf("%-24s %3d\n", name, a.ctrl.StyleUsage(name))
	}
	return nil
}

func runStyleDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.ctrl.DeleteStyle(args[0], newConfirmer())
	if err != nil {
		return err
	}
	if !ok {
		util.InfoLog("Cancelled")
		return nil
	}
	util.SuccessLog("Deleted style %q", args[0])
	return nil
}
