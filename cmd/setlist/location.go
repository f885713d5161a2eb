package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/util"
)

var locationCmd = &cobra.Command{
	Use:     "location",
	Aliases: []string{"loc"},
	Short:   "Manage venues",
	Long: `Create, list, select and delete venues.

Songs always belong to one venue. The selected venue is remembered
between runs and is where 'song' and 'suggest' commands operate.`,
}

var locationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List venues with their song counts",
	Args:  cobra.NoArgs,
	RunE:  runLocationList,
}

var locationAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a venue and select it",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocationAdd,
}

var locationDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a venue and all of its songs",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocationDelete,
}

var locationSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the venue to work on",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocationSelect,
}

func init() {
	rootCmd.AddCommand(locationCmd)
	locationCmd.AddCommand(locationListCmd, locationAddCmd, locationDeleteCmd, locationSelectCmd)
}

func runLocationList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	locations := a.ctrl.Locations()
	if len(locations) == 0 {
		util.InfoLog("No venues yet. Create one with 'setlist location add <name>'.")
		return nil
	}

	active, _ := a.ctrl.ActiveLocation()
	for _, loc := range locations {
		marker := " "
		if loc.ID == active.ID {
			marker = "*"
		}
		fmt.Printf("%s %s  %-30s %3d songs  added %s\n",
			marker, loc.ID, util.Truncate(loc.Name, 30), a.ctrl.SongCount(loc.ID),
			humanize.Time(time.UnixMilli(loc.CreatedAt)))
	}
	return nil
}

func runLocationAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := a.ctrl.CreateLocation(args[0])
	if err != nil {
		return err
	}
	util.SuccessLog("Created and selected %q (%s)", loc.Name, loc.ID)
	return nil
}

func runLocationDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.ctrl.DeleteLocation(args[0], newConfirmer())
	if err != nil {
		return err
	}
	if !ok {
		util.InfoLog("Cancelled")
		return nil
	}
	util.SuccessLog("Deleted venue %s", args[0])
	return nil
}

func runLocationSelect(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.ctrl.SelectLocation(args[0])
	if err != nil {
		return err
	}
	loc, err := a.ctrl.Location(id)
	if err != nil {
		return err
	}
	util.SuccessLog("Selected %q (%d songs)", loc.Name, a.ctrl.SongCount(id))
	return nil
}
