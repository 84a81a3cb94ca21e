package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	transferTo     string
	transferAmount uint64
)

var balancesCmd = &cobra.Command{
	Use:   "balances [name]",
	Short: "Print account balances.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "/balances/list"
		if len(args) == 1 {
			path += "/" + args[0]
		}

		var resp struct {
			LatestBlock string `json:"latest_block"`
			Balances    []struct {
				Name    string `json:"name"`
				Balance uint64 `json:"balance"`
			} `json:"balances"`
		}
		if err := send(http.MethodGet, path, nil, &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Println("Latest Block:", resp.LatestBlock)
		for _, b := range resp.Balances {
			fmt.Printf("%s\t%d\n", b.Name, b.Balance)
		}
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Submit a transfer from the caller.",
	Run: func(cmd *cobra.Command, args []string) {
		req := map[string]any{
			"from":   caller,
			"to":     transferTo,
			"amount": transferAmount,
		}

		var op map[string]any
		if err := send(http.MethodPost, "/ops/transfer", req, &op); err != nil {
			log.Fatal(err)
		}
		printJSON(op)
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks [name]",
	Short: "Print the blocks, optionally for a name.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "/blocks/list"
		if len(args) == 1 {
			path += "/" + args[0]
		}

		var blocks []map[string]any
		if err := send(http.MethodGet, path, nil, &blocks); err != nil {
			log.Fatal(err)
		}
		printJSON(blocks)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the node's chain.",
	Run: func(cmd *cobra.Command, args []string) {
		var resp map[string]any
		if err := send(http.MethodGet, "/chain/validate", nil, &resp); err != nil {
			log.Fatal(err)
		}
		printJSON(resp)
	},
}

var miningCmd = &cobra.Command{
	Use:   "mining",
	Short: "Signal the node to mine and print its hash count.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := send(http.MethodGet, "/mining/signal", nil, nil); err != nil {
			log.Fatal(err)
		}

		var resp map[string]any
		if err := send(http.MethodGet, "/mining/hashcount", nil, &resp); err != nil {
			log.Fatal(err)
		}
		printJSON(resp)
	},
}

func init() {
	rootCmd.AddCommand(balancesCmd, transferCmd, blocksCmd, validateCmd, miningCmd)

	transferCmd.Flags().StringVarP(&transferTo, "to", "t", "", "Name receiving the amount.")
	transferCmd.Flags().Uint64VarP(&transferAmount, "amount", "a", 0, "Amount to transfer.")
}
