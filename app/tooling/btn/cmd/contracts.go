package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	contractsOwner string
	deployFile     string
	deployTemplate string
	deployName     string
	callValue      uint64
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Manage contracts on the node.",
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered contracts.",
	Run: func(cmd *cobra.Command, args []string) {
		path := "/contracts"
		if contractsOwner != "" {
			path = "/contracts/owner/" + contractsOwner
		}

		var contracts []map[string]any
		if err := send(http.MethodGet, path, nil, &contracts); err != nil {
			log.Fatal(err)
		}

		for _, c := range contracts {
			fmt.Printf("%v\t%v\t%v\t%v\n", c["id"], c["name"], c["owner"], c["address"])
		}
	},
}

var contractsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a contract.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var c map[string]any
		if err := send(http.MethodGet, "/contracts/"+args[0], nil, &c); err != nil {
			log.Fatal(err)
		}
		printJSON(c)
	},
}

var contractsDeployedCmd = &cobra.Command{
	Use:   "deployed",
	Short: "List the deployment records.",
	Run: func(cmd *cobra.Command, args []string) {
		var resp struct {
			Count     int              `json:"count"`
			Contracts []map[string]any `json:"contracts"`
		}
		if err := send(http.MethodGet, "/contracts/deployed", nil, &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Println("Deployed:", resp.Count)
		for _, c := range resp.Contracts {
			fmt.Printf("%v\t%v\t%v\tblock[%v]\n", c["id"], c["name"], c["status"], c["blockNumber"])
		}
	},
}

var contractsDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a contract from a json file or a template.",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := deploySpec()
		if err != nil {
			log.Fatal(err)
		}

		var resp map[string]any
		if err := send(http.MethodPost, "/contracts/deploy", spec, &resp); err != nil {
			log.Fatal(err)
		}
		printJSON(resp)
	},
}

var contractsCallCmd = &cobra.Command{
	Use:   "call <id> <method> [json params]",
	Short: "Call a contract method.",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		params := []any{}
		if len(args) == 3 {
			if err := json.Unmarshal([]byte(args[2]), &params); err != nil {
				log.Fatalf("params must be a json array: %s", err)
			}
		}

		req := map[string]any{
			"method": args[1],
			"params": params,
			"caller": caller,
			"value":  callValue,
		}

		var resp map[string]any
		if err := send(http.MethodPost, "/contracts/"+args[0]+"/call", req, &resp); err != nil {
			log.Fatal(err)
		}
		printJSON(resp["result"])
	},
}

var contractsEventsCmd = &cobra.Command{
	Use:   "events [id]",
	Short: "Show contract events.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "/contracts/events"
		if len(args) == 1 {
			path = "/contracts/" + args[0] + "/events"
		}

		var events []map[string]any
		if err := send(http.MethodGet, path, nil, &events); err != nil {
			log.Fatal(err)
		}
		printJSON(events)
	},
}

func init() {
	rootCmd.AddCommand(contractsCmd)
	contractsCmd.AddCommand(contractsListCmd, contractsGetCmd, contractsDeployedCmd, contractsDeployCmd, contractsCallCmd, contractsEventsCmd)

	contractsListCmd.Flags().StringVarP(&contractsOwner, "owner", "o", "", "Only list contracts for this owner.")
	contractsDeployCmd.Flags().StringVarP(&deployFile, "file", "f", "", "Json file holding name, code, and abi.")
	contractsDeployCmd.Flags().StringVarP(&deployTemplate, "template", "t", "", "Name of a template to deploy.")
	contractsDeployCmd.Flags().StringVarP(&deployName, "name", "n", "", "Name for the deployed contract.")
	contractsCallCmd.Flags().Uint64VarP(&callValue, "value", "v", 0, "Value sent with the call.")
}

// deploySpec builds the deploy request from the file or template flags.
func deploySpec() (map[string]any, error) {
	spec := map[string]any{}

	switch {
	case deployFile != "":
		data, err := os.ReadFile(deployFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", deployFile, err)
		}

	case deployTemplate != "":
		var templates []map[string]any
		if err := send(http.MethodGet, "/contracts/templates", nil, &templates); err != nil {
			return nil, err
		}
		for _, tmpl := range templates {
			if tmpl["name"] == deployTemplate {
				spec["name"] = tmpl["name"]
				spec["code"] = tmpl["code"]
				spec["abi"] = tmpl["abi"]
			}
		}
		if len(spec) == 0 {
			return nil, fmt.Errorf("template %q not found", deployTemplate)
		}

	default:
		return nil, fmt.Errorf("either --file or --template is required")
	}

	if deployName != "" {
		spec["name"] = deployName
	}
	spec["owner"] = caller

	return spec, nil
}
