package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func printJson(resp interface{}) {
	b, err := json.Marshal(resp)
	if err != nil {
		fatal(err)
	}

	var out bytes.Buffer
	json.Indent(&out, b, "", "\t")
	out.WriteTo(os.Stdout)
	fmt.Println()
}

var initiateCommand = cli.Command{
	Name:      "initiate",
	Usage:     "propose a swap to a peer",
	ArgsUsage: "peer_address alpha_ledger alpha_amount beta_ledger beta_amount alpha_expiry beta_expiry",
	Description: "Propose a swap: peer_address is the counterparty swapd's negotiation address;\n" +
		"alpha/beta_ledger are of the form bitcoin-mainnet, bitcoin-testnet, bitcoin-regtest,\n" +
		"or ethereum-<chain_id>; amounts are in the ledger's smallest unit (sats or wei);\n" +
		"expiries are unix timestamps.",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "beta_token", Usage: "ERC-20 contract address, if beta_ledger is ethereum and the asset is a token"},
	},
	Action: initiateSwap,
}

func initiateSwap(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 7 {
		return fmt.Errorf("initiate requires 7 arguments, see --help")
	}

	client, cleanUp := getClient(ctx)
	defer cleanUp()

	req := &InitiateSwapRequest{
		PeerAddress: args[0],
		AlphaLedger: args[1],
		AlphaAmount: args[2],
		BetaLedger:  args[3],
		BetaAmount:  args[4],
		BetaToken:   ctx.String("beta_token"),
	}
	if _, err := fmt.Sscanf(args[5], "%d", &req.AlphaExpiry); err != nil {
		return fmt.Errorf("invalid alpha_expiry: %w", err)
	}
	if _, err := fmt.Sscanf(args[6], "%d", &req.BetaExpiry); err != nil {
		return fmt.Errorf("invalid beta_expiry: %w", err)
	}

	resp, err := client.InitiateSwap(context.Background(), req)
	if err != nil {
		return err
	}
	printJson(resp)
	return nil
}

var respondCommand = cli.Command{
	Name:      "respond",
	Usage:     "manually accept or decline a pending inbound swap (requires swapd running with --manualapproval)",
	ArgsUsage: "swap_id accept|decline",
	Action:    respondToSwap,
}

func respondToSwap(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return fmt.Errorf("respond requires a swap_id and accept|decline")
	}

	var accept bool
	switch args[1] {
	case "accept":
		accept = true
	case "decline":
		accept = false
	default:
		return fmt.Errorf("second argument must be accept or decline, got %q", args[1])
	}

	client, cleanUp := getClient(ctx)
	defer cleanUp()

	resp, err := client.RespondToSwap(context.Background(), &RespondToSwapRequest{
		SwapId: args[0], Accept: accept,
	})
	if err != nil {
		return err
	}
	printJson(resp)
	return nil
}

var swapCommand = cli.Command{
	Name:      "swap",
	Usage:     "look up a single swap by id",
	ArgsUsage: "swap_id",
	Action:    getSwap,
}

func getSwap(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("swap requires exactly one swap_id argument")
	}

	client, cleanUp := getClient(ctx)
	defer cleanUp()

	resp, err := client.GetSwap(context.Background(), &GetSwapRequest{SwapId: ctx.Args().First()})
	if err != nil {
		return err
	}
	printJson(resp)
	return nil
}

var swapsCommand = cli.Command{
	Name:   "swaps",
	Usage:  "list every swap this daemon knows about",
	Action: listSwaps,
}

func listSwaps(ctx *cli.Context) error {
	client, cleanUp := getClient(ctx)
	defer cleanUp()

	resp, err := client.ListSwaps(context.Background(), &ListSwapsRequest{})
	if err != nil {
		return err
	}
	printJson(resp)
	return nil
}
