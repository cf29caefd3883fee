package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding"
)

const defaultTLSCertFilename = "tls.cert"

var (
	swapdHomeDir       = btcutil.AppDataDir("swapd", false)
	defaultTLSCertPath = filepath.Join(swapdHomeDir, defaultTLSCertFilename)
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[swapcli] %v\n", err)
	os.Exit(1)
}

func getClient(ctx *cli.Context) (SwapServiceClient, func()) {
	conn := getClientConn(ctx)
	return NewSwapServiceClient(conn), func() { conn.Close() }
}

func getClientConn(ctx *cli.Context) *grpc.ClientConn {
	tlsCertPath := cleanAndExpandPath(ctx.GlobalString("tlscertpath"))
	creds, err := credentials.NewClientTLSFromFile(tlsCertPath, "")
	if err != nil {
		fatal(fmt.Errorf("load tls cert: %w", err))
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(encoding.GetCodec(jsonCodecName))),
	}

	conn, err := grpc.Dial(ctx.GlobalString("rpcserver"), opts...)
	if err != nil {
		fatal(fmt.Errorf("dial %s: %w", ctx.GlobalString("rpcserver"), err))
	}
	return conn
}

func main() {
	app := cli.NewApp()
	app.Name = "swapcli"
	app.Usage = "control plane for swapd, the atomic swap daemon"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "localhost:10009",
			Usage: "host:port of swapd",
		},
		cli.StringFlag{
			Name:  "tlscertpath",
			Value: defaultTLSCertPath,
			Usage: "path to swapd's TLS certificate",
		},
	}
	app.Commands = []cli.Command{
		initiateCommand,
		respondCommand,
		swapCommand,
		swapsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// cleanAndExpandPath expands environment variables and a leading ~ in
// path, then cleans the result.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(swapdHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}
