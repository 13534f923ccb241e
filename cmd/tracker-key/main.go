// Package main generates tracker identity keys or signs a local sign-in token.
//
// Without -subject it prints a fresh key pair as shell exports. With -subject
// it signs a token using TRACKER_IDENTITY_PRIVATE_KEY.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/louisbranch/maze-tracker/internal/platform/config"
	"github.com/louisbranch/maze-tracker/internal/tools/trackerkey"
)

func main() {
	subject := flag.String("subject", "", "subject to sign a token for")
	issuer := flag.String("issuer", os.Getenv("TRACKER_IDENTITY_ISSUER"), "token issuer")
	audience := flag.String("audience", os.Getenv("TRACKER_IDENTITY_AUDIENCE"), "token audience")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		if err := trackerkey.Run(os.Stdout, nil); err != nil {
			config.Exitf("generate identity key: %v", err)
		}
		return
	}
	token, err := trackerkey.Mint(trackerkey.TokenInput{
		PrivateKey: os.Getenv(trackerkey.EnvPrivateKey),
		Subject:    *subject,
		Issuer:     *issuer,
		Audience:   *audience,
		TTL:        *ttl,
	})
	if err != nil {
		config.Exitf("sign token: %v", err)
	}
	fmt.Println(token)
}
