// Command client is a minimal CLI driving the upload/download protocol
// against a running server: it seals a message, uploads it to a slot,
// then downloads and reveals it, printing the round trip.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/inda18plusplus/cnol-file-storage/internal/config"
	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
	"github.com/inda18plusplus/cnol-file-storage/internal/verifyclient"
)

func main() {
	var (
		slotFlag     = flag.Uint("slot", 4, "slot identifier to upload to and download from")
		password     = flag.String("password", "abc", "password used to seal/open the envelope")
		message      = flag.String("message", "Super secret message", "plaintext to upload")
		downloadOnly = flag.Bool("download-only", false, "skip the upload step and only download")
	)
	flag.Parse()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatalf("[Client] failed to load configuration: %v", err)
	}

	slot := slotid.ID(*slotFlag)
	transport := verifyclient.NewTransport(cfg.ServerBaseURL)
	root := verifyclient.NewRootStore(cfg.RootHashPath)
	verifier := verifyclient.New(transport, root)

	ctx := context.Background()

	if !*downloadOnly {
		fmt.Printf("Encrypting %q with password %q for slot %d\n", *message, *password, slot)
		if err := verifier.Upload(ctx, []byte(*password), slot, []byte(*message)); err != nil {
			log.Fatalf("[Client] upload failed: %v", err)
		}
	}

	data, err := verifier.Download(ctx, []byte(*password), slot)
	if err != nil {
		log.Fatalf("[Client] download failed: %v", err)
	}

	fmt.Printf("data: %q\n", string(data))
}
